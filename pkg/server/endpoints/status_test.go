package endpoints

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHealth(t *testing.T) {
	e := newTestEnv(t).register()
	e.health.On("CheckConnectivity", mock.Anything).Return(nil).Once()
	e.health.On("CheckConnectivity", mock.Anything).Return(errors.New("dial tcp: refused")).Once()

	rr := e.do(http.MethodGet, "/api/health", "", "")
	assertStatus(t, http.StatusOK, rr)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = e.do(http.MethodGet, "/api/health", "", "")
	assertStatus(t, http.StatusServiceUnavailable, rr)
	assert.JSONEq(t, `{"status":"error","error":"database connectivity check failed"}`, rr.Body.String())
}

func TestRouterFallbacks(t *testing.T) {
	e := newTestEnv(t).register()

	rr := e.do(http.MethodGet, "/api/nope", "", "")
	assertStatus(t, http.StatusNotFound, rr)
	assert.JSONEq(t, `{"success":false,"error":"Not found"}`, rr.Body.String())

	rr = e.do(http.MethodPost, "/api/health", "", "")
	assertStatus(t, http.StatusMethodNotAllowed, rr)
	assert.JSONEq(t, `{"success":false,"error":"Method not allowed"}`, rr.Body.String())
}
