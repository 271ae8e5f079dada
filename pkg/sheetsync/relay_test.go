package sheetsync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
)

func newTestRelay(t *testing.T, attempts uint, handler http.HandlerFunc) (*RelayClient, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer cron-secret", r.Header.Get("Authorization"))
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewRelayClient(srv.Client(), srv.URL+"/api/sync/sheets", "cron-secret", attempts, logger.Test(t)).
		WithDelay(time.Millisecond)
	return client, &calls
}

func TestRelayClient_Success(t *testing.T) {
	client, calls := newTestRelay(t, 3, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"created":2}`))
	})

	res, err := client.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, `{"success":true,"created":2}`, string(res.Body))
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestRelayClient_RetriesServerErrors(t *testing.T) {
	var n int32
	client, calls := newTestRelay(t, 3, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	res, err := client.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestRelayClient_GivesUpAfterAttempts(t *testing.T) {
	client, calls := newTestRelay(t, 2, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := client.Trigger(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
	assert.JSONEq(t, `"upstream down"`, string(statusErr.Body))
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestRelayClient_DoesNotRetryClientErrors(t *testing.T) {
	client, calls := newTestRelay(t, 3, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":"Unauthorized"}`))
	})

	_, err := client.Trigger(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestRelayClient_NoURL(t *testing.T) {
	client := NewRelayClient(nil, "", "cron-secret", 3, logger.Test(t))
	_, err := client.Trigger(context.Background())
	assert.EqualError(t, err, "sync endpoint URL is not configured")
}
