package endpoints

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/handover-tracker/pkg/audit"
	"github.com/doodlesbykumbi/handover-tracker/pkg/config"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/middleware"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

const (
	testJWTSecret  = "test-jwt-secret-with-enough-entropy-0123456789"
	testCronSecret = "cron-secret"
)

var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	srv *server.Server

	handovers     *MockHandoversStore
	progress      *MockProgressStore
	profiles      *MockProfilesStore
	organizations *MockEntityStore[model.Organization]
	plants        *MockEntityStore[model.Plant]
	departments   *MockEntityStore[model.Department]
	jobs          *MockEntityStore[model.Job]
	templates     *MockEntityStore[model.Template]
	directory     *MockDirectoryStore
	health        *MockHealthStore
}

func testConfig() *config.Config {
	return &config.Config{
		BindAddress:        "127.0.0.1",
		Port:               8000,
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		JWTSecret:          testJWTSecret,
		CronSecret:         testCronSecret,
		SyncRetryAttempts:  1,
		GoogleSheetRange:   "Handovers!A1:O",
		Timezone:           "UTC",
	}
}

// newTestEnv builds a server over mock stores. cfgFn may adjust the
// configuration before the server is created.
func newTestEnv(t *testing.T, cfgFn ...func(*config.Config)) *testEnv {
	t.Helper()
	audit.SetEnabled(false)
	t.Cleanup(func() { audit.SetEnabled(true) })

	cfg := testConfig()
	for _, fn := range cfgFn {
		fn(cfg)
	}

	e := &testEnv{
		handovers:     &MockHandoversStore{},
		progress:      &MockProgressStore{},
		profiles:      &MockProfilesStore{},
		organizations: &MockEntityStore[model.Organization]{},
		plants:        &MockEntityStore[model.Plant]{},
		departments:   &MockEntityStore[model.Department]{},
		jobs:          &MockEntityStore[model.Job]{},
		templates:     &MockEntityStore[model.Template]{},
		directory:     &MockDirectoryStore{},
		health:        &MockHealthStore{},
	}

	srv := server.New(cfg, logger.Test(t))
	srv.HandoversStore = e.handovers
	srv.ProgressStore = e.progress
	srv.ProfilesStore = e.profiles
	srv.OrganizationsStore = e.organizations
	srv.PlantsStore = e.plants
	srv.DepartmentsStore = e.departments
	srv.JobsStore = e.jobs
	srv.TemplatesStore = e.templates
	srv.DirectoryStore = e.directory
	srv.HealthStore = e.health
	srv.Now = func() time.Time { return testNow }
	e.srv = srv
	return e
}

// register wires the routes. Tests that replace Relay or Sheets do so first.
func (e *testEnv) register() *testEnv {
	RegisterAll(e.srv)
	return e
}

// as signs a token for email and makes the profile lookup return role.
func (e *testEnv) as(t *testing.T, email string, role model.Role, departmentID string) string {
	t.Helper()
	p := &model.UserProfile{ID: "profile-" + email, Email: email, Role: role}
	if departmentID != "" {
		p.DepartmentID = &departmentID
	}
	e.profiles.On("ByEmail", mock.Anything, email).Return(p, nil)
	return signTestToken(t, email)
}

func signTestToken(t *testing.T, email string) string {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-" + email,
			Audience:  jwt.ClaimStrings{middleware.DefaultAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.srv.Router.ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rr)
	require.True(t, env.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func ptr[T any](v T) *T {
	return &v
}

func date(s string) *model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

var managerScope = store.Scope{ManagerEmail: "boss@example.com", DepartmentID: "dept-1"}

func assertStatus(t *testing.T, want int, rr *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, rr.Code, rr.Body.String())
}
