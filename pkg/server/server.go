package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/handover-tracker/pkg/config"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/middleware"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
	storegorm "github.com/doodlesbykumbi/handover-tracker/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/handover-tracker/pkg/sheetsync"
)

type Server struct {
	Config *config.Config
	Logger logger.Logger
	Router *mux.Router
	DB     *gorm.DB

	HandoversStore     store.HandoversStore
	ProgressStore      store.ProgressStore
	ProfilesStore      store.ProfilesStore
	OrganizationsStore store.EntityStore[model.Organization]
	PlantsStore        store.EntityStore[model.Plant]
	DepartmentsStore   store.EntityStore[model.Department]
	JobsStore          store.EntityStore[model.Job]
	TemplatesStore     store.EntityStore[model.Template]
	DirectoryStore     store.DirectoryStore
	HealthStore        store.HealthStore

	// Relay triggers the downstream sync endpoint for the cron route.
	Relay *sheetsync.RelayClient

	// Sheets overrides the Google Sheets reader. When nil a reader is built
	// from the configured service account on each use.
	Sheets sheetsync.ValueReader

	// Now is the clock used for dashboard bucketing and response timestamps.
	Now func() time.Time

	authOnce sync.Once
	auth     *middleware.Authenticator
	srv      *http.Server
}

// New creates a server without stores. Callers attach stores before
// registering endpoints; NewServer does this for a database connection.
func New(cfg *config.Config, lggr logger.Logger) *Server {
	lggr = lggr.Named("server")
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout,
			handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(cors(router))),
		Addr:         cfg.Addr(),
		WriteTimeout: 5 * time.Minute,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Config: cfg,
		Logger: lggr,
		Router: router,
		Relay:  sheetsync.NewRelayClient(nil, cfg.SyncEndpointURL, cfg.CronSecret, cfg.SyncRetryAttempts, lggr),
		Now:    time.Now,
		srv:    srv,
	}
}

// NewServer creates a server backed by the Postgres stores.
func NewServer(cfg *config.Config, db *gorm.DB, lggr logger.Logger) *Server {
	s := New(cfg, lggr)
	s.DB = db
	s.HandoversStore = storegorm.NewHandoversStore(db)
	s.ProgressStore = storegorm.NewProgressStore(db)
	s.ProfilesStore = storegorm.NewProfilesStore(db)
	s.OrganizationsStore = storegorm.NewOrganizationsStore(db)
	s.PlantsStore = storegorm.NewPlantsStore(db)
	s.DepartmentsStore = storegorm.NewDepartmentsStore(db)
	s.JobsStore = storegorm.NewJobsStore(db)
	s.TemplatesStore = storegorm.NewTemplatesStore(db)
	s.DirectoryStore = storegorm.NewDirectoryStore(db)
	s.HealthStore = storegorm.NewHealthStore(db)
	return s
}

// Authenticator returns the JWT middleware, built on first use from the
// configured secret and the profiles store.
func (s *Server) Authenticator() *middleware.Authenticator {
	s.authOnce.Do(func() {
		s.auth = middleware.NewAuthenticator(s.Config.JWTSecret, middleware.DefaultAudience, s.ProfilesStore, s.Logger)
	})
	return s.auth
}

// Location is the time zone due dates are bucketed in.
func (s *Server) Location() *time.Location {
	return s.Config.Location()
}

// SheetReader returns the reader for the configured sheet.
func (s *Server) SheetReader(ctx context.Context) (sheetsync.ValueReader, error) {
	if s.Sheets != nil {
		return s.Sheets, nil
	}
	client, err := sheetsync.CredentialsFromConfig(s.Config).Client(ctx)
	if err != nil {
		return nil, err
	}
	return sheetsync.NewSheetsClient(client), nil
}

// Syncer builds a sheet syncer over the server's stores.
func (s *Server) Syncer(ctx context.Context) (*sheetsync.Syncer, error) {
	reader, err := s.SheetReader(ctx)
	if err != nil {
		return nil, err
	}
	creds := sheetsync.CredentialsFromConfig(s.Config)
	return sheetsync.NewSyncer(reader, s.HandoversStore, s.DirectoryStore, creds.SheetID, creds.Range, s.Logger), nil
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	s.Logger.Infow("Listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler is the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
