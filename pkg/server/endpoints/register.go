package endpoints

import (
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	// Public and cron-secret routes
	RegisterStatusEndpoints(srv)
	RegisterDashboardEndpoints(srv)
	RegisterCronEndpoints(srv)
	RegisterSyncEndpoints(srv)
	RegisterDiagnosticsEndpoints(srv)

	// Bearer-token routes
	v1 := srv.Router.PathPrefix("/api/v1").Subrouter()
	v1.Use(srv.Authenticator().Middleware)

	RegisterDirectoryEndpoints(srv, v1)
	RegisterHandoversEndpoints(srv, v1)
	RegisterProgressEndpoints(srv, v1)
	RegisterProfilesEndpoints(srv, v1)
}
