// Package server provides the HTTP server for the handover tracker API.
//
// The server uses gorilla/mux for routing. Every response passes through
// gorilla/handlers for access logging, panic recovery and CORS. Unknown
// routes and method mismatches answer with the same JSON error envelope as
// the endpoints themselves.
//
// # Server Setup
//
//	srv := server.NewServer(cfg, db, lggr)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
// The Server struct holds:
//
//   - Config: the loaded configuration
//   - Router: HTTP request router
//   - DB: Database connection
//   - the store interfaces the endpoints read and write through
//   - Relay: client for the downstream sync endpoint
//
// Tests build a Server with [New] and assign mock stores.
package server
