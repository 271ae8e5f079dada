// Package identity carries the authenticated caller through a request and
// answers what that caller may do.
//
// The JWT middleware verifies the token, loads the caller's profile and
// stores an Identity in the request context:
//
//	id := identity.New(claims.Subject, claims.Email, iat, exp).
//		WithProfile(profile).
//		WithRemoteIP(clientIP)
//	ctx = identity.Set(ctx, id)
//
// Endpoints read it back and consult the access rules:
//
//	id, ok := identity.Get(r.Context())
//	handovers, total, err := s.Handovers.List(ctx, store.HandoverQuery{Scope: id.HandoverScope()})
//
// Roles map onto scopes as follows: admins see every handover, managers see
// handovers they manage or that belong to their department, and employees
// see handovers where they are the outgoing or incoming employee. Directory
// tables are readable by everyone and writable by admins only.
package identity
