// Package middleware authenticates API requests.
//
// Authenticator verifies Supabase-issued HS256 access tokens and attaches an
// identity.Identity to the request context. RequireCronSecret guards the
// scheduled sync endpoints with a shared bearer secret.
package middleware
