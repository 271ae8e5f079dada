package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/handover-tracker/pkg/identity"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

// DefaultAudience is the aud claim Supabase puts on user access tokens.
const DefaultAudience = "authenticated"

// Claims are the access token claims the API reads.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ProfileLookup resolves the caller's profile by email.
type ProfileLookup interface {
	ByEmail(ctx context.Context, email string) (*model.UserProfile, error)
}

// Authenticator is middleware that validates bearer JWTs
type Authenticator struct {
	secret   []byte
	audience string
	profiles ProfileLookup
	logger   logger.Logger
	now      func() time.Time
}

// NewAuthenticator creates the JWT middleware. An empty audience skips the
// aud check.
func NewAuthenticator(secret, audience string, profiles ProfileLookup, lggr logger.Logger) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		audience: audience,
		profiles: profiles,
		logger:   lggr.Named("auth"),
		now:      time.Now,
	}
}

// Parse verifies tokenString and returns its claims.
func (a *Authenticator) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(30 * time.Second),
		jwt.WithTimeFunc(a.now),
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, errors.New("token has no email claim")
	}
	return claims, nil
}

// Middleware returns an HTTP middleware that validates JWT tokens and
// stores the caller's identity in the request context
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.secret) == 0 {
			writeError(w, http.StatusServiceUnavailable, "Authentication is not configured")
			return
		}

		tokenString, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authorization missing")
			return
		}

		claims, err := a.Parse(tokenString)
		if err != nil {
			a.logger.Debugw("Rejected access token", "err", err, "ip", ClientIP(r))
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		id := identity.New(claims.Subject, claims.Email, timeOf(claims.IssuedAt), timeOf(claims.ExpiresAt)).
			WithRemoteIP(net.ParseIP(ClientIP(r)))

		profile, err := a.profiles.ByEmail(r.Context(), claims.Email)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			a.logger.Errorw("Failed to load profile", "email", claims.Email, "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to load profile")
			return
		default:
			id.WithProfile(profile)
		}

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

func timeOf(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
