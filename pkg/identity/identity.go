package identity

import (
	"context"
	"net"
	"time"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity is the authenticated principal of a request. It combines the
// token claims with the caller's profile.
type Identity struct {
	// Token claims
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Profile; callers without a profile are employees.
	ProfileID    string
	FullName     string
	Role         model.Role
	DepartmentID string

	RemoteIP net.IP
}

// New builds an Identity from token claims. Role defaults to employee until
// WithProfile is applied.
func New(subject, email string, issuedAt, expiresAt time.Time) *Identity {
	return &Identity{
		Subject:   subject,
		Email:     model.NormalizeEmail(email),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Role:      model.RoleEmployee,
	}
}

// WithProfile copies role and department from the caller's profile.
func (i *Identity) WithProfile(p *model.UserProfile) *Identity {
	if p == nil {
		return i
	}
	i.ProfileID = p.ID
	i.FullName = p.FullName
	if p.Role.Valid() {
		i.Role = p.Role
	}
	if p.DepartmentID != nil {
		i.DepartmentID = *p.DepartmentID
	}
	return i
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

func (i *Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

func (i *Identity) IsManager() bool {
	return i.Role == model.RoleManager
}

// HandoverScope is the set of handovers the caller may see. Admins see
// everything, managers see what they manage or what belongs to their
// department, employees see handovers they hand over or receive.
func (i *Identity) HandoverScope() store.Scope {
	switch i.Role {
	case model.RoleAdmin:
		return store.Unrestricted
	case model.RoleManager:
		return store.Scope{ManagerEmail: i.Email, DepartmentID: i.DepartmentID}
	default:
		return store.Scope{ParticipantEmail: i.Email}
	}
}

// CanManageHandovers reports whether the caller may create and edit
// handovers within their scope.
func (i *Identity) CanManageHandovers() bool {
	return i.IsAdmin() || i.IsManager()
}

// CanDeleteHandovers is reserved for admins.
func (i *Identity) CanDeleteHandovers() bool {
	return i.IsAdmin()
}

// CanUpdateProgress reports whether the caller may tick off tasks of h.
// Anyone who can see a handover may work on its tasks.
func (i *Identity) CanUpdateProgress(h *model.Handover) bool {
	return i.HandoverScope().Allows(h)
}

// CanWriteDirectory covers organizations, plants, departments, jobs and templates.
func (i *Identity) CanWriteDirectory() bool {
	return i.IsAdmin()
}

// CanListProfiles reports whether the caller may read other users' profiles.
func (i *Identity) CanListProfiles() bool {
	return i.IsAdmin() || i.IsManager()
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
