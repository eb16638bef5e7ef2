package invitation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/core/domain/aggregates/membership"
	"github.com/retailcloud/retail-sdk/pkg/serrors"
)

var (
	ErrNotFound = serrors.NewError("INVITATION_NOT_FOUND", "invitation not found", "")
	// ErrInvalid covers unknown, already consumed and expired tokens: the
	// caller learns the token is unusable, not why.
	ErrInvalid = serrors.NewError("INVITATION_INVALID", "invitation token is invalid", "")
	ErrPending = serrors.NewError("INVITATION_PENDING", "email already has an outstanding invitation for tenant", "")
)

type Invitation struct {
	id           uuid.UUID
	tenantID     uuid.UUID
	email        string
	role         membership.Role
	capabilities map[membership.Capability]bool
	token        string
	invitedBy    uuid.UUID
	expiresAt    time.Time
	acceptedAt   *time.Time
	createdAt    time.Time
}

type Option func(*Invitation)

func WithID(id uuid.UUID) Option {
	return func(i *Invitation) {
		i.id = id
	}
}

func WithToken(token string) Option {
	return func(i *Invitation) {
		i.token = token
	}
}

func WithCapabilities(caps map[membership.Capability]bool) Option {
	return func(i *Invitation) {
		i.capabilities = caps
	}
}

func WithExpiresAt(at time.Time) Option {
	return func(i *Invitation) {
		i.expiresAt = at
	}
}

func WithAcceptedAt(at *time.Time) Option {
	return func(i *Invitation) {
		i.acceptedAt = at
	}
}

func WithCreatedAt(at time.Time) Option {
	return func(i *Invitation) {
		i.createdAt = at
	}
}

func New(tenantID uuid.UUID, email string, role membership.Role, invitedBy uuid.UUID, ttl time.Duration, opts ...Option) *Invitation {
	i := &Invitation{
		id:           uuid.New(),
		tenantID:     tenantID,
		email:        email,
		role:         role,
		capabilities: map[membership.Capability]bool{},
		invitedBy:    invitedBy,
		expiresAt:    time.Now().Add(ttl),
		createdAt:    time.Now(),
	}
	for _, opt := range opts {
		opt(i)
	}
	// Hydration passes the stored token via WithToken; only genuinely new
	// invitations mint one.
	if i.token == "" {
		i.token = newToken()
	}
	return i
}

func newToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func (i *Invitation) ID() uuid.UUID {
	return i.id
}

func (i *Invitation) TenantID() uuid.UUID {
	return i.tenantID
}

func (i *Invitation) Email() string {
	return i.email
}

func (i *Invitation) Role() membership.Role {
	return i.role
}

func (i *Invitation) Capabilities() map[membership.Capability]bool {
	return i.capabilities
}

func (i *Invitation) Token() string {
	return i.token
}

func (i *Invitation) InvitedBy() uuid.UUID {
	return i.invitedBy
}

func (i *Invitation) ExpiresAt() time.Time {
	return i.expiresAt
}

func (i *Invitation) AcceptedAt() *time.Time {
	return i.acceptedAt
}

func (i *Invitation) CreatedAt() time.Time {
	return i.createdAt
}

func (i *Invitation) Consumed() bool {
	return i.acceptedAt != nil
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.expiresAt)
}

// Accept consumes the token. A consumed or expired invitation is
// permanently invalid, independent of who presents it.
func (i *Invitation) Accept(now time.Time) error {
	if i.Consumed() {
		return ErrInvalid.WithDetails("token already consumed")
	}
	if i.Expired(now) {
		return ErrInvalid.WithDetails("token expired at %s", i.expiresAt.Format(time.RFC3339))
	}
	i.acceptedAt = &now
	return nil
}

type Repository interface {
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	// GetPending returns the outstanding (unconsumed, unexpired)
	// invitation for (tenant, email), if any.
	GetPending(ctx context.Context, tenantID uuid.UUID, email string) (*Invitation, error)
	Create(ctx context.Context, i *Invitation) (*Invitation, error)
	Update(ctx context.Context, i *Invitation) (*Invitation, error)
}
