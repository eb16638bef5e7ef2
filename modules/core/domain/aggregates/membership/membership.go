package membership

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleViewer  Role = "viewer"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleManager, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// Capability is a granular permission flag carried by a membership on top of
// its role.
type Capability string

const (
	CapManageUsers     Capability = "manage_users"
	CapManageSettings  Capability = "manage_settings"
	CapViewAnalytics   Capability = "view_analytics"
	CapManageInventory Capability = "manage_inventory"
	CapProcessSales    Capability = "process_sales"
)

// Membership associates a user with a tenant. Deactivated rather than
// deleted on removal so the audit trail survives.
type Membership struct {
	id           uuid.UUID
	tenantID     uuid.UUID
	userID       uuid.UUID
	email        string
	role         Role
	capabilities map[Capability]bool
	isActive     bool
	createdAt    time.Time
	updatedAt    time.Time
}

type Option func(*Membership)

func WithID(id uuid.UUID) Option {
	return func(m *Membership) {
		m.id = id
	}
}

func WithCapabilities(caps map[Capability]bool) Option {
	return func(m *Membership) {
		m.capabilities = caps
	}
}

func WithIsActive(active bool) Option {
	return func(m *Membership) {
		m.isActive = active
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(m *Membership) {
		m.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(m *Membership) {
		m.updatedAt = updatedAt
	}
}

func New(tenantID, userID uuid.UUID, email string, role Role, opts ...Option) *Membership {
	m := &Membership{
		id:           uuid.New(),
		tenantID:     tenantID,
		userID:       userID,
		email:        email,
		role:         role,
		capabilities: map[Capability]bool{},
		isActive:     true,
		createdAt:    time.Now(),
		updatedAt:    time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Membership) ID() uuid.UUID {
	return m.id
}

func (m *Membership) TenantID() uuid.UUID {
	return m.tenantID
}

func (m *Membership) UserID() uuid.UUID {
	return m.userID
}

func (m *Membership) Email() string {
	return m.email
}

func (m *Membership) Role() Role {
	return m.role
}

func (m *Membership) Capabilities() map[Capability]bool {
	return m.capabilities
}

func (m *Membership) HasCapability(c Capability) bool {
	return m.capabilities[c]
}

func (m *Membership) IsActive() bool {
	return m.isActive
}

func (m *Membership) CreatedAt() time.Time {
	return m.createdAt
}

func (m *Membership) UpdatedAt() time.Time {
	return m.updatedAt
}

func (m *Membership) SetRole(role Role) {
	m.role = role
	m.updatedAt = time.Now()
}

func (m *Membership) SetCapability(c Capability, enabled bool) {
	if m.capabilities == nil {
		m.capabilities = map[Capability]bool{}
	}
	m.capabilities[c] = enabled
	m.updatedAt = time.Now()
}

func (m *Membership) Deactivate() {
	m.isActive = false
	m.updatedAt = time.Now()
}
