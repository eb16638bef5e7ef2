package models

import (
	"database/sql"
	"time"
)

// Registry rows. All of these live in the shared public schema; none are
// ever created inside a tenant schema.

type Tenant struct {
	ID           string
	Name         string
	Slug         string
	SchemaName   string
	CustomDomain sql.NullString
	Status       string
	OwnerID      sql.NullString
	MaxUsers     int
	MaxStores    int
	Features     []byte
	TrialEndsAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type DomainBinding struct {
	ID        string
	TenantID  string
	Hostname  string
	IsPrimary bool
	CreatedAt time.Time
}

type Membership struct {
	ID           string
	TenantID     string
	UserID       string
	Email        string
	Role         string
	Capabilities []byte
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Invitation struct {
	ID           string
	TenantID     string
	Email        string
	Role         string
	Capabilities []byte
	Token        string
	InvitedBy    string
	ExpiresAt    time.Time
	AcceptedAt   sql.NullTime
	CreatedAt    time.Time
}

// Taxonomy is shared reference data, global across tenants on purpose.
type Taxonomy struct {
	ID        string
	Kind      string
	Code      string
	Label     string
	CreatedAt time.Time
}
