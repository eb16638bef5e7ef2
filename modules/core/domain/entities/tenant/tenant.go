package tenant

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusInactive  Status = "inactive"
	StatusArchived  Status = "archived"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusSuspended, StatusInactive, StatusArchived:
		return true
	}
	return false
}

// Usable reports whether requests may be served for a tenant in this status.
// Trial tenants are usable until their trial window elapses, which is checked
// separately against TrialEndsAt.
func (s Status) Usable() bool {
	return s == StatusActive || s == StatusTrial
}

type Quotas struct {
	MaxUsers  int
	MaxStores int
}

type Tenant struct {
	id           uuid.UUID
	name         string
	slug         string
	schemaName   string
	customDomain string
	status       Status
	ownerID      uuid.UUID
	quotas       Quotas
	features     map[string]bool
	trialEndsAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

type Option func(*Tenant)

func WithID(id uuid.UUID) Option {
	return func(t *Tenant) {
		t.id = id
	}
}

func WithCustomDomain(domain string) Option {
	return func(t *Tenant) {
		t.customDomain = domain
	}
}

func WithStatus(status Status) Option {
	return func(t *Tenant) {
		t.status = status
	}
}

func WithOwnerID(ownerID uuid.UUID) Option {
	return func(t *Tenant) {
		t.ownerID = ownerID
	}
}

func WithQuotas(q Quotas) Option {
	return func(t *Tenant) {
		t.quotas = q
	}
}

func WithFeatures(features map[string]bool) Option {
	return func(t *Tenant) {
		t.features = features
	}
}

func WithTrialEndsAt(at *time.Time) Option {
	return func(t *Tenant) {
		t.trialEndsAt = at
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(t *Tenant) {
		t.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(t *Tenant) {
		t.updatedAt = updatedAt
	}
}

// New builds a tenant from its name and slug. The schema name is derived from
// the slug exactly once here; the slug is immutable afterwards because the
// physical schema is named after it.
func New(name, slug string, opts ...Option) (*Tenant, error) {
	schemaName, err := DeriveSchemaName(slug)
	if err != nil {
		return nil, err
	}
	t := &Tenant{
		id:         uuid.New(),
		name:       name,
		slug:       slug,
		schemaName: schemaName,
		status:     StatusTrial,
		features:   map[string]bool{},
		createdAt:  time.Now(),
		updatedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Tenant) ID() uuid.UUID {
	return t.id
}

func (t *Tenant) Name() string {
	return t.name
}

func (t *Tenant) Slug() string {
	return t.slug
}

func (t *Tenant) SchemaName() string {
	return t.schemaName
}

func (t *Tenant) CustomDomain() string {
	return t.customDomain
}

func (t *Tenant) Status() Status {
	return t.status
}

func (t *Tenant) OwnerID() uuid.UUID {
	return t.ownerID
}

func (t *Tenant) Quotas() Quotas {
	return t.quotas
}

func (t *Tenant) Features() map[string]bool {
	return t.features
}

func (t *Tenant) Feature(name string) bool {
	return t.features[name]
}

func (t *Tenant) TrialEndsAt() *time.Time {
	return t.trialEndsAt
}

func (t *Tenant) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Tenant) UpdatedAt() time.Time {
	return t.updatedAt
}

// TrialExpired reports whether a trial tenant is past its trial window.
func (t *Tenant) TrialExpired(now time.Time) bool {
	return t.status == StatusTrial && t.trialEndsAt != nil && now.After(*t.trialEndsAt)
}

func (t *Tenant) SetName(name string) {
	t.name = name
	t.updatedAt = time.Now()
}

func (t *Tenant) SetCustomDomain(domain string) {
	t.customDomain = domain
	t.updatedAt = time.Now()
}

func (t *Tenant) SetStatus(status Status) {
	t.status = status
	t.updatedAt = time.Now()
}

func (t *Tenant) SetFeature(name string, enabled bool) {
	if t.features == nil {
		t.features = map[string]bool{}
	}
	t.features[name] = enabled
	t.updatedAt = time.Now()
}
