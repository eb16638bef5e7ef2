package taxonomy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/pkg/serrors"
)

var ErrNotFound = serrors.NewError("TAXONOMY_NOT_FOUND", "taxonomy entry not found", "")

// Kind groups taxonomy entries. Taxonomies are platform-wide reference data
// shared by every tenant; they are read from the public schema regardless of
// which tenant is bound to the request.
type Kind string

const (
	KindProductCategory Kind = "product_category"
	KindCurrency        Kind = "currency"
	KindCountry         Kind = "country"
)

type Taxonomy struct {
	id        uuid.UUID
	kind      Kind
	code      string
	label     string
	createdAt time.Time
}

type Option func(t *Taxonomy)

func WithID(id uuid.UUID) Option {
	return func(t *Taxonomy) {
		t.id = id
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(t *Taxonomy) {
		t.createdAt = createdAt
	}
}

func New(kind Kind, code, label string, opts ...Option) *Taxonomy {
	t := &Taxonomy{
		id:        uuid.New(),
		kind:      kind,
		code:      code,
		label:     label,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Taxonomy) ID() uuid.UUID {
	return t.id
}

func (t *Taxonomy) Kind() Kind {
	return t.kind
}

func (t *Taxonomy) Code() string {
	return t.code
}

func (t *Taxonomy) Label() string {
	return t.label
}

func (t *Taxonomy) CreatedAt() time.Time {
	return t.createdAt
}

type Repository interface {
	GetByCode(ctx context.Context, kind Kind, code string) (*Taxonomy, error)
	ListByKind(ctx context.Context, kind Kind) ([]*Taxonomy, error)
	Create(ctx context.Context, t *Taxonomy) (*Taxonomy, error)
}
