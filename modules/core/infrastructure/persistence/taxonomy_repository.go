package persistence

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/taxonomy"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/persistence/models"
	"github.com/retailcloud/retail-sdk/pkg/composables"
)

const (
	taxonomyFindQuery = `
		SELECT id, kind, code, label, created_at
		FROM taxonomies`

	taxonomyInsertQuery = `
		INSERT INTO taxonomies (id, kind, code, label, created_at)
		VALUES ($1, $2, $3, $4, $5)`
)

// PgTaxonomyRepository reads shared reference data. It always queries the
// public schema tables and never participates in tenant scoping.
type PgTaxonomyRepository struct{}

func NewTaxonomyRepository() taxonomy.Repository {
	return &PgTaxonomyRepository{}
}

func (r *PgTaxonomyRepository) GetByCode(ctx context.Context, kind taxonomy.Kind, code string) (*taxonomy.Taxonomy, error) {
	entries, err := r.queryEntries(ctx, taxonomyFindQuery+" WHERE kind = $1 AND code = $2", string(kind), code)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, taxonomy.ErrNotFound
	}
	return entries[0], nil
}

func (r *PgTaxonomyRepository) ListByKind(ctx context.Context, kind taxonomy.Kind) ([]*taxonomy.Taxonomy, error) {
	return r.queryEntries(ctx, taxonomyFindQuery+" WHERE kind = $1 ORDER BY code", string(kind))
}

func (r *PgTaxonomyRepository) Create(ctx context.Context, t *taxonomy.Taxonomy) (*taxonomy.Taxonomy, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		taxonomyInsertQuery,
		t.ID().String(),
		string(t.Kind()),
		t.Code(),
		t.Label(),
		t.CreatedAt(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert taxonomy entry")
	}
	return r.GetByCode(ctx, t.Kind(), t.Code())
}

func (r *PgTaxonomyRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*taxonomy.Taxonomy, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var entries []*taxonomy.Taxonomy
	for rows.Next() {
		var row models.Taxonomy
		if err := rows.Scan(&row.ID, &row.Kind, &row.Code, &row.Label, &row.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan taxonomy row")
		}
		entry, err := toDomainTaxonomy(&row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
