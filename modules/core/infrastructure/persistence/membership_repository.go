package persistence

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/core/domain/aggregates/membership"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/persistence/models"
	"github.com/retailcloud/retail-sdk/pkg/composables"
)

const (
	membershipFindQuery = `
		SELECT id, tenant_id, user_id, email, role, capabilities, is_active, created_at, updated_at
		FROM memberships`

	membershipInsertQuery = `
		INSERT INTO memberships (id, tenant_id, user_id, email, role, capabilities, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	membershipUpdateQuery = `
		UPDATE memberships
		SET email = $1, role = $2, capabilities = $3, is_active = $4, updated_at = $5
		WHERE id = $6`

	membershipCountActiveQuery = `
		SELECT COUNT(*) FROM memberships WHERE tenant_id = $1 AND is_active`
)

type PgMembershipRepository struct{}

func NewMembershipRepository() membership.Repository {
	return &PgMembershipRepository{}
}

func (r *PgMembershipRepository) GetByID(ctx context.Context, id uuid.UUID) (*membership.Membership, error) {
	return r.queryOne(ctx, membershipFindQuery+" WHERE id = $1", id.String())
}

func (r *PgMembershipRepository) GetActive(ctx context.Context, tenantID, userID uuid.UUID) (*membership.Membership, error) {
	return r.queryOne(
		ctx,
		membershipFindQuery+" WHERE tenant_id = $1 AND user_id = $2 AND is_active",
		tenantID.String(),
		userID.String(),
	)
}

func (r *PgMembershipRepository) GetByTenant(ctx context.Context, tenantID uuid.UUID) ([]*membership.Membership, error) {
	return r.queryMemberships(ctx, membershipFindQuery+" WHERE tenant_id = $1 ORDER BY created_at", tenantID.String())
}

func (r *PgMembershipRepository) Create(ctx context.Context, m *membership.Membership) (*membership.Membership, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	caps, err := json.Marshal(m.Capabilities())
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode membership capabilities")
	}
	if _, err := tx.Exec(
		ctx,
		membershipInsertQuery,
		m.ID().String(),
		m.TenantID().String(),
		m.UserID().String(),
		m.Email(),
		string(m.Role()),
		caps,
		m.IsActive(),
		m.CreatedAt(),
		m.UpdatedAt(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert membership")
	}
	return r.GetByID(ctx, m.ID())
}

func (r *PgMembershipRepository) Update(ctx context.Context, m *membership.Membership) (*membership.Membership, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	caps, err := json.Marshal(m.Capabilities())
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode membership capabilities")
	}
	if _, err := tx.Exec(
		ctx,
		membershipUpdateQuery,
		m.Email(),
		string(m.Role()),
		caps,
		m.IsActive(),
		m.UpdatedAt(),
		m.ID().String(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to update membership")
	}
	return r.GetByID(ctx, m.ID())
}

func (r *PgMembershipRepository) CountActiveByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, membershipCountActiveQuery, tenantID.String()).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count memberships")
	}
	return count, nil
}

func (r *PgMembershipRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*membership.Membership, error) {
	memberships, err := r.queryMemberships(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, membership.ErrNotFound
	}
	return memberships[0], nil
}

func (r *PgMembershipRepository) queryMemberships(ctx context.Context, query string, args ...interface{}) ([]*membership.Membership, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var memberships []*membership.Membership
	for rows.Next() {
		var row models.Membership
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.UserID,
			&row.Email,
			&row.Role,
			&row.Capabilities,
			&row.IsActive,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan membership row")
		}
		m, err := toDomainMembership(&row)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}
