package persistence

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/invitation"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/persistence/models"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/mapping"
)

const (
	invitationFindQuery = `
		SELECT id, tenant_id, email, role, capabilities, token, invited_by,
		       expires_at, accepted_at, created_at
		FROM invitations`

	invitationInsertQuery = `
		INSERT INTO invitations (id, tenant_id, email, role, capabilities, token, invited_by,
		                         expires_at, accepted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	invitationUpdateQuery = `
		UPDATE invitations
		SET expires_at = $1, accepted_at = $2
		WHERE id = $3`
)

type PgInvitationRepository struct{}

func NewInvitationRepository() invitation.Repository {
	return &PgInvitationRepository{}
}

func (r *PgInvitationRepository) GetByToken(ctx context.Context, token string) (*invitation.Invitation, error) {
	return r.queryOne(ctx, invitationFindQuery+" WHERE token = $1", token)
}

func (r *PgInvitationRepository) GetPending(ctx context.Context, tenantID uuid.UUID, email string) (*invitation.Invitation, error) {
	return r.queryOne(
		ctx,
		invitationFindQuery+" WHERE tenant_id = $1 AND email = $2 AND accepted_at IS NULL AND expires_at > NOW()",
		tenantID.String(),
		email,
	)
}

func (r *PgInvitationRepository) Create(ctx context.Context, inv *invitation.Invitation) (*invitation.Invitation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	caps, err := json.Marshal(inv.Capabilities())
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode invitation capabilities")
	}
	if _, err := tx.Exec(
		ctx,
		invitationInsertQuery,
		inv.ID().String(),
		inv.TenantID().String(),
		inv.Email(),
		string(inv.Role()),
		caps,
		inv.Token(),
		inv.InvitedBy().String(),
		inv.ExpiresAt(),
		mapping.PointerToSQLNullTime(inv.AcceptedAt()),
		inv.CreatedAt(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert invitation")
	}
	return r.GetByToken(ctx, inv.Token())
}

func (r *PgInvitationRepository) Update(ctx context.Context, inv *invitation.Invitation) (*invitation.Invitation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		invitationUpdateQuery,
		inv.ExpiresAt(),
		mapping.PointerToSQLNullTime(inv.AcceptedAt()),
		inv.ID().String(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to update invitation")
	}
	return r.GetByToken(ctx, inv.Token())
}

func (r *PgInvitationRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*invitation.Invitation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, invitation.ErrNotFound
	}

	var row models.Invitation
	if err := rows.Scan(
		&row.ID,
		&row.TenantID,
		&row.Email,
		&row.Role,
		&row.Capabilities,
		&row.Token,
		&row.InvitedBy,
		&row.ExpiresAt,
		&row.AcceptedAt,
		&row.CreatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan invitation row")
	}
	return toDomainInvitation(&row)
}
