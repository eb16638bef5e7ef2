package composables

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/retailcloud/retail-sdk/pkg/constants"
)

// ApplyTenantSchema selects the bound tenant's schema for the duration of
// the transaction. SET LOCAL reverts at commit or rollback, so the pooled
// connection is always checked back in with a neutral search_path; an
// unreset connection handed to the next request would be an isolation
// breach.
func ApplyTenantSchema(ctx context.Context, tx pgx.Tx) error {
	schema, err := UseSchemaName(ctx)
	if err != nil {
		return fmt.Errorf("tenant transaction requires tenant in context: %w", err)
	}
	quoted := pgx.Identifier{schema}.Sanitize()
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL search_path TO %s, public", quoted)); err != nil {
		return fmt.Errorf("failed to select tenant schema %s: %w", schema, err)
	}
	return nil
}

// InTenantTx runs fn inside a transaction confined to the bound tenant's
// schema. Reuses an existing transaction from the context after re-applying
// the schema selection.
func InTenantTx(ctx context.Context, fn func(context.Context) error) error {
	if v := ctx.Value(constants.TxKey); v != nil {
		if existing, ok := v.(pgx.Tx); ok {
			if err := ApplyTenantSchema(ctx, existing); err != nil {
				return err
			}
		}
		// A non-transactional executor cannot take SET LOCAL and is
		// assumed to be scoped already.
		return fn(ctx)
	}

	pool, err := UsePool(ctx)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}

	txCtx := WithTx(ctx, tx)
	if err := ApplyTenantSchema(txCtx, tx); err != nil {
		if rErr := tx.Rollback(ctx); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}

	if err := fn(txCtx); err != nil {
		if rErr := tx.Rollback(ctx); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func InTenantTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := InTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}
