package services

import (
	"context"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/taxonomy"
	"github.com/retailcloud/retail-sdk/pkg/composables"
)

// TaxonomyService reads the platform-wide reference data that lives in the
// public schema. It never participates in tenant scoping.
type TaxonomyService struct {
	repo taxonomy.Repository
}

func NewTaxonomyService(repo taxonomy.Repository) *TaxonomyService {
	return &TaxonomyService{repo: repo}
}

func (s *TaxonomyService) ListByKind(ctx context.Context, kind taxonomy.Kind) ([]*taxonomy.Taxonomy, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]*taxonomy.Taxonomy, error) {
		return s.repo.ListByKind(txCtx, kind)
	})
}

func (s *TaxonomyService) GetByCode(ctx context.Context, kind taxonomy.Kind, code string) (*taxonomy.Taxonomy, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*taxonomy.Taxonomy, error) {
		return s.repo.GetByCode(txCtx, kind, code)
	})
}

func (s *TaxonomyService) Create(ctx context.Context, t *taxonomy.Taxonomy) (*taxonomy.Taxonomy, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*taxonomy.Taxonomy, error) {
		return s.repo.Create(txCtx, t)
	})
}
