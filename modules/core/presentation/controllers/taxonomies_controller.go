package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/taxonomy"
	"github.com/retailcloud/retail-sdk/modules/core/services"
	"github.com/retailcloud/retail-sdk/pkg/application"
	"github.com/retailcloud/retail-sdk/pkg/httpapi"
)

// TaxonomiesController serves shared reference data. The routes are on the
// public-path allowlist so they work without a resolved tenant.
type TaxonomiesController struct {
	app        application.Application
	taxonomies *services.TaxonomyService
	basePath   string
}

func NewTaxonomiesController(app application.Application) application.Controller {
	return &TaxonomiesController{
		app:        app,
		taxonomies: app.Service(services.TaxonomyService{}).(*services.TaxonomyService),
		basePath:   "/taxonomies",
	}
}

func (c *TaxonomiesController) Key() string {
	return c.basePath
}

func (c *TaxonomiesController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/{kind}", c.ListByKind).Methods(http.MethodGet)
	router.HandleFunc("/{kind}/{code}", c.GetByCode).Methods(http.MethodGet)
}

func taxonomyJSON(t *taxonomy.Taxonomy) map[string]any {
	return map[string]any{
		"id":    t.ID(),
		"kind":  string(t.Kind()),
		"code":  t.Code(),
		"label": t.Label(),
	}
}

func (c *TaxonomiesController) ListByKind(w http.ResponseWriter, r *http.Request) {
	entries, err := c.taxonomies.ListByKind(r.Context(), taxonomy.Kind(mux.Vars(r)["kind"]))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(entries))
	for _, t := range entries {
		out = append(out, taxonomyJSON(t))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *TaxonomiesController) GetByCode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	t, err := c.taxonomies.GetByCode(r.Context(), taxonomy.Kind(vars["kind"]), vars["code"])
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, taxonomyJSON(t))
}
