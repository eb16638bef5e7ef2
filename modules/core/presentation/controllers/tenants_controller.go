package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/schema"
	"github.com/retailcloud/retail-sdk/modules/core/presentation/controllers/dtos"
	"github.com/retailcloud/retail-sdk/modules/core/services"
	"github.com/retailcloud/retail-sdk/pkg/application"
	"github.com/retailcloud/retail-sdk/pkg/httpapi"
)

// TenantsController is the operator surface for the tenant registry and the
// schema lifecycle. It deliberately sits outside tenant scoping: every
// route works on explicitly named tenants.
type TenantsController struct {
	app      application.Application
	tenants  *services.TenantService
	schemas  *schema.Manager
	runner   *schema.Runner
	basePath string
}

func NewTenantsController(app application.Application, schemas *schema.Manager, runner *schema.Runner) application.Controller {
	return &TenantsController{
		app:      app,
		tenants:  app.Service(services.TenantService{}).(*services.TenantService),
		schemas:  schemas,
		runner:   runner,
		basePath: "/admin/tenants",
	}
}

func (c *TenantsController) Key() string {
	return c.basePath
}

func (c *TenantsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}/activate", c.Activate).Methods(http.MethodPost)
	router.HandleFunc("/{id}/suspend", c.Suspend).Methods(http.MethodPost)
	router.HandleFunc("/{id}/archive", c.Archive).Methods(http.MethodPost)
	router.HandleFunc("/{id}/stats", c.Stats).Methods(http.MethodGet)
	router.HandleFunc("/{id}/domains", c.BindDomain).Methods(http.MethodPost)
	router.HandleFunc("/{id}/backups", c.EnqueueBackup).Methods(http.MethodPost)
	router.HandleFunc("/domains/{id}", c.UnbindDomain).Methods(http.MethodDelete)
	router.HandleFunc("/jobs/{id}", c.JobStatus).Methods(http.MethodGet)
}

func tenantJSON(t *tenant.Tenant) map[string]any {
	return map[string]any{
		"id":            t.ID(),
		"name":          t.Name(),
		"slug":          t.Slug(),
		"schema_name":   t.SchemaName(),
		"custom_domain": t.CustomDomain(),
		"status":        string(t.Status()),
		"trial_ends_at": t.TrialEndsAt(),
		"created_at":    t.CreatedAt(),
	}
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	return id, err == nil
}

func (c *TenantsController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CreateTenantDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	created, err := c.tenants.Create(r.Context(), dto.Name, dto.Slug, dto.OwnerID)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	if dto.Domain != "" {
		if _, err := c.tenants.BindDomain(r.Context(), created.ID(), dto.Domain, true); err != nil {
			_ = httpapi.WriteDomainError(w, err)
			return
		}
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, tenantJSON(created))
}

func (c *TenantsController) List(w http.ResponseWriter, r *http.Request) {
	params := &tenant.FindParams{}
	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = tenant.Status(status)
	}
	tenants, err := c.tenants.List(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, tenantJSON(t))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *TenantsController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid tenant id", nil)
		return
	}
	t, err := c.tenants.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, tenantJSON(t))
}

func (c *TenantsController) Activate(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.tenants.Activate)
}

func (c *TenantsController) Suspend(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.tenants.Suspend)
}

func (c *TenantsController) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid tenant id", nil)
		return
	}
	t, err := fn(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, tenantJSON(t))
}

func (c *TenantsController) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid tenant id", nil)
		return
	}
	if err := c.tenants.Archive(r.Context(), id); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"status": "archived"})
}

func (c *TenantsController) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid tenant id", nil)
		return
	}
	t, err := c.tenants.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	stats, err := c.schemas.SchemaStats(r.Context(), t.SchemaName())
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"schema":      stats.Schema,
		"table_count": stats.TableCount,
		"total_bytes": stats.TotalBytes,
	})
}

func (c *TenantsController) BindDomain(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid tenant id", nil)
		return
	}
	var dto dtos.BindDomainDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	binding, err := c.tenants.BindDomain(r.Context(), id, dto.Hostname, dto.Primary)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":       binding.ID(),
		"hostname": binding.Hostname(),
		"primary":  binding.IsPrimary(),
	})
}

func (c *TenantsController) UnbindDomain(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid binding id", nil)
		return
	}
	if err := c.tenants.UnbindDomain(r.Context(), id); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *TenantsController) EnqueueBackup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid tenant id", nil)
		return
	}
	t, err := c.tenants.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	job, err := c.runner.Enqueue(schema.JobBackup, t.SchemaName(), "")
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusAccepted, jobJSON(job))
}

func (c *TenantsController) JobStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid job id", nil)
		return
	}
	job, err := c.runner.Status(id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, jobJSON(job))
}

func jobJSON(job *schema.Job) map[string]any {
	out := map[string]any{
		"id":       job.ID,
		"kind":     string(job.Kind),
		"schema":   job.Schema,
		"status":   string(job.Status),
		"enqueued": job.EnqueuedAt,
	}
	if job.Artifact != "" {
		out["artifact"] = job.Artifact
	}
	if job.Error != "" {
		out["error"] = job.Error
	}
	if !job.FinishedAt.IsZero() {
		out["finished"] = job.FinishedAt
	}
	return out
}
