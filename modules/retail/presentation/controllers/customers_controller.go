package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/retailcloud/retail-sdk/modules/core/presentation/controllers/dtos"
	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/customer"
	"github.com/retailcloud/retail-sdk/modules/retail/services"
	"github.com/retailcloud/retail-sdk/pkg/application"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/httpapi"
)

const defaultPageSize = 50

type CustomersController struct {
	app       application.Application
	customers *services.CustomerService
	basePath  string
}

func NewCustomersController(app application.Application) application.Controller {
	return &CustomersController{
		app:       app,
		customers: app.Service(services.CustomerService{}).(*services.CustomerService),
		basePath:  "/customers",
	}
}

func (c *CustomersController) Key() string {
	return c.basePath
}

func (c *CustomersController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

func customerJSON(entity *customer.Customer) map[string]any {
	return map[string]any{
		"id":         entity.ID(),
		"name":       entity.Name(),
		"email":      entity.Email(),
		"phone":      entity.Phone(),
		"created_at": entity.CreatedAt(),
	}
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	return id, err == nil
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func (c *CustomersController) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	customers, err := c.customers.List(r.Context(), limit, offset)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(customers))
	for _, entity := range customers {
		out = append(out, customerJSON(entity))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *CustomersController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid customer id", nil)
		return
	}
	entity, err := c.customers.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, customerJSON(entity))
}

func (c *CustomersController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CreateCustomerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	tenantID, err := composables.UseTenantID(r.Context())
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}

	entity := customer.New(tenantID, dto.Name, dto.Email)
	entity.SetPhone(dto.Phone)
	created, err := c.customers.Create(r.Context(), entity)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, customerJSON(created))
}

func (c *CustomersController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid customer id", nil)
		return
	}
	if err := c.customers.Delete(r.Context(), id); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}
