package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/retailcloud/retail-sdk/modules/core/presentation/controllers/dtos"
	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/product"
	"github.com/retailcloud/retail-sdk/modules/retail/services"
	"github.com/retailcloud/retail-sdk/pkg/application"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/httpapi"
)

type ProductsController struct {
	app      application.Application
	products *services.ProductService
	basePath string
}

func NewProductsController(app application.Application) application.Controller {
	return &ProductsController{
		app:      app,
		products: app.Service(services.ProductService{}).(*services.ProductService),
		basePath: "/products",
	}
}

func (c *ProductsController) Key() string {
	return c.basePath
}

func (c *ProductsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

func productJSON(entity *product.Product) map[string]any {
	return map[string]any{
		"id":         entity.ID(),
		"sku":        entity.SKU(),
		"name":       entity.Name(),
		"price":      entity.Price(),
		"created_at": entity.CreatedAt(),
	}
}

func (c *ProductsController) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	products, err := c.products.List(r.Context(), limit, offset)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(products))
	for _, entity := range products {
		out = append(out, productJSON(entity))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *ProductsController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid product id", nil)
		return
	}
	entity, err := c.products.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, productJSON(entity))
}

func (c *ProductsController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CreateProductDTO
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

	created, err := c.products.Create(r.Context(), product.New(tenantID, dto.SKU, dto.Name, dto.Price))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, productJSON(created))
}

func (c *ProductsController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid product id", nil)
		return
	}
	if err := c.products.Delete(r.Context(), id); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}
