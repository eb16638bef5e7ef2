package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/retailcloud/retail-sdk/modules/core/presentation/controllers/dtos"
	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/order"
	"github.com/retailcloud/retail-sdk/modules/retail/services"
	"github.com/retailcloud/retail-sdk/pkg/application"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/httpapi"
)

type OrdersController struct {
	app      application.Application
	orders   *services.OrderService
	basePath string
}

func NewOrdersController(app application.Application) application.Controller {
	return &OrdersController{
		app:      app,
		orders:   app.Service(services.OrderService{}).(*services.OrderService),
		basePath: "/orders",
	}
}

func (c *OrdersController) Key() string {
	return c.basePath
}

func (c *OrdersController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}/status", c.SetStatus).Methods(http.MethodPost)
}

func orderJSON(entity *order.Order) map[string]any {
	return map[string]any{
		"id":          entity.ID(),
		"customer_id": entity.CustomerID(),
		"status":      string(entity.Status()),
		"total":       entity.Total(),
		"created_at":  entity.CreatedAt(),
	}
}

func (c *OrdersController) List(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid customer id", nil)
			return
		}
		orders, err := c.orders.ListByCustomer(r.Context(), customerID)
		if err != nil {
			_ = httpapi.WriteDomainError(w, err)
			return
		}
		c.writeList(w, orders)
		return
	}

	limit, offset := pagination(r)
	orders, err := c.orders.List(r.Context(), limit, offset)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	c.writeList(w, orders)
}

func (c *OrdersController) writeList(w http.ResponseWriter, orders []*order.Order) {
	out := make([]map[string]any, 0, len(orders))
	for _, entity := range orders {
		out = append(out, orderJSON(entity))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *OrdersController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid order id", nil)
		return
	}
	entity, err := c.orders.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, orderJSON(entity))
}

func (c *OrdersController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CreateOrderDTO
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

	created, err := c.orders.Create(r.Context(), order.New(tenantID, dto.CustomerID, dto.Total))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, orderJSON(created))
}

func (c *OrdersController) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid order id", nil)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	switch order.Status(body.Status) {
	case order.StatusPending, order.StatusPaid, order.StatusCancelled:
	default:
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "unknown order status", nil)
		return
	}
	entity, err := c.orders.SetStatus(r.Context(), id, order.Status(body.Status))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, orderJSON(entity))
}
