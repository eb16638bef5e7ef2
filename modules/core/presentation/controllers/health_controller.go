package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/retailcloud/retail-sdk/pkg/application"
	"github.com/retailcloud/retail-sdk/pkg/httpapi"
)

type HealthController struct {
	app application.Application
}

func NewHealthController(app application.Application) application.Controller {
	return &HealthController{app: app}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.Get).Methods(http.MethodGet)
}

func (c *HealthController) Get(w http.ResponseWriter, r *http.Request) {
	if err := c.app.Pool().Ping(r.Context()); err != nil {
		_ = httpapi.WriteError(w, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "database unreachable", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
