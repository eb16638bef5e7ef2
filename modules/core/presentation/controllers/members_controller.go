package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/retailcloud/retail-sdk/modules/core/domain/aggregates/membership"
	"github.com/retailcloud/retail-sdk/modules/core/presentation/controllers/dtos"
	"github.com/retailcloud/retail-sdk/modules/core/services"
	"github.com/retailcloud/retail-sdk/pkg/application"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/httpapi"
)

type MembersController struct {
	app      application.Application
	members  *services.MembershipService
	basePath string
}

func NewMembersController(app application.Application) application.Controller {
	return &MembersController{
		app:      app,
		members:  app.Service(services.MembershipService{}).(*services.MembershipService),
		basePath: "/members",
	}
}

func (c *MembersController) Key() string {
	return c.basePath
}

func (c *MembersController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/invitations", c.Invite).Methods(http.MethodPost)
	router.HandleFunc("/invitations/accept", c.Accept).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.Deactivate).Methods(http.MethodDelete)
}

func membershipJSON(m *membership.Membership) map[string]any {
	caps := make([]string, 0, len(m.Capabilities()))
	for capability, enabled := range m.Capabilities() {
		if enabled {
			caps = append(caps, string(capability))
		}
	}
	return map[string]any{
		"id":           m.ID(),
		"user_id":      m.UserID(),
		"email":        m.Email(),
		"role":         string(m.Role()),
		"capabilities": caps,
		"active":       m.IsActive(),
	}
}

func (c *MembersController) List(w http.ResponseWriter, r *http.Request) {
	members, err := c.members.ListMembers(r.Context())
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(members))
	for _, m := range members {
		out = append(out, membershipJSON(m))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *MembersController) Invite(w http.ResponseWriter, r *http.Request) {
	var dto dtos.InviteMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	caps := make(map[membership.Capability]bool, len(dto.Capabilities))
	for name, enabled := range dto.Capabilities {
		caps[membership.Capability(name)] = enabled
	}

	inv, err := c.members.Invite(r.Context(), dto.Email, membership.Role(dto.Role), caps)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"token":      inv.Token(),
		"email":      inv.Email(),
		"role":       string(inv.Role()),
		"expires_at": inv.ExpiresAt(),
	})
}

func (c *MembersController) Accept(w http.ResponseWriter, r *http.Request) {
	var dto dtos.AcceptInvitationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}

	m, err := c.members.Accept(r.Context(), dto.Token, userID)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, membershipJSON(m))
}

func (c *MembersController) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid membership id", nil)
		return
	}
	if err := c.members.Deactivate(r.Context(), id); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}
