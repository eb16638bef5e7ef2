package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/retailcloud/retail-sdk/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// statusByCode maps the tenancy error taxonomy to HTTP semantics. Inactive
// tenants (403) are deliberately distinct from expired trials (402) so
// billing rejections are never confused with suspensions.
var statusByCode = map[string]int{
	"TENANT_UNRESOLVED":             http.StatusNotFound,
	"TENANT_NOT_FOUND":              http.StatusNotFound,
	"TENANT_INACTIVE":               http.StatusForbidden,
	"TRIAL_EXPIRED":                 http.StatusPaymentRequired,
	"CROSS_TENANT_ACCESS_DENIED":    http.StatusForbidden,
	"FORBIDDEN":                     http.StatusForbidden,
	"MEMBERSHIP_NOT_FOUND":          http.StatusForbidden,
	"INVITATION_INVALID":            http.StatusGone,
	"INVITATION_NOT_FOUND":          http.StatusNotFound,
	"INVITATION_PENDING":            http.StatusConflict,
	"TENANT_INVALID_SLUG":           http.StatusUnprocessableEntity,
	"TENANT_SLUG_TAKEN":             http.StatusConflict,
	"TENANT_STILL_ACTIVE":           http.StatusConflict,
	"TENANT_CONTEXT_UNBOUND":        http.StatusUnauthorized,
	"USER_CONTEXT_UNBOUND":          http.StatusUnauthorized,
	"USER_QUOTA_EXCEEDED":           http.StatusConflict,
	"MEMBERSHIP_EXISTS":             http.StatusConflict,
	"DOMAIN_BINDING_NOT_FOUND":      http.StatusNotFound,
	"DOMAIN_BINDING_HOSTNAME_TAKEN": http.StatusConflict,
	"DOMAIN_BINDING_PRIMARY_EXISTS": http.StatusConflict,
	"PARTITION_OPERATION_FAILED":    http.StatusInternalServerError,
	"PARTITION_BUSY":                http.StatusConflict,
	"SCHEMA_JOB_NOT_FOUND":          http.StatusNotFound,
	"TAXONOMY_NOT_FOUND":            http.StatusNotFound,
	"CUSTOMER_NOT_FOUND":            http.StatusNotFound,
	"PRODUCT_NOT_FOUND":             http.StatusNotFound,
	"PRODUCT_SKU_TAKEN":             http.StatusConflict,
	"ORDER_NOT_FOUND":               http.StatusNotFound,
	"ORDER_CUSTOMER_MISSING":        http.StatusUnprocessableEntity,
}

// WriteDomainError renders a coded error with its mapped status; anything
// else is an internal error with no detail leaked.
func WriteDomainError(w http.ResponseWriter, err error) error {
	var base *serrors.Base
	if errors.As(err, &base) {
		status, ok := statusByCode[base.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		return WriteError(w, status, base.Code, base.Message, nil)
	}
	return WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
}
