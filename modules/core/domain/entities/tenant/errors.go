package tenant

import "github.com/retailcloud/retail-sdk/pkg/serrors"

var (
	ErrNotFound     = serrors.NewError("TENANT_NOT_FOUND", "tenant not found", "")
	ErrInvalidSlug  = serrors.NewError("TENANT_INVALID_SLUG", "invalid tenant slug", "")
	ErrSlugTaken    = serrors.NewError("TENANT_SLUG_TAKEN", "tenant slug already in use", "")
	ErrUnresolved   = serrors.NewError("TENANT_UNRESOLVED", "no tenant identifiable for request", "")
	ErrInactive     = serrors.NewError("TENANT_INACTIVE", "tenant is not active", "")
	ErrTrialExpired = serrors.NewError("TRIAL_EXPIRED", "tenant trial period has elapsed", "")
)
