package product

import "github.com/google/uuid"

type CreatedEvent struct {
	TenantID  uuid.UUID
	ProductID uuid.UUID
	SKU       string
}
