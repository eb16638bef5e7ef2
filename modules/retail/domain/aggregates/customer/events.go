package customer

import "github.com/google/uuid"

type CreatedEvent struct {
	TenantID   uuid.UUID
	CustomerID uuid.UUID
}
