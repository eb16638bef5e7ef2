package order

import "github.com/google/uuid"

type CreatedEvent struct {
	TenantID   uuid.UUID
	OrderID    uuid.UUID
	CustomerID uuid.UUID
}
