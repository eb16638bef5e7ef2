package tenant

import "github.com/google/uuid"

// Events published after the surrounding transaction commits.

type CreatedEvent struct {
	TenantID   uuid.UUID
	Slug       string
	SchemaName string
}

type StatusChangedEvent struct {
	TenantID uuid.UUID
	Slug     string
	Old      Status
	New      Status
}

type ArchivedEvent struct {
	TenantID uuid.UUID
	Slug     string
}
