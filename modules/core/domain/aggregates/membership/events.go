package membership

import "github.com/google/uuid"

type InvitedEvent struct {
	TenantID uuid.UUID
	Email    string
	Role     Role
}

type JoinedEvent struct {
	TenantID     uuid.UUID
	MembershipID uuid.UUID
	UserID       uuid.UUID
	Role         Role
}

type DeactivatedEvent struct {
	TenantID     uuid.UUID
	MembershipID uuid.UUID
	UserID       uuid.UUID
}
