package models

import (
	"database/sql"
	"time"
)

// Rows that live inside each tenant's schema. The queries never name the
// schema; search_path set by the surrounding tenant transaction selects it.

type Customer struct {
	ID        string
	TenantID  string
	Name      string
	Email     string
	Phone     sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID        string
	TenantID  string
	SKU       string
	Name      string
	Price     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID         string
	TenantID   string
	CustomerID string
	Status     string
	Total      float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
