package dtos

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type CreateTenantDTO struct {
	Name    string    `json:"name" validate:"required,min=1,max=255"`
	Slug    string    `json:"slug" validate:"required,min=1,max=63"`
	OwnerID uuid.UUID `json:"owner_id" validate:"required"`
	Domain  string    `json:"domain" validate:"omitempty,fqdn"`
}

func (d *CreateTenantDTO) Ok() error {
	return validate.Struct(d)
}

type BindDomainDTO struct {
	Hostname string `json:"hostname" validate:"required,fqdn"`
	Primary  bool   `json:"primary"`
}

func (d *BindDomainDTO) Ok() error {
	return validate.Struct(d)
}

type InviteMemberDTO struct {
	Email        string          `json:"email" validate:"required,email"`
	Role         string          `json:"role" validate:"required,oneof=owner admin manager staff viewer"`
	Capabilities map[string]bool `json:"capabilities"`
}

func (d *InviteMemberDTO) Ok() error {
	return validate.Struct(d)
}

type AcceptInvitationDTO struct {
	Token string `json:"token" validate:"required,min=16"`
}

func (d *AcceptInvitationDTO) Ok() error {
	return validate.Struct(d)
}

type CreateCustomerDTO struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

func (d *CreateCustomerDTO) Ok() error {
	return validate.Struct(d)
}

type CreateProductDTO struct {
	SKU   string  `json:"sku" validate:"required,min=1,max=64"`
	Name  string  `json:"name" validate:"required,min=1,max=255"`
	Price float64 `json:"price" validate:"gte=0"`
}

func (d *CreateProductDTO) Ok() error {
	return validate.Struct(d)
}

type CreateOrderDTO struct {
	CustomerID uuid.UUID `json:"customer_id" validate:"required"`
	Total      float64   `json:"total" validate:"gte=0"`
}

func (d *CreateOrderDTO) Ok() error {
	return validate.Struct(d)
}
