package persistence

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/customer"
	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/order"
	"github.com/retailcloud/retail-sdk/modules/retail/domain/aggregates/product"
	"github.com/retailcloud/retail-sdk/modules/retail/infrastructure/persistence/models"
	"github.com/retailcloud/retail-sdk/pkg/mapping"
)

func toDomainCustomer(row *models.Customer) (*customer.Customer, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid customer id")
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid customer tenant id")
	}
	return customer.New(
		tenantID,
		row.Name,
		row.Email,
		customer.WithID(id),
		customer.WithPhone(mapping.SQLNullStringToValue(row.Phone)),
		customer.WithCreatedAt(row.CreatedAt),
		customer.WithUpdatedAt(row.UpdatedAt),
	), nil
}

func toDomainProduct(row *models.Product) (*product.Product, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid product id")
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid product tenant id")
	}
	return product.New(
		tenantID,
		row.SKU,
		row.Name,
		row.Price,
		product.WithID(id),
		product.WithCreatedAt(row.CreatedAt),
		product.WithUpdatedAt(row.UpdatedAt),
	), nil
}

func toDomainOrder(row *models.Order) (*order.Order, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order id")
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order tenant id")
	}
	customerID, err := uuid.Parse(row.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order customer id")
	}
	return order.New(
		tenantID,
		customerID,
		row.Total,
		order.WithID(id),
		order.WithStatus(order.Status(row.Status)),
		order.WithCreatedAt(row.CreatedAt),
		order.WithUpdatedAt(row.UpdatedAt),
	), nil
}
