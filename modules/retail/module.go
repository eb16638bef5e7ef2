package retail

import (
	"github.com/retailcloud/retail-sdk/modules/retail/infrastructure/persistence"
	"github.com/retailcloud/retail-sdk/modules/retail/presentation/controllers"
	"github.com/retailcloud/retail-sdk/modules/retail/services"
	"github.com/retailcloud/retail-sdk/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Name() string {
	return "retail"
}

func (m *Module) Register(app application.Application) error {
	customerRepo := persistence.NewCustomerRepository()
	productRepo := persistence.NewProductRepository()
	orderRepo := persistence.NewOrderRepository()

	app.RegisterServices(
		services.NewCustomerService(customerRepo, app.EventPublisher()),
		services.NewProductService(productRepo, app.EventPublisher()),
		services.NewOrderService(orderRepo, customerRepo, app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewCustomersController(app),
		controllers.NewProductsController(app),
		controllers.NewOrdersController(app),
	)
	return nil
}
