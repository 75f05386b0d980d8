package http

import (
	"github.com/ajg707/laurx-portal/internal/application/groups"
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependencies for the router.
type RouterDeps struct {
	GroupUC   *groups.GroupUseCase
	FactsUC   *groups.CustomerFactsUseCase
	JWTSecret string
}

// Router registers the API routes. Everything under /api/admin requires an admin token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	admin := api.Group("/admin", AuthMiddleware(deps.JWTSecret), RequireRole("admin"))

	// Customer groups
	groupsRoute := admin.Group("/groups")
	groupHandler := NewGroupHandler(deps.GroupUC)
	groupsRoute.Post("/preview", groupHandler.Preview) // before /:id
	groupsRoute.Post("/", groupHandler.Create)
	groupsRoute.Get("/", groupHandler.List)
	groupsRoute.Get("/:id", groupHandler.GetByID)
	groupsRoute.Put("/:id", groupHandler.Update)
	groupsRoute.Delete("/:id", groupHandler.Delete)
	groupsRoute.Get("/:id/customers", groupHandler.Customers)
	groupsRoute.Post("/:id/customers", groupHandler.AddCustomers)
	groupsRoute.Delete("/:id/customers", groupHandler.RemoveCustomers)

	// Customers
	customers := admin.Group("/customers")
	customerHandler := NewCustomerHandler(deps.FactsUC)
	customers.Get("/:id/facts", customerHandler.Facts)
}
