package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/linklocker/LinkLocker/app/controllers"
	"github.com/linklocker/LinkLocker/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Session bootstrap
	v1.Post("/auth/register", controllers.HandleRegister)
	v1.Post("/auth/login", controllers.HandleLogin)
	v1.Post("/auth/logout", controllers.HandleLogout)

	// Plan catalog is public; the pricing page needs it before login.
	v1.Get("/plans", controllers.HandleListPlans)

	// Everything registered below requires a session.
	v1.Use(middleware.RequireAPISessionAuth)
	v1.Get("/me", controllers.HandleMe)
	v1.Get("/me/entitlement", controllers.HandleGetEntitlement)
	v1.Get("/me/transactions", controllers.HandleListTransactions)
	v1.Post("/plans/select", controllers.HandleSelectPlan)
	v1.Post("/links", controllers.HandleCreateLink)
	v1.Get("/links", controllers.HandleListLinks)
	v1.Get("/links/stats", controllers.HandleLinkStats)
	v1.Delete("/links/:id", controllers.HandleDeleteLink)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
