package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/linklocker/LinkLocker/app/controllers"
	"github.com/linklocker/LinkLocker/internal/pkg/middleware"
	"github.com/linklocker/LinkLocker/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Initialize link controller (object storage client)
	controllers.InitializeLinkController()

	h.registerPublicRoutes(app)
}

// registerPublicRoutes wires the unauthenticated surface: the visitor-facing
// gate and the payment processor callbacks.
func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Link access gate: anyone with the slug may knock.
	app.Get("/l/:id", controllers.HandleVisitLink)
	app.Post("/l/:id/unlock", controllers.HandleUnlockLink)

	// Payment processor callbacks; authenticated by signature, not session.
	app.Post("/webhooks/stripe", controllers.HandleCardWebhook)
	app.Post("/webhooks/coinbase", controllers.HandleCryptoWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
