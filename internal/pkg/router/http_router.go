package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/CodeFuMaster/TrustLoops/app/controllers"
)

type HttpRouter struct {
}

// InstallRouter registers the unauthenticated surface: the billing webhook
// endpoint and health check. Webhook auth is the HMAC signature, never an
// API key.
func (h HttpRouter) InstallRouter(app *fiber.App) {
	webhooks := controllers.NewWebhookControllerFromEnv()
	app.Post("/webhooks/billing", webhooks.HandleBillingWebhook)

	app.Get("/api/v1/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
