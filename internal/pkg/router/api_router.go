package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/CodeFuMaster/TrustLoops/app/controllers"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))

	v1 := api.Group("/v1")

	// Public routes: registration plus the widget-key endpoints embedded on
	// customer sites.
	v1.Post("/auth/register", controllers.HandleRegister)
	v1.Post("/p/:widgetKey/testimonials", controllers.HandleSubmitTestimonial)
	v1.Post("/p/:widgetKey/subscribe", controllers.HandleStatusSubscribe)

	// Key-authenticated routes
	authed := v1.Group("", middleware.APIKeyAuthMiddleware())
	authed.Get("/account", controllers.HandleGetAccount)
	authed.Post("/account/api-key", controllers.HandleRotateAPIKey)

	authed.Post("/projects", controllers.HandleCreateProject)
	authed.Get("/projects", controllers.HandleListProjects)
	authed.Get("/projects/:id", controllers.HandleGetProject)
	authed.Patch("/projects/:id", controllers.HandleUpdateProject)
	authed.Delete("/projects/:id", controllers.HandleDeleteProject)

	authed.Get("/projects/:id/testimonials", controllers.HandleListTestimonials)
	authed.Patch("/projects/:id/testimonials/:tid", controllers.HandleModerateTestimonial)
	authed.Delete("/projects/:id/testimonials/:tid", controllers.HandleDeleteTestimonial)

	authed.Post("/projects/:id/incidents", controllers.HandleCreateIncident)
	authed.Get("/projects/:id/incidents", controllers.HandleListIncidents)
	authed.Patch("/projects/:id/incidents/:iid", controllers.HandleUpdateIncident)

	authed.Get("/ops/stats", middleware.RequireAdminMiddleware(), controllers.HandleOpsStats)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
