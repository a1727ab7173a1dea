package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Evaluate *EvaluationHandler
	Upload   *UploadHandler
	Result   *ResultHandler
	Health   *HealthHandler
}

// Register mounts every route at the root and again under /api.
func Register(app *fiber.App, h Handlers) {
	mount(app, h)
	mount(app.Group("/api"), h)

	app.Get("/health", h.Health.HandleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func mount(r fiber.Router, h Handlers) {
	r.Get("/test", h.Health.HandleTest)
	r.Get("/test-openai", h.Health.HandleTestProvider)
	r.Get("/sections", h.Health.HandleSections)
	r.Post("/evaluate-section", h.Evaluate.HandleEvaluateSection)
	r.Post("/evaluate", h.Evaluate.HandleEvaluate)
	r.Post("/parse", h.Upload.HandleParse)
	r.Post("/export", h.Result.HandleExport)
}
