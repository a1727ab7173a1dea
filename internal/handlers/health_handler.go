package handlers

import (
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/gofiber/fiber/v2"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/registry"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/services"
)

type HealthHandler struct {
	judge         services.Judge
	rubricVersion string
}

func NewHealthHandler(judge services.Judge, rubricVersion string) *HealthHandler {
	return &HealthHandler{
		judge:         judge,
		rubricVersion: rubricVersion,
	}
}

// HandleTest handles GET /test
func (h *HealthHandler) HandleTest(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "API is working!",
	})
}

// HandleTestProvider handles GET /test-openai. The route name is kept for
// existing clients; it smoke-tests whichever provider is configured.
func (h *HealthHandler) HandleTestProvider(c *fiber.Ctx) error {
	message, err := h.judge.Ping(c.UserContext())
	if err != nil {
		clog.FromContext(c.UserContext()).With("provider", h.judge.Provider(), "error", err).Error("Provider smoke test failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

// HandleHealth handles GET /health
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"provider":       h.judge.Provider(),
		"model":          h.judge.Model(),
		"rubric_version": h.rubricVersion,
		"time":           time.Now(),
	})
}

// HandleSections handles GET /sections
func (h *HealthHandler) HandleSections(c *fiber.Ctx) error {
	defs := registry.All()
	resp := models.SectionsResponse{
		RubricVersion:  h.rubricVersion,
		TotalMaxPoints: registry.TotalMaxPoints(),
		Sections:       make([]models.SectionInfo, 0, len(defs)),
	}
	for _, def := range defs {
		resp.Sections = append(resp.Sections, models.SectionInfo{
			SectionDefinition: def,
			Aliases:           def.Headers,
		})
	}
	return c.JSON(resp)
}
