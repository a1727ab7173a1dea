package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/services"
)

type ResultHandler struct{}

func NewResultHandler() *ResultHandler {
	return &ResultHandler{}
}

// HandleExport handles POST /export?format=json|html
func (h *ResultHandler) HandleExport(c *fiber.Ctx) error {
	format, err := services.ParseExportFormat(c.Query("format", "json"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var report models.AggregateReport
	if err := c.BodyParser(&report); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid report payload",
		})
	}
	if len(report.Sections) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Report has no sections",
		})
	}

	var buf bytes.Buffer
	if err := services.Export(&buf, &report, format); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="experiment-evaluation%s"`, format.Extension()))
	return c.Send(buf.Bytes())
}
