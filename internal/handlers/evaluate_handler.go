package handlers

import (
	"errors"

	"github.com/chainguard-dev/clog"
	"github.com/gofiber/fiber/v2"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/registry"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/services"
)

type EvaluationHandler struct {
	evaluator services.EvaluatorService
	uploads   *UploadHandler
}

func NewEvaluationHandler(
	evaluator services.EvaluatorService,
	uploads *UploadHandler,
) *EvaluationHandler {
	return &EvaluationHandler{
		evaluator: evaluator,
		uploads:   uploads,
	}
}

// HandleEvaluateSection handles POST /evaluate-section
func (h *EvaluationHandler) HandleEvaluateSection(c *fiber.Ctx) error {
	var req models.EvaluateSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if req.Section == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing section or content",
		})
	}

	ctx := c.UserContext()
	log := clog.FromContext(ctx).With("section", req.Section)

	verdict, err := h.evaluator.JudgeSection(ctx, req.Section, req.Content)
	switch {
	case err == nil:
		log.Info("Section evaluated")
		return c.JSON(verdict)
	case errors.Is(err, registry.ErrSectionNotFound), errors.Is(err, services.ErrNotJudged):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid section type",
		})
	default:
		log.With("error", err).Error("Evaluation error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to evaluate content",
			"details": err.Error(),
			"section": req.Section,
		})
	}
}

// HandleEvaluate handles POST /evaluate. It accepts either a multipart
// upload in the "file" field or a JSON body of pre-split sections.
func (h *EvaluationHandler) HandleEvaluate(c *fiber.Ctx) error {
	var sections models.DocumentSections

	if isMultipart(c) {
		extracted, status, msg := h.uploads.extractSections(c)
		if msg != "" {
			return c.Status(status).JSON(fiber.Map{
				"error": msg,
			})
		}
		sections = extracted
	} else {
		var req models.EvaluateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request payload",
			})
		}
		if len(req.Sections) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "sections is required",
			})
		}
		for id := range req.Sections {
			if _, err := registry.Lookup(id); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid section type: " + id,
				})
			}
		}
		sections = req.Sections
	}

	report := h.evaluator.Evaluate(c.UserContext(), sections)
	return c.JSON(report)
}
