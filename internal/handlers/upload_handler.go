package handlers

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/services"
)

type UploadHandler struct {
	parser      services.DocumentParser
	maxFileSize int64
}

func NewUploadHandler(
	parser services.DocumentParser,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		parser:      parser,
		maxFileSize: maxFileSize,
	}
}

// HandleParse handles POST /parse: it extracts the sections of an uploaded
// brief without scoring them.
func (h *UploadHandler) HandleParse(c *fiber.Ctx) error {
	sections, status, msg := h.extractSections(c)
	if msg != "" {
		return c.Status(status).JSON(fiber.Map{
			"error": msg,
		})
	}

	return c.JSON(fiber.Map{
		"sections": sections,
	})
}

// extractSections returns the segmented brief, or an HTTP status and a
// message for the caller.
func (h *UploadHandler) extractSections(c *fiber.Ctx) (models.DocumentSections, int, string) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.StatusBadRequest, "No file uploaded. Please upload a .txt, .docx or .pdf brief in the 'file' field."
	}

	if file.Size > h.maxFileSize {
		return nil, fiber.StatusBadRequest, fmt.Sprintf("File too large. Max size: %d bytes", h.maxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !slices.Contains(services.SupportedExtensions, ext) {
		return nil, fiber.StatusBadRequest, fmt.Sprintf("Unsupported file type %q. Use .txt, .docx or .pdf", ext)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fiber.StatusInternalServerError, fmt.Sprintf("failed to open uploaded file: %v", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxFileSize+1))
	if err != nil {
		return nil, fiber.StatusInternalServerError, fmt.Sprintf("failed to read uploaded file: %v", err)
	}

	text, err := h.parser.Parse(file.Filename, data)
	if err != nil {
		return nil, fiber.StatusBadRequest, fmt.Sprintf("failed to extract text: %v", err)
	}

	sections := services.SegmentSections(text)
	if len(sections) == 0 {
		return nil, fiber.StatusBadRequest, "No recognised section headers found in document"
	}
	return sections, fiber.StatusOK, ""
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}
