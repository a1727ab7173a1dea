package services

import (
	"fmt"
	"strings"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/rubrics"
)

// PromptBuilder renders judge requests from the rubric catalog.
type PromptBuilder struct {
	catalog *rubrics.Catalog
}

func NewPromptBuilder(catalog *rubrics.Catalog) *PromptBuilder {
	return &PromptBuilder{catalog: catalog}
}

// BuildSectionPrompt appends the content under evaluation to the section's rubric.
func (pb *PromptBuilder) BuildSectionPrompt(sectionID, content string) (string, error) {
	rubric, err := pb.catalog.PromptFor(sectionID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`%s

Content to evaluate:
%s`, rubric, strings.TrimSpace(content)), nil
}

func (pb *PromptBuilder) SystemInstruction() string {
	return pb.catalog.SystemInstruction()
}

func (pb *PromptBuilder) RubricVersion() string {
	return pb.catalog.Version()
}
