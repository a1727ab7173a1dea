package services

import (
	"strings"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/registry"
)

// SegmentSections splits brief text into sections by recognised header
// lines. Text before the first header is dropped and unknown headers are
// treated as content. A header that appears again continues its section.
func SegmentSections(text string) models.DocumentSections {
	sections := models.DocumentSections{}
	bodies := map[string]*strings.Builder{}

	current := ""
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if id, ok := registry.MatchHeader(line); ok {
			current = id
			if _, ok := bodies[id]; !ok {
				bodies[id] = &strings.Builder{}
			}
			continue
		}
		if current == "" {
			continue
		}
		b := bodies[current]
		b.WriteString(line)
		b.WriteString("\n")
	}

	for id, b := range bodies {
		sections[id] = strings.TrimSpace(b.String())
	}
	return sections
}
