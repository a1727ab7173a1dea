package services

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/invopop/jsonschema"
	"google.golang.org/genai"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
)

// VerdictSchema declares the evaluate_section parameters for a section.
// Both backends derive their wire schema from it.
func VerdictSchema(def models.SectionDefinition) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("score", &jsonschema.Schema{
		Type:        "number",
		Description: fmt.Sprintf("Score (0-%d)", def.MaxPoints),
		Minimum:     json.Number("0"),
		Maximum:     json.Number(strconv.Itoa(def.MaxPoints)),
	})

	if def.Mode == models.ModeLLMBinary2Pt {
		props.Set("reason", &jsonschema.Schema{Type: "string", Description: "Brief explanation of the score"})
		props.Set("evidence", &jsonschema.Schema{Type: "string", Description: "Short quote or excerpt from the evaluated text"})
		props.Set("recommendation", &jsonschema.Schema{Type: "string", Description: "Suggestion for improvement if needed"})
		return &jsonschema.Schema{
			Type:       "object",
			Properties: props,
			Required:   []string{"score", "reason", "evidence", "recommendation"},
		}
	}

	criteria := jsonschema.NewProperties()
	for _, key := range def.Criteria {
		criteria.Set(key, &jsonschema.Schema{Type: "string", Description: "Score and explanation"})
	}
	props.Set("summary", &jsonschema.Schema{Type: "string", Description: "A brief summary of the evaluation"})
	props.Set("details", &jsonschema.Schema{
		Type:        "object",
		Description: "Detailed evaluation of each criterion",
		Properties:  criteria,
	})
	props.Set("recommendation", &jsonschema.Schema{Type: "string", Description: "Specific improvement suggestion"})
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"score", "summary", "details"},
	}
}

func schemaToMap(s *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func schemaToGenai(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Type:        mapSchemaType(s.Type),
	}
	if len(s.Required) > 0 {
		out.Required = append(out.Required, s.Required...)
	}
	if len(s.Maximum) > 0 {
		if v, err := s.Maximum.Float64(); err == nil {
			out.Maximum = &v
		}
	}
	if len(s.Minimum) > 0 {
		if v, err := s.Minimum.Float64(); err == nil {
			out.Minimum = &v
		}
	}

	if s.Properties != nil && s.Properties.Len() > 0 {
		out.Properties = make(map[string]*genai.Schema, s.Properties.Len())
		ordering := make([]string, 0, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			out.Properties[pair.Key] = schemaToGenai(pair.Value)
			ordering = append(ordering, pair.Key)
		}
		out.PropertyOrdering = ordering
	}
	return out
}

func mapSchemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return ""
	}
}
