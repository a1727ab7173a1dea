// Package rubrics loads the versioned rubric prompt catalog used by the
// LLM-judged sections. The catalog is data: an embedded YAML document that
// a deployment may replace with its own file.
package rubrics

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/registry"
)

//go:embed rubrics.yaml
var embedded []byte

var ErrPromptNotFound = errors.New("prompt not found")

type Criterion struct {
	Key         string `yaml:"key" json:"key"`
	Points      int    `yaml:"points" json:"points"`
	Description string `yaml:"description" json:"description"`
}

type Rubric struct {
	Prompt   string      `yaml:"prompt" json:"prompt"`
	Criteria []Criterion `yaml:"criteria,omitempty" json:"criteria,omitempty"`
}

type document struct {
	Version           string            `yaml:"version"`
	SystemInstruction string            `yaml:"system_instruction"`
	Sections          map[string]Rubric `yaml:"sections"`
}

// Catalog is immutable once loaded.
type Catalog struct {
	version           string
	systemInstruction string
	rubrics           map[string]Rubric
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Load reads the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rubric catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a single YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse rubric catalog: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse rubric catalog: multiple YAML documents are not supported")
		}
		return nil, fmt.Errorf("parse rubric catalog: %w", err)
	}

	if err := validate(doc); err != nil {
		return nil, err
	}

	rubrics := make(map[string]Rubric, len(doc.Sections))
	for id, r := range doc.Sections {
		rubrics[id] = Rubric{
			Prompt:   strings.TrimSpace(r.Prompt),
			Criteria: slices.Clone(r.Criteria),
		}
	}
	return &Catalog{
		version:           strings.TrimSpace(doc.Version),
		systemInstruction: strings.TrimSpace(doc.SystemInstruction),
		rubrics:           rubrics,
	}, nil
}

func validate(doc document) error {
	var problems []string
	if strings.TrimSpace(doc.Version) == "" {
		problems = append(problems, "version is required")
	}
	if strings.TrimSpace(doc.SystemInstruction) == "" {
		problems = append(problems, "system_instruction is required")
	}

	for id := range doc.Sections {
		def, err := registry.Lookup(id)
		if err != nil {
			problems = append(problems, fmt.Sprintf("unknown section %q", id))
			continue
		}
		if !def.Mode.IsLLM() {
			problems = append(problems, fmt.Sprintf("section %q is not judged by the model", id))
		}
	}

	for _, def := range registry.All() {
		if !def.Mode.IsLLM() {
			continue
		}
		r, ok := doc.Sections[def.ID]
		if !ok || strings.TrimSpace(r.Prompt) == "" {
			problems = append(problems, fmt.Sprintf("section %q has no prompt", def.ID))
			continue
		}
		if def.Mode != models.ModeLLMRubricNPt {
			continue
		}
		total := 0
		keys := make([]string, 0, len(r.Criteria))
		for _, c := range r.Criteria {
			total += c.Points
			keys = append(keys, c.Key)
		}
		if total != def.MaxPoints {
			problems = append(problems, fmt.Sprintf("section %q criteria sum to %d, want %d", def.ID, total, def.MaxPoints))
		}
		if !slices.Equal(keys, def.Criteria) {
			problems = append(problems, fmt.Sprintf("section %q criteria %v, want %v", def.ID, keys, def.Criteria))
		}
	}

	if len(problems) > 0 {
		slices.Sort(problems)
		return fmt.Errorf("invalid rubric catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Version identifies the rubric snapshot stamped into every report.
func (c *Catalog) Version() string { return c.version }

func (c *Catalog) SystemInstruction() string { return c.systemInstruction }

// PromptFor returns the rubric prompt of an LLM-judged section.
func (c *Catalog) PromptFor(id string) (string, error) {
	r, ok := c.rubrics[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrPromptNotFound, id)
	}
	return r.Prompt, nil
}

// Rubric returns the full rubric entry for id.
func (c *Catalog) Rubric(id string) (Rubric, error) {
	r, ok := c.rubrics[id]
	if !ok {
		return Rubric{}, fmt.Errorf("%w: %q", ErrPromptNotFound, id)
	}
	r.Criteria = slices.Clone(r.Criteria)
	return r, nil
}
