package services

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/registry"
)

type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatHTML ExportFormat = "html"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatHTML, "doc", "word":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// ContentType is the MIME type of an export. HTML exports are served as a
// Word document so they open in a word processor.
func (f ExportFormat) ContentType() string {
	if f == FormatHTML {
		return "application/msword"
	}
	return "application/json"
}

func (f ExportFormat) Extension() string {
	if f == FormatHTML {
		return ".doc"
	}
	return ".json"
}

// Export writes report in the given format.
func Export(w io.Writer, report *models.AggregateReport, format ExportFormat) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, report)
	case FormatHTML:
		return WriteHTML(w, report)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func WriteJSON(w io.Writer, report *models.AggregateReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// ReadJSON restores a report written by WriteJSON.
func ReadJSON(r io.Reader) (*models.AggregateReport, error) {
	var report models.AggregateReport
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

type htmlGroup struct {
	Title    string
	Sections []models.EvaluationResult
}

type htmlView struct {
	Report *models.AggregateReport
	Groups []htmlGroup
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"scoreClass": scoreClass,
	"criteria":   criteria,
	"score":      formatScore,
	"title":      criterionTitle,
}).Parse(reportHTML))

func WriteHTML(w io.Writer, report *models.AggregateReport) error {
	view := htmlView{Report: report}
	for _, g := range []struct {
		title string
		space models.Space
	}{
		{"Problem Space", models.SpaceProblem},
		{"Solution Space", models.SpaceSolution},
	} {
		group := htmlGroup{Title: g.title}
		for _, def := range registry.BySpace(g.space) {
			if res, ok := report.Lookup(def.ID); ok {
				group.Sections = append(group.Sections, res)
			}
		}
		view.Groups = append(view.Groups, group)
	}

	if err := reportTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func scoreClass(res models.EvaluationResult) string {
	if res.MaxPoints == 0 {
		return "score-info"
	}
	ratio := res.Score / float64(res.MaxPoints)
	switch {
	case ratio >= 0.8:
		return "score-high"
	case ratio >= 0.5:
		return "score-medium"
	default:
		return "score-low"
	}
}

type criterionLine struct {
	Key  string
	Text string
}

// criteria lists the breakdown entries, skipping bookkeeping keys.
func criteria(details map[string]string) []criterionLine {
	keys := make([]string, 0, len(details))
	for k := range details {
		if k == models.DetailError || k == models.DetailStatus {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]criterionLine, 0, len(keys))
	for _, k := range keys {
		out = append(out, criterionLine{Key: k, Text: details[k]})
	}
	return out
}

func formatScore(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func criterionTitle(key string) string {
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

const reportHTML = `<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word">
<head>
<meta charset="utf-8">
<title>Experiment Evaluation Report</title>
<style>
body { font-family: Calibri, Arial, sans-serif; font-size: 11pt; color: #222; }
h1 { font-size: 20pt; }
h2 { font-size: 16pt; border-bottom: 1px solid #999; margin-top: 24pt; }
h3 { font-size: 13pt; margin-bottom: 4pt; }
.overall { font-size: 14pt; font-weight: bold; }
.score-high { color: #1b7f3b; }
.score-medium { color: #b26a00; }
.score-low { color: #b00020; }
.score-info { color: #555; }
.label { font-weight: bold; }
.error { color: #b00020; }
</style>
</head>
<body>
<h1>Experiment Evaluation Report</h1>
<p>Generated: {{.Report.GeneratedAt.Format "January 2, 2006 15:04 MST"}}</p>
<p>Rubric version: {{.Report.RubricVersion}}</p>
<p class="overall">Overall Score: {{.Report.TotalPercentage}}%</p>
{{range .Groups}}
<h2>{{.Title}}</h2>
{{range .Sections}}
<div class="section">
<h3>{{.DisplayName}} <span class="{{scoreClass .}}">({{score .Score}}/{{.MaxPoints}})</span></h3>
<p><span class="label">Assessment:</span> {{.Rationale}}</p>
{{if .Evidence}}<p><span class="label">Evidence:</span> &ldquo;{{.Evidence}}&rdquo;</p>{{end}}
{{if .Recommendation}}<p><span class="label">Recommendation:</span> {{.Recommendation}}</p>{{end}}
{{with criteria .Details}}<ul>
{{range .}}<li><span class="label">{{title .Key}}:</span> {{.Text}}</li>
{{end}}</ul>{{end}}
{{with index .Details "error"}}<p class="error">Error: {{.}}</p>{{end}}
</div>
{{end}}
{{end}}
</body>
</html>
`
