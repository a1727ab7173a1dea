package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
)

func sampleReport() *models.AggregateReport {
	return &models.AggregateReport{
		ID:            uuid.MustParse("6f1c2a52-8d3b-4c1e-9a77-0b5d3c2e1f00"),
		GeneratedAt:   time.Date(2025, 9, 14, 10, 30, 0, 0, time.UTC),
		RubricVersion: "2025.09-r3",
		TotalScore:    13.5,
		MaxScore:      24,
		Sections: []models.EvaluationResult{{
			Section:     "outcome",
			DisplayName: "Outcome",
			Score:       10,
			MaxPoints:   10,
			Rationale:   "Present",
			Status:      models.StatusSuccess,
		}, {
			Section:        "hypothesis",
			DisplayName:    "Hypothesis",
			Score:          3.5,
			MaxPoints:      10,
			Rationale:      "Weak link to root cause",
			Recommendation: "Tie the belief to observed behavior",
			Details:        map[string]string{"reason": "1/3 vague", "belief": "2/2 clear"},
			Status:         models.StatusSuccess,
		}, {
			Section:     "audience",
			DisplayName: "Audience",
			MaxPoints:   2,
			Rationale:   "Error evaluating section",
			Details:     map[string]string{models.DetailError: "judge status failure"},
			Status:      models.StatusError,
		}, {
			Section:     "testType",
			DisplayName: "Test Type",
			Rationale:   "Present",
			Status:      models.StatusSuccess,
		}, {
			Section:     "duration",
			DisplayName: "Duration",
			MaxPoints:   2,
			Rationale:   "Missing duration",
			Status:      models.StatusMissingContent,
		}},
		TotalPercentage: 56,
	}
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "json", want: FormatJSON},
		{in: "HTML", want: FormatHTML},
		{in: "doc", want: FormatHTML},
		{in: " word ", want: FormatHTML},
		{in: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExportFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "application/msword", FormatHTML.ContentType())
	assert.Equal(t, ".doc", FormatHTML.Extension())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, ".json", FormatJSON.Extension())
}

func TestJSONExportRoundTrip(t *testing.T) {
	report := sampleReport()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, report, FormatJSON))
	assert.Contains(t, buf.String(), `"total_percentage": 56`)

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(report, got); diff != "" {
		t.Errorf("ReadJSON() mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleReport(), FormatHTML))
	out := buf.String()

	assert.Contains(t, out, "Overall Score: 56%")
	assert.Contains(t, out, "Rubric version: 2025.09-r3")
	assert.Contains(t, out, "September 14, 2025 10:30 UTC")

	problem := strings.Index(out, "<h2>Problem Space</h2>")
	solution := strings.Index(out, "<h2>Solution Space</h2>")
	require.NotEqual(t, -1, problem)
	require.NotEqual(t, -1, solution)
	assert.Less(t, problem, strings.Index(out, "Hypothesis"))
	assert.Less(t, solution, strings.Index(out, "Audience"))

	assert.Contains(t, out, `<span class="score-high">(10/10)</span>`)
	assert.Contains(t, out, `<span class="score-low">(3.5/10)</span>`)
	assert.Contains(t, out, `<span class="score-info">(0/0)</span>`)

	belief := strings.Index(out, "Belief:")
	reason := strings.Index(out, "Reason:")
	require.NotEqual(t, -1, belief)
	assert.Less(t, belief, reason, "criteria are sorted")

	assert.Contains(t, out, `<p class="error">Error: judge status failure</p>`)
	assert.NotContains(t, out, "<li><span class=\"label\">Error:")
	assert.Contains(t, out, "Tie the belief to observed behavior")
}

func TestExportUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Export(&buf, sampleReport(), ExportFormat("csv")))
}
