package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/rubrics"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/services"
)

// stubJudge awards full marks unless fail is set.
type stubJudge struct {
	fail    error
	pingErr error
}

func (s *stubJudge) Judge(ctx context.Context, req services.JudgeRequest) (*services.Verdict, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	if len(req.Section.Criteria) == 0 {
		return &services.Verdict{Binary: &services.BinaryVerdict{
			Score:    float64(req.Section.MaxPoints),
			Reason:   "Clear",
			Evidence: "quoted",
		}}, nil
	}
	return &services.Verdict{Rubric: &services.RubricVerdict{
		Score:   float64(req.Section.MaxPoints),
		Summary: "Strong",
		Details: map[string]string{},
	}}, nil
}

func (s *stubJudge) Ping(ctx context.Context) (string, error) {
	if s.pingErr != nil {
		return "", s.pingErr
	}
	return "API is working correctly!", nil
}

func (s *stubJudge) Provider() string { return "stub" }

func (s *stubJudge) Model() string { return "stub-1" }

func newTestApp(t *testing.T, judge services.Judge) *fiber.App {
	t.Helper()
	catalog, err := rubrics.Default()
	require.NoError(t, err)

	evaluator := services.NewEvaluatorService(judge, services.NewPromptBuilder(catalog), 4)
	uploads := NewUploadHandler(services.NewDocumentParser(), 1024)

	app := fiber.New()
	Register(app, Handlers{
		Evaluate: NewEvaluationHandler(evaluator, uploads),
		Upload:   uploads,
		Result:   NewResultHandler(),
		Health:   NewHealthHandler(judge, evaluator.RubricVersion()),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp, out
}

func multipartUpload(t *testing.T, path, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleTest(t *testing.T) {
	app := newTestApp(t, &stubJudge{})
	for _, path := range []string{"/test", "/api/test"} {
		resp, body := doJSON(t, app, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "API is working!", body["message"], path)
	}
}

func TestHandleTestProvider(t *testing.T) {
	resp, body := doJSON(t, newTestApp(t, &stubJudge{}), http.MethodGet, "/api/test-openai", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "API is working correctly!", body["message"])

	resp, body = doJSON(t, newTestApp(t, &stubJudge{pingErr: errors.New("invalid api key")}), http.MethodGet, "/test-openai", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid api key", body["error"])
}

func TestHandleHealthAndSections(t *testing.T) {
	app := newTestApp(t, &stubJudge{})

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "stub", body["provider"])
	assert.Equal(t, "2025.09-r3", body["rubric_version"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/sections", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(88), body["total_max_points"])
	sections, ok := body["sections"].([]any)
	require.True(t, ok)
	require.Len(t, sections, 19)
	first, ok := sections[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"outcome"}, first["header_aliases"])
}

func TestHandleEvaluateSection(t *testing.T) {
	app := newTestApp(t, &stubJudge{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/evaluate-section", models.EvaluateSectionRequest{
		Section: "audience",
		Content: "New trial users, 50/50 split",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["score"])
	assert.Equal(t, "Clear", body["reason"])

	resp, body = doJSON(t, app, http.MethodPost, "/evaluate-section", models.EvaluateSectionRequest{Section: "audience"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing section or content", body["error"])

	resp, body = doJSON(t, app, http.MethodPost, "/evaluate-section", models.EvaluateSectionRequest{Section: "nope", Content: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid section type", body["error"])

	resp, body = doJSON(t, app, http.MethodPost, "/evaluate-section", models.EvaluateSectionRequest{Section: "duration", Content: "4 weeks"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid section type", body["error"])
}

func TestHandleEvaluateSectionJudgeFailure(t *testing.T) {
	judge := &stubJudge{fail: &services.JudgeFailure{Kind: services.FailureStatus, Section: "hypothesis", Err: errors.New("429 rate limited")}}
	resp, body := doJSON(t, newTestApp(t, judge), http.MethodPost, "/evaluate-section", models.EvaluateSectionRequest{
		Section: "hypothesis",
		Content: "We believe users want help",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to evaluate content", body["error"])
	assert.Equal(t, "hypothesis", body["section"])
	assert.Contains(t, body["details"], "429 rate limited")
}

func TestHandleEvaluateJSON(t *testing.T) {
	app := newTestApp(t, &stubJudge{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/evaluate", models.EvaluateDocumentRequest{
		Sections: models.DocumentSections{
			"outcome":  "Grow paid conversion",
			"audience": "Trial users",
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(12), body["total_score"])
	assert.Equal(t, float64(88), body["max_score"])
	assert.Equal(t, float64(14), body["total_percentage"])
	sections, ok := body["sections"].([]any)
	require.True(t, ok)
	assert.Len(t, sections, 19)

	resp, body = doJSON(t, app, http.MethodPost, "/evaluate", models.EvaluateDocumentRequest{
		Sections: models.DocumentSections{"bogus": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid section type: bogus", body["error"])

	resp, body = doJSON(t, app, http.MethodPost, "/evaluate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "sections is required", body["error"])
}

func TestHandleEvaluateUpload(t *testing.T) {
	app := newTestApp(t, &stubJudge{})

	req := multipartUpload(t, "/api/evaluate", "brief.txt", "Outcome\nGrow paid conversion\nDuration\nRun for 3 weeks.\n")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report models.AggregateReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 11.0, report.TotalScore)
	duration, ok := report.Lookup("duration")
	require.True(t, ok)
	assert.Equal(t, 1.0, duration.Score)
}

func TestHandleParse(t *testing.T) {
	app := newTestApp(t, &stubJudge{})

	tests := []struct {
		name       string
		filename   string
		content    string
		wantStatus int
		wantError  string
	}{{
		name:       "segmented",
		filename:   "brief.txt",
		content:    "Hypothesis\nWe believe users want guidance.\n",
		wantStatus: http.StatusOK,
	}, {
		name:       "unsupported",
		filename:   "brief.rtf",
		content:    "Hypothesis",
		wantStatus: http.StatusBadRequest,
		wantError:  `Unsupported file type ".rtf". Use .txt, .docx or .pdf`,
	}, {
		name:       "too large",
		filename:   "brief.txt",
		content:    strings.Repeat("x", 2048),
		wantStatus: http.StatusBadRequest,
		wantError:  "File too large. Max size: 1024 bytes",
	}, {
		name:       "no headers",
		filename:   "brief.txt",
		content:    "Just prose.",
		wantStatus: http.StatusBadRequest,
		wantError:  "No recognised section headers found in document",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(multipartUpload(t, "/parse", tt.filename, tt.content), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}
			assert.Equal(t, map[string]any{"hypothesis": "We believe users want guidance."}, body["sections"])
		})
	}
}

func TestHandleExport(t *testing.T) {
	app := newTestApp(t, &stubJudge{})
	report := models.AggregateReport{
		RubricVersion:   "2025.09-r3",
		TotalScore:      2,
		MaxScore:        2,
		TotalPercentage: 100,
		Sections: []models.EvaluationResult{{
			Section: "audience", DisplayName: "Audience", Score: 2, MaxPoints: 2, Rationale: "Clear", Status: models.StatusSuccess,
		}},
	}
	data, err := json.Marshal(report)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/export?format=doc", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/msword", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="experiment-evaluation.doc"`, resp.Header.Get("Content-Disposition"))
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Overall Score: 100%")

	resp2, body := doJSON(t, app, http.MethodPost, "/export?format=pdf", report)
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Contains(t, body["error"], "unknown export format")

	resp3, body := doJSON(t, app, http.MethodPost, "/export", models.AggregateReport{})
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
	assert.Equal(t, "Report has no sections", body["error"])
}

func TestMetricsRoute(t *testing.T) {
	app := newTestApp(t, &stubJudge{})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
