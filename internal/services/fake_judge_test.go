package services

import (
	"context"
	"sync"
	"time"
)

// fakeJudge returns canned verdicts per section and records every request.
type fakeJudge struct {
	mu       sync.Mutex
	requests []JudgeRequest

	verdicts map[string]*Verdict
	failures map[string]error
	panics   map[string]bool
	delays   map[string]time.Duration

	pingMessage string
	pingErr     error
}

func (f *fakeJudge) Judge(ctx context.Context, req JudgeRequest) (*Verdict, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	delay := f.delays[req.Section.ID]
	panics := f.panics[req.Section.ID]
	failure := f.failures[req.Section.ID]
	verdict := f.verdicts[req.Section.ID]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if panics {
		panic("judge exploded")
	}
	if failure != nil {
		return nil, failure
	}
	if verdict != nil {
		return verdict, nil
	}
	return maxVerdict(req), nil
}

func (f *fakeJudge) Ping(ctx context.Context) (string, error) {
	return f.pingMessage, f.pingErr
}

func (f *fakeJudge) Provider() string { return "fake" }

func (f *fakeJudge) Model() string { return "fake-model" }

func (f *fakeJudge) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		ids = append(ids, r.Section.ID)
	}
	return ids
}

func (f *fakeJudge) request(section string) (JudgeRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.Section.ID == section {
			return r, true
		}
	}
	return JudgeRequest{}, false
}

// maxVerdict is a full-marks verdict in the shape the section expects.
func maxVerdict(req JudgeRequest) *Verdict {
	if len(req.Section.Criteria) == 0 {
		return &Verdict{Binary: &BinaryVerdict{
			Score:          float64(req.Section.MaxPoints),
			Reason:         "Meets every criterion",
			Evidence:       "quoted text",
			Recommendation: "",
		}}
	}
	details := map[string]string{}
	for _, c := range req.Section.Criteria {
		details[c] = "Full marks"
	}
	return &Verdict{Rubric: &RubricVerdict{
		Score:   float64(req.Section.MaxPoints),
		Summary: "Strong section",
		Details: details,
	}}
}
