package services

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
)

type sectionTask func(ctx context.Context, def models.SectionDefinition) models.EvaluationResult

// runSectionTasks runs one task per definition with at most concurrency in
// flight. Each task writes only its own slot, so results come back in
// definition order regardless of completion order. A panicking task yields
// an error result for its section alone.
func runSectionTasks(ctx context.Context, defs []models.SectionDefinition, concurrency int, task sectionTask) []models.EvaluationResult {
	results := make([]models.EvaluationResult, len(defs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, def := range defs {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					clog.FromContext(ctx).With("section", def.ID, "panic", r).Error("Section task panicked")
					results[i] = errorResult(def, fmt.Errorf("panic: %v", r))
				}
			}()
			results[i] = task(ctx, def)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
