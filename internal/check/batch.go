package check

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"pixelwatch/internal/services"
)

// Checker runs one check. *Runner implements it.
type Checker interface {
	Check(ctx context.Context, index int) Outcome
}

// RunBatch runs n checks concurrently and returns their outcomes in completion
// order. Tasks never fail the group, so no check cancels another. A panicking
// check is reported as an internal fault.
func RunBatch(ctx context.Context, n int, checker Checker) []Outcome {
	if n <= 0 {
		return nil
	}
	results := make(chan Outcome, n)
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			results <- safeCheck(ctx, i, checker)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	outcomes := make([]Outcome, 0, n)
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func safeCheck(ctx context.Context, index int, checker Checker) (outcome Outcome) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := services.Wrap(services.ErrInternal, "check", "panic",
				fmt.Sprintf("recovered: %v", r), nil)
			outcome = Outcome{
				Index:    index,
				Kind:     KindInternalFault,
				Err:      err,
				Started:  started,
				Duration: time.Since(started),
			}
		}
	}()
	if checker == nil {
		panic("check: nil checker")
	}
	return checker.Check(ctx, index)
}
