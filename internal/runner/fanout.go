package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/transition-cli/internal/model"
)

// FanOutResult is the outcome of processing a list of independent items.
type FanOutResult[O any] struct {
	// Values has exactly one entry per input item, in the original input
	// order; failed items hold the stage's sentinel value.
	Values []O

	// Failed marks the indexes that exhausted their retries.
	Failed []bool

	// Records holds every attempt error, merged in item-index order.
	Records []model.ErrorRecord

	// Warnings accumulated during the fan-out (e.g. sentinel substitution).
	Warnings []string
}

// FailedCount returns the number of failed items.
func (r *FanOutResult[O]) FailedCount() int {
	n := 0
	for _, f := range r.Failed {
		if f {
			n++
		}
	}
	return n
}

// RunEach runs one unit-of-work per item with the same retry policy as Run.
// Items are independent: a failed item is replaced by sentinel(i) and
// recorded, never raised. Items run concurrently up to the given limit
// (limit < 1 means sequential); each worker keeps its own record list and the
// lists are merged in item-index order after the join, so the assembled
// Values slice always matches the input order regardless of scheduling.
//
// If every item fails, RunEach returns a *CriticalFailure and the caller must
// treat the stage as having produced no usable result.
func RunEach[I, O any](
	ctx context.Context,
	stage string,
	items []I,
	maxRetries, limit int,
	work func(ctx context.Context, index int, item I) (O, error),
	validate func(O) error,
	sentinel func(item I) O,
) (*FanOutResult[O], error) {
	result := &FanOutResult[O]{
		Values: make([]O, len(items)),
		Failed: make([]bool, len(items)),
	}
	if len(items) == 0 {
		return result, nil
	}
	if limit < 1 {
		limit = 1
	}

	perItem := make([][]model.ErrorRecord, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			value, records, err := Run(gCtx, stage, maxRetries, func(c context.Context) (O, error) {
				return work(c, i, item)
			}, validate)

			perItem[i] = records
			if err != nil {
				result.Failed[i] = true
				result.Values[i] = sentinel(item)
				return nil
			}
			result.Values[i] = value
			return nil
		})
	}
	_ = g.Wait()

	// Merge per-worker records back into submission order.
	timeouts := 0
	for i, records := range perItem {
		result.Records = append(result.Records, records...)
		if result.Failed[i] {
			hadTimeout := false
			for _, r := range records {
				if r.ErrorType == model.ErrorTypeTimeout {
					hadTimeout = true
					break
				}
			}
			if hadTimeout {
				timeouts++
			}
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: item %d failed, sentinel value substituted", stage, i+1))
		}
	}

	failed := result.FailedCount()
	zap.L().Info("runner: fan-out complete",
		zap.String("stage", stage),
		zap.Int("items", len(items)),
		zap.Int("failed", failed),
		zap.Int("timeouts", timeouts),
	)

	if failed == len(items) {
		cf := &CriticalFailure{Stage: stage, Items: len(items), Timeouts: timeouts}
		result.Records = append(result.Records, model.ErrorRecord{
			Stage:     stage,
			ErrorType: model.ErrorTypeCriticalFailure,
			Message:   cf.Error(),
			Timestamp: time.Now(),
		})
		return result, cf
	}

	return result, nil
}
