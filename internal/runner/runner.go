// Package runner executes pipeline stage units-of-work under a bounded-retry
// policy, recording every attempt as a structured ErrorRecord.
//
// The retry policy has one deliberate asymmetry: a timeout-class error from
// the collaborator boundary is assumed to recur within the same analysis run,
// so it is recorded once and never retried, regardless of the remaining
// attempt budget. Everything else (transport errors, unparseable responses,
// structurally invalid results) is retried while attempts remain.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/transition-cli/internal/model"
	"github.com/sells-group/transition-cli/internal/parse"
	"github.com/sells-group/transition-cli/pkg/llm"
)

// DefaultMaxRetries is the total attempt budget per unit-of-work.
const DefaultMaxRetries = 2

// classify maps an attempt error to its recorded type.
func classify(err error) model.ErrorType {
	switch {
	case llm.IsTimeout(err):
		return model.ErrorTypeTimeout
	case errors.Is(err, parse.ErrUnparseable) || errors.Is(err, parse.ErrWrongShape):
		return model.ErrorTypeParseFailure
	default:
		return model.ErrorTypeError
	}
}

func record(stage string, attempt int, errType model.ErrorType, err error) model.ErrorRecord {
	return model.ErrorRecord{
		Stage:     stage,
		Attempt:   attempt,
		ErrorType: errType,
		Message:   err.Error(),
		Timestamp: time.Now(),
	}
}

// Run executes one stage unit-of-work with bounded retries. maxRetries is the
// total number of attempts; values below 1 fall back to DefaultMaxRetries.
// A successful work result is passed through validate (nil validate accepts
// everything); a validation failure counts as an ERROR attempt.
//
// On failure the zero value is returned together with every recorded attempt
// and the final error.
func Run[T any](ctx context.Context, stage string, maxRetries int, work func(context.Context) (T, error), validate func(T) error) (T, []model.ErrorRecord, error) {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}

	var zero T
	var records []model.ErrorRecord
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		value, err := work(ctx)
		if err == nil && validate != nil {
			err = validate(value)
		}
		if err == nil {
			return value, records, nil
		}
		lastErr = err

		errType := classify(err)
		records = append(records, record(stage, attempt, errType, err))

		zap.L().Warn("runner: stage attempt failed",
			zap.String("stage", stage),
			zap.Int("attempt", attempt),
			zap.String("error_type", string(errType)),
			zap.Error(err),
		)

		// Timeouts won't get faster on a second try.
		if errType == model.ErrorTypeTimeout {
			return zero, records, lastErr
		}

		if ctx.Err() != nil {
			return zero, records, lastErr
		}
	}

	return zero, records, lastErr
}

// CriticalFailure signals that every item in a fan-out stage failed. The
// stage degrades to no usable result; the orchestrator reports a reason
// string derived from the majority error type.
type CriticalFailure struct {
	Stage    string
	Items    int
	Timeouts int
}

func (e *CriticalFailure) Error() string {
	return fmt.Sprintf("%s critical failure: all %d items failed (%d timeouts)", e.Stage, e.Items, e.Timeouts)
}

// MostlyTimeouts reports whether timeouts were the majority failure type.
func (e *CriticalFailure) MostlyTimeouts() bool {
	return e.Timeouts > e.Items-e.Timeouts
}
