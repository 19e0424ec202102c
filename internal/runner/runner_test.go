package runner

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/transition-cli/internal/model"
	"github.com/sells-group/transition-cli/internal/parse"
	"github.com/sells-group/transition-cli/pkg/llm"
)

func TestRun_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	v, records, err := Run(context.Background(), "enricher", 2, func(context.Context) (int, error) {
		calls++
		return 42, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
	assert.Empty(t, records)
}

func TestRun_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	v, records, err := Run(context.Background(), "enricher", 3, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", eris.New("flaky")
		}
		return "ok", nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
	require.Len(t, records, 2)
	assert.Equal(t, model.ErrorTypeError, records[0].ErrorType)
	assert.Equal(t, 1, records[0].Attempt)
	assert.Equal(t, 2, records[1].Attempt)
}

func TestRun_TimeoutNeverRetried(t *testing.T) {
	calls := 0
	_, records, err := Run(context.Background(), "classifier", 5, func(context.Context) (int, error) {
		calls++
		return 0, &llm.TimeoutError{}
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "timeout must abort retrying immediately")
	require.Len(t, records, 1)
	assert.Equal(t, model.ErrorTypeTimeout, records[0].ErrorType)
	assert.Equal(t, 1, records[0].Attempt)
}

func TestRun_ParseFailureTaggedDistinctly(t *testing.T) {
	_, records, err := Run(context.Background(), "scorer", 2, func(context.Context) (int, error) {
		return 0, parse.ErrUnparseable
	}, nil)
	require.Error(t, err)
	require.Len(t, records, 2, "parse failures are retried like errors")
	for _, r := range records {
		assert.Equal(t, model.ErrorTypeParseFailure, r.ErrorType)
	}
}

func TestRun_ValidationFailureIsError(t *testing.T) {
	calls := 0
	_, records, err := Run(context.Background(), "enricher", 2, func(context.Context) ([]int, error) {
		calls++
		return []int{1}, nil
	}, func(v []int) error {
		if len(v) != 4 {
			return eris.Errorf("expected 4 items, got %d", len(v))
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, records, 2)
	assert.Equal(t, model.ErrorTypeError, records[0].ErrorType)
}

func TestRun_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, records, err := Run(context.Background(), "enricher", 2, func(context.Context) (int, error) {
		calls++
		return 0, eris.New("always fails")
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, records, 2)
}

func TestRunEach_SentinelSubstitution(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	res, err := RunEach(context.Background(), "classifier", items, 2, 1,
		func(_ context.Context, i int, item string) (string, error) {
			if item == "b" {
				return "", eris.New("bad item")
			}
			return item + "!", nil
		}, nil,
		func(string) string { return "UNKNOWN" })
	require.NoError(t, err)
	assert.Equal(t, []string{"a!", "UNKNOWN", "c!", "d!"}, res.Values)
	assert.Equal(t, []bool{false, true, false, false}, res.Failed)
	assert.Equal(t, 1, res.FailedCount())
	assert.Len(t, res.Warnings, 1)
}

func TestRunEach_OrderPreservedUnderConcurrency(t *testing.T) {
	items := make([]int, 32)
	for i := range items {
		items[i] = i
	}
	res, err := RunEach(context.Background(), "scorer", items, 1, 8,
		func(_ context.Context, _ int, item int) (int, error) {
			return item * 10, nil
		}, nil,
		func(int) int { return -1 })
	require.NoError(t, err)
	for i, v := range res.Values {
		assert.Equal(t, i*10, v)
	}
}

func TestRunEach_CriticalFailureAllItems(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	res, err := RunEach(context.Background(), "classifier", items, 2, 1,
		func(_ context.Context, i int, _ string) (string, error) {
			if i < 3 {
				return "", &llm.TimeoutError{}
			}
			return "", eris.New("broken")
		}, nil,
		func(string) string { return "UNKNOWN" })

	var cf *CriticalFailure
	require.ErrorAs(t, err, &cf)
	assert.Equal(t, 4, cf.Items)
	assert.Equal(t, 3, cf.Timeouts)
	assert.True(t, cf.MostlyTimeouts())
	assert.Equal(t, 4, res.FailedCount())

	last := res.Records[len(res.Records)-1]
	assert.Equal(t, model.ErrorTypeCriticalFailure, last.ErrorType)
}

func TestRunEach_MajorityNonTimeout(t *testing.T) {
	cf := &CriticalFailure{Stage: "scorer", Items: 4, Timeouts: 2}
	assert.False(t, cf.MostlyTimeouts())
}

func TestRunEach_Empty(t *testing.T) {
	res, err := RunEach(context.Background(), "classifier", nil, 2, 4,
		func(_ context.Context, _ int, _ string) (string, error) { return "", nil }, nil,
		func(string) string { return "" })
	require.NoError(t, err)
	assert.Empty(t, res.Values)
}

func TestRunEach_RecordsMergedInIndexOrder(t *testing.T) {
	items := []string{"a", "b"}
	res, err := RunEach(context.Background(), "classifier", items, 2, 2,
		func(_ context.Context, i int, _ string) (string, error) {
			return "", eris.Errorf("fail-%d", i)
		}, nil,
		func(string) string { return "UNKNOWN" })
	var cf *CriticalFailure
	require.ErrorAs(t, err, &cf)

	// Two attempts per item, item 0's records before item 1's.
	require.GreaterOrEqual(t, len(res.Records), 4)
	assert.Contains(t, res.Records[0].Message, "fail-0")
	assert.Contains(t, res.Records[2].Message, "fail-1")
}
