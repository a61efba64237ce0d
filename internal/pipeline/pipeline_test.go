package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// ================================================================
// Stubs
// ================================================================

type fixedFilter struct {
	name string
	out  Outcome
}

func (f *fixedFilter) Name() string                                     { return f.name }
func (f *fixedFilter) Check(context.Context, *contracts.Signal) Outcome { return f.out }

type panickyFilter struct{ name string }

func (f *panickyFilter) Name() string { return f.name }
func (f *panickyFilter) Check(context.Context, *contracts.Signal) Outcome {
	panic("boom")
}

type memEvaluationStore struct {
	saved map[int64]*contracts.Evaluation
	err   error
}

func newMemEvaluationStore() *memEvaluationStore {
	return &memEvaluationStore{saved: make(map[int64]*contracts.Evaluation)}
}

func (s *memEvaluationStore) Upsert(_ context.Context, eval *contracts.Evaluation) error {
	if s.err != nil {
		return s.err
	}
	cp := *eval
	s.saved[eval.SignalID] = &cp
	return nil
}

func (s *memEvaluationStore) GetBySignal(_ context.Context, id int64) (*contracts.Evaluation, error) {
	return s.saved[id], nil
}

type recordingBroadcaster struct {
	received []*contracts.Evaluation
}

func (b *recordingBroadcaster) BroadcastEvaluation(eval *contracts.Evaluation) {
	b.received = append(b.received, eval)
}

func score(v int) *int { return &v }

func chain(outs map[string]Outcome) []Filter {
	filters := make([]Filter, 0, 4)
	for _, name := range []string{"news", "prop", "score", "strategy"} {
		out, ok := outs[name]
		if !ok {
			out = Passed()
		}
		filters = append(filters, &fixedFilter{name: name, out: out})
	}
	return filters
}

// ================================================================
// Tests
// ================================================================

func TestPipeline_AllFiltersPass(t *testing.T) {
	store := newMemEvaluationStore()
	p := NewWithFilters(chain(map[string]Outcome{
		"score": {Status: StatusPassed, Score: score(72)},
	}), store, logger.NewNop())

	eval, err := p.Evaluate(context.Background(), testSignal(t))
	require.NoError(t, err)

	assert.True(t, eval.Passed)
	assert.Equal(t, contracts.ReasonPassed, eval.BlockedReason)
	assert.Equal(t, 72, eval.Score)
	assert.True(t, eval.NewsOK)
	assert.True(t, eval.PropOK)
	assert.True(t, eval.ScoreOK)
	assert.True(t, eval.StrategyOK)

	require.Contains(t, store.saved, int64(101))
	assert.True(t, store.saved[101].Passed)
}

func TestPipeline_SingleBlockNamesFilter(t *testing.T) {
	p := NewWithFilters(chain(map[string]Outcome{
		"news": Blocked("USD blackout"),
	}), newMemEvaluationStore(), logger.NewNop())

	eval, err := p.Evaluate(context.Background(), testSignal(t))
	require.NoError(t, err)

	assert.False(t, eval.Passed)
	assert.Equal(t, contracts.ReasonNews, eval.BlockedReason)
	assert.False(t, eval.NewsOK)
	assert.True(t, eval.PropOK)
}

func TestPipeline_MultipleBlocks(t *testing.T) {
	p := NewWithFilters(chain(map[string]Outcome{
		"news": Blocked("USD blackout"),
		"prop": Blocked("daily limit"),
	}), newMemEvaluationStore(), logger.NewNop())

	eval, err := p.Evaluate(context.Background(), testSignal(t))
	require.NoError(t, err)

	assert.False(t, eval.Passed)
	assert.Equal(t, contracts.ReasonMultiple, eval.BlockedReason)
}

func TestPipeline_ScoreRecordedWhenBlocked(t *testing.T) {
	blocked := Blocked("score 22 is below minimum 30")
	blocked.Score = score(22)
	p := NewWithFilters(chain(map[string]Outcome{
		"score": blocked,
	}), newMemEvaluationStore(), logger.NewNop())

	eval, err := p.Evaluate(context.Background(), testSignal(t))
	require.NoError(t, err)

	assert.False(t, eval.Passed)
	assert.Equal(t, contracts.ReasonScore, eval.BlockedReason)
	assert.Equal(t, 22, eval.Score)
}

func TestPipeline_IndeterminateCountsAsPassed(t *testing.T) {
	p := NewWithFilters(chain(map[string]Outcome{
		"news": {Status: StatusIndeterminate, Reason: "calendar down"},
	}), newMemEvaluationStore(), logger.NewNop())

	eval, err := p.Evaluate(context.Background(), testSignal(t))
	require.NoError(t, err)

	assert.True(t, eval.Passed)
	assert.True(t, eval.NewsOK)
	assert.Contains(t, eval.Notes, "calendar down")
}

func TestPipeline_PanickingFilterCountsAsPassed(t *testing.T) {
	filters := []Filter{
		&panickyFilter{name: "news"},
		&fixedFilter{name: "prop", out: Passed()},
		&fixedFilter{name: "score", out: Outcome{Status: StatusPassed, Score: score(80)}},
		&fixedFilter{name: "strategy", out: Passed()},
	}
	p := NewWithFilters(filters, newMemEvaluationStore(), logger.NewNop())

	eval, err := p.Evaluate(context.Background(), testSignal(t))
	require.NoError(t, err)

	assert.True(t, eval.Passed)
	assert.True(t, eval.NewsOK)
	assert.Contains(t, eval.Notes, "panicked")
}

func TestPipeline_AllFiltersRunAfterBlock(t *testing.T) {
	// The strategy verdict must be recorded even though news already
	// blocked the signal.
	p := NewWithFilters(chain(map[string]Outcome{
		"news":     Blocked("USD blackout"),
		"strategy": Blocked(`strategy "Martingale" is not allowed`),
	}), newMemEvaluationStore(), logger.NewNop())

	eval, err := p.Evaluate(context.Background(), testSignal(t))
	require.NoError(t, err)

	assert.Equal(t, contracts.ReasonMultiple, eval.BlockedReason)
	assert.False(t, eval.NewsOK)
	assert.False(t, eval.StrategyOK)
}

func TestPipeline_PersistFailureDoesNotFailEvaluation(t *testing.T) {
	store := newMemEvaluationStore()
	store.err = assert.AnError
	p := NewWithFilters(chain(nil), store, logger.NewNop())

	eval, err := p.Evaluate(context.Background(), testSignal(t))
	require.NoError(t, err)
	assert.True(t, eval.Passed)
}

func TestPipeline_BroadcastsEvaluation(t *testing.T) {
	b := &recordingBroadcaster{}
	p := NewWithFilters(chain(nil), newMemEvaluationStore(), logger.NewNop())
	p.SetBroadcaster(b)

	_, err := p.Evaluate(context.Background(), testSignal(t))
	require.NoError(t, err)

	require.Len(t, b.received, 1)
	assert.Equal(t, int64(101), b.received[0].SignalID)
}

func TestPipeline_NilSignal(t *testing.T) {
	p := NewWithFilters(chain(nil), newMemEvaluationStore(), logger.NewNop())
	_, err := p.Evaluate(context.Background(), nil)
	assert.Error(t, err)
}
