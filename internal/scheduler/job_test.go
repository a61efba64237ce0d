package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func result(name string, success bool) JobResult {
	now := time.Now()
	return JobResult{
		JobName:   name,
		StartTime: now,
		EndTime:   now.Add(time.Second),
		Duration:  time.Second,
		Success:   success,
	}
}

func TestJobHistory_KeepsLast100(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		r := result("news_sync", true)
		r.Error = fmt.Sprintf("run-%d", i)
		h.AddResult(r)
	}

	assert.Len(t, h.Results, 100)
	assert.Equal(t, "run-149", h.Results[len(h.Results)-1].Error)
	assert.Equal(t, "run-50", h.Results[0].Error)
}

func TestJobHistory_GetLatestResults(t *testing.T) {
	h := &JobHistory{}
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < 3; i++ {
		h.AddResult(result("optimize_weights", true))
	}

	assert.Len(t, h.GetLatestResults(2), 2)
	assert.Len(t, h.GetLatestResults(10), 3)
}

func TestJobHistory_GetSuccessRate(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())

	h.AddResult(result("nightly_rescore", true))
	h.AddResult(result("nightly_rescore", true))
	h.AddResult(result("nightly_rescore", false))
	h.AddResult(result("nightly_rescore", true))

	assert.InDelta(t, 0.75, h.GetSuccessRate(), 1e-9)
}
