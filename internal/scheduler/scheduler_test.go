package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketsim/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32 // attempts that fail before succeeding
	calls    atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"0 * * * *", false},
		{"*/30 * * * * *", false},
		{"@hourly", false},
		{"every hour", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			err := ValidateSchedule(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduler_AddRemove(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "@hourly"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 * * * *"}))
	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}), "duplicate")
	assert.Error(t, s.AddJob(&countingJob{name: "c", schedule: "nope"}), "bad spec")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
}

func TestScheduler_RunJobRetries(t *testing.T) {
	s := New(logger.Nop(), WithRetries(2, time.Millisecond))

	flaky := &countingJob{name: "flaky", schedule: "@hourly", failures: 2}
	broken := &countingJob{name: "broken", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(flaky))
	require.NoError(t, s.AddJob(broken))

	res, err := s.RunJob(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int32(3), flaky.calls.Load())

	res, err = s.RunJob(context.Background(), "broken")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "transient", res.Error)
	assert.Equal(t, int32(3), broken.calls.Load())

	_, err = s.RunJob(context.Background(), "missing")
	assert.Error(t, err)

	stats := s.GetJobStats()
	assert.Equal(t, 1, stats["flaky"].SuccessCount)
	assert.Equal(t, 1, stats["broken"].FailureCount)
	assert.NotNil(t, stats["broken"].LastFailure)
	assert.Nil(t, stats["broken"].LastSuccess)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	assert.Len(t, history.Results, 1)
}

func TestScheduler_CancelledRunStopsRetrying(t *testing.T) {
	s := New(logger.Nop(), WithRetries(5, time.Hour))
	job := &countingJob{name: "slow", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.RunJob(ctx, "slow")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestScheduler_StartFires(t *testing.T) {
	s := New(logger.Nop())
	job := &countingJob{name: "tick", schedule: "* * * * * *"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	defer s.Stop()

	next, err := s.NextRun("tick")
	require.NoError(t, err)
	assert.False(t, next.IsZero())

	assert.Eventually(t, func() bool { return job.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}
