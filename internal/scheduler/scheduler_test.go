package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pennyscan/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	fn       func(ctx context.Context, attempt int32) error
	runs     int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.runs, 1)
	if j.fn == nil {
		return nil
	}
	return j.fn(ctx, n)
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return New(loc, logger.Nop())
}

func waitForRuns(t *testing.T, s *Scheduler, job string, runs int) JobStats {
	t.Helper()
	var stats JobStats
	require.Eventually(t, func() bool {
		stats = s.GetJobStats()[job]
		return stats.TotalRuns >= runs
	}, 2*time.Second, 5*time.Millisecond)
	return stats
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.AddJob(&fakeJob{name: "scan", schedule: "@every 15m"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "scan", schedule: "@every 15m"}), "duplicate name")
	assert.Error(t, s.AddJob(&fakeJob{name: "bad", schedule: "not a cron"}))

	assert.Equal(t, []string{"scan"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.AddJob(&fakeJob{name: "keepalive", schedule: "@every 10m"}))

	require.NoError(t, s.RemoveJob("keepalive"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("keepalive"))
}

func TestRunJob_Unknown(t *testing.T) {
	s := newTestScheduler(t)
	assert.Error(t, s.RunJob("missing"))
}

func TestRunJob_RecordsSuccess(t *testing.T) {
	s := newTestScheduler(t)
	job := &fakeJob{name: "scan", schedule: "@every 15m"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("scan"))
	stats := waitForRuns(t, s, "scan", 1)

	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1.0, stats.SuccessRate)
	assert.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
}

func TestRunJob_RetriesUntilSuccess(t *testing.T) {
	s := newTestScheduler(t).WithRetry(3, time.Millisecond)
	job := &fakeJob{name: "scan", schedule: "@every 15m", fn: func(_ context.Context, attempt int32) error {
		if attempt < 3 {
			return errors.New("upstream down")
		}
		return nil
	}}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("scan"))
	stats := waitForRuns(t, s, "scan", 1)

	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.runs))
}

func TestRunJob_NoRetryByDefault(t *testing.T) {
	s := newTestScheduler(t)
	job := &fakeJob{name: "keepalive", schedule: "@every 10m", fn: func(context.Context, int32) error {
		return errors.New("connection refused")
	}}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("keepalive"))
	stats := waitForRuns(t, s, "keepalive", 1)

	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.runs))

	history, err := s.GetJobHistory("keepalive")
	require.NoError(t, err)
	s.mu.RLock()
	assert.Equal(t, "connection refused", history.Results[0].Error)
	s.mu.RUnlock()
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := newTestScheduler(t).WithRetry(5, time.Hour)
	started := make(chan struct{})
	job := &fakeJob{name: "scan", schedule: "@every 15m", fn: func(ctx context.Context, _ int32) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}
	require.NoError(t, s.AddJob(job))
	s.Start()

	require.NoError(t, s.RunJob("scan"))
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	stats := s.GetJobStats()["scan"]
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.runs), "no retry after shutdown")
}

func TestGetJobStats_NextRunAfterStart(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.AddJob(&fakeJob{name: "scan", schedule: "@every 1h"}))

	assert.Nil(t, s.GetJobStats()["scan"].NextRun)

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return s.GetJobStats()["scan"].NextRun != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "@every 1h", s.GetJobStats()["scan"].Schedule)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < 120; i++ {
		h.AddResult(JobResult{JobName: "scan", Success: i%4 != 0})
	}

	assert.Len(t, h.Results, 100)
	assert.Len(t, h.GetLatestResults(10), 10)
	assert.Len(t, h.GetFailedResults(), 25)
	assert.InDelta(t, 0.75, h.GetSuccessRate(), 1e-9)
}
