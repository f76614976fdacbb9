package consensus

import (
	"context"
	"sync"
	"time"

	"github.com/adjudex/adjudex/common"
	"github.com/rs/zerolog"
)

// JobTracker is the in-memory registry of in-flight and completed jobs.
// It is the only mutable state shared between concurrent jobs. Terminal
// jobs are retained for later lookup and evicted after the configured
// retention window; in-flight jobs are never evicted.
type JobTracker struct {
	logger    *zerolog.Logger
	retention time.Duration

	mu   sync.RWMutex
	jobs map[string]*common.Job
}

func NewJobTracker(appCtx context.Context, logger *zerolog.Logger, retention, sweepInterval time.Duration) *JobTracker {
	lg := logger.With().Str("component", "tracker").Logger()

	t := &JobTracker{
		logger:    &lg,
		retention: retention,
		jobs:      make(map[string]*common.Job),
	}

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-appCtx.Done():
				return
			case <-ticker.C:
				t.sweep()
			}
		}
	}()

	return t
}

// Register creates the job in processing state. Called before any
// provider invocation so status lookup works for in-flight jobs.
func (t *JobTracker) Register(job *common.Job) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[job.ID] = job
}

// Complete transitions a job to its successful terminal state. The
// transition happens at most once; a job already terminal is left as-is.
func (t *JobTracker) Complete(jobId string, resp *common.ConsensusResponse) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobId]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = common.JobStatusCompleted
	job.Response = resp
	job.EndTime = time.Now()
}

// Fail transitions a job to its failed terminal state, retaining the
// error message. Response stays unset.
func (t *JobTracker) Fail(jobId string, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobId]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = common.JobStatusFailed
	job.Error = errMsg
	job.EndTime = time.Now()
}

// Get returns a snapshot of the job, so callers never race with state
// transitions.
func (t *JobTracker) Get(jobId string) (*common.Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[jobId]
	if !ok {
		return nil, false
	}
	cp := *job
	return &cp, true
}

// Active returns snapshots of all jobs still processing.
func (t *JobTracker) Active() []*common.Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	active := make([]*common.Job, 0)
	for _, job := range t.jobs {
		if job.Status == common.JobStatusProcessing {
			cp := *job
			active = append(active, &cp)
		}
	}
	return active
}

func (t *JobTracker) sweep() {
	cutoff := time.Now().Add(-t.retention)
	evicted := 0

	t.mu.Lock()
	for id, job := range t.jobs {
		if job.Status.Terminal() && job.EndTime.Before(cutoff) {
			delete(t.jobs, id)
			evicted++
		}
	}
	remaining := len(t.jobs)
	t.mu.Unlock()

	if evicted > 0 {
		t.logger.Debug().Int("evicted", evicted).Int("remaining", remaining).Msg("evicted expired jobs")
	}
}
