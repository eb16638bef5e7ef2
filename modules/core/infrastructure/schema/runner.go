package schema

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/retailcloud/retail-sdk/pkg/serrors"
)

var ErrJobNotFound = serrors.NewError("SCHEMA_JOB_NOT_FOUND", "schema job not found", "")

type JobKind string

const (
	JobBackup     JobKind = "backup"
	JobRestore    JobKind = "restore"
	JobMigrateAll JobKind = "migrate_all"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one queued lifecycle operation. Artifact carries the backup path
// input for restores and the produced path output for backups.
type Job struct {
	ID         uuid.UUID
	Kind       JobKind
	Schema     string
	Artifact   string
	Status     JobStatus
	Error      string
	EnqueuedAt time.Time
	FinishedAt time.Time
}

// Runner executes schema lifecycle jobs off the request path. Jobs run one
// at a time; slow dumps must never stall an admin request handler.
type Runner struct {
	manager *Manager
	logger  *logrus.Logger

	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job

	queue chan uuid.UUID
	done  chan struct{}
}

func NewRunner(manager *Manager, logger *logrus.Logger) *Runner {
	return &Runner{
		manager: manager,
		logger:  logger,
		jobs:    map[uuid.UUID]*Job{},
		queue:   make(chan uuid.UUID, 64),
		done:    make(chan struct{}),
	}
}

// Start launches the worker loop. It drains until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case id := <-r.queue:
				r.run(ctx, id)
			}
		}
	}()
}

// Wait blocks until the worker loop has exited.
func (r *Runner) Wait() {
	<-r.done
}

// Enqueue registers a job and returns its id for status polling.
func (r *Runner) Enqueue(kind JobKind, schemaName, artifact string) (*Job, error) {
	job := &Job{
		ID:         uuid.New(),
		Kind:       kind,
		Schema:     schemaName,
		Artifact:   artifact,
		Status:     JobPending,
		EnqueuedAt: time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	select {
	case r.queue <- job.ID:
	default:
		r.update(job.ID, func(j *Job) {
			j.Status = JobFailed
			j.Error = "job queue is full"
			j.FinishedAt = time.Now()
		})
	}
	return r.Status(job.ID)
}

// Status returns a snapshot of the job, or ErrJobNotFound.
func (r *Runner) Status(id uuid.UUID) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

func (r *Runner) run(ctx context.Context, id uuid.UUID) {
	r.update(id, func(j *Job) {
		j.Status = JobRunning
	})

	r.mu.RLock()
	job := r.jobs[id]
	kind, schemaName, artifact := job.Kind, job.Schema, job.Artifact
	r.mu.RUnlock()

	var (
		resultArtifact string
		err            error
	)
	switch kind {
	case JobBackup:
		resultArtifact, err = r.manager.Backup(ctx, schemaName)
	case JobRestore:
		err = r.manager.Restore(ctx, schemaName, artifact)
	case JobMigrateAll:
		_, err = r.manager.MigrateAll(ctx)
	default:
		err = ErrOperationFailed.WithDetails("unknown job kind %q", kind)
	}

	r.update(id, func(j *Job) {
		j.FinishedAt = time.Now()
		if err != nil {
			j.Status = JobFailed
			j.Error = err.Error()
			return
		}
		j.Status = JobSucceeded
		if resultArtifact != "" {
			j.Artifact = resultArtifact
		}
	})

	if err != nil {
		r.logger.WithFields(logrus.Fields{"job": id, "kind": kind, "schema": schemaName}).
			WithError(err).Error("schema job failed")
		return
	}
	r.logger.WithFields(logrus.Fields{"job": id, "kind": kind, "schema": schemaName}).
		Info("schema job finished")
}

func (r *Runner) update(id uuid.UUID, fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		fn(job)
	}
}
