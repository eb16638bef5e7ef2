package schema

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_StatusUnknownJob(t *testing.T) {
	r := NewRunner(testManager(t), logrus.New())

	_, err := r.Status(uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunner_EnqueueReturnsPendingJob(t *testing.T) {
	// Worker not started: the job must sit in the queue as pending.
	r := NewRunner(testManager(t), logrus.New())

	job, err := r.Enqueue(JobBackup, "tenant_acme", "")
	require.NoError(t, err)
	assert.Equal(t, JobPending, job.Status)
	assert.Equal(t, "tenant_acme", job.Schema)
	assert.False(t, job.EnqueuedAt.IsZero())
}

func TestRunner_StatusReturnsSnapshot(t *testing.T) {
	r := NewRunner(testManager(t), logrus.New())

	job, err := r.Enqueue(JobBackup, "tenant_acme", "")
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the runner's state.
	job.Status = JobFailed
	stored, err := r.Status(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobPending, stored.Status)
}
