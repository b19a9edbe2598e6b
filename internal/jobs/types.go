// Package jobs defines the asynchronous ingestion job model. The queue
// serializes batch loads: the ledger assumes a single writer, so every
// implementation must process ingestion jobs one at a time.
package jobs

import (
	"context"
	"time"

	"github.com/finledger/ledger-engine/internal/pipeline"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
)

// IngestBatchJob is one queued ingestion batch.
type IngestBatchJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Batch is the raw payload handed to the pipeline.
	Batch pipeline.Batch `json:"batch"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// Report is the pipeline's run report, set once the job finishes.
	Report *pipeline.RunReport `json:"report,omitempty"`
}

// Publisher defines the interface for publishing ingestion jobs.
// The abstraction allows swapping the in-memory queue for Cloud Tasks or
// Pub/Sub without touching the API layer.
type Publisher interface {
	// PublishIngestBatch enqueues an ingestion job.
	PublishIngestBatch(ctx context.Context, job *IngestBatchJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; handler is called for each job.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes one job and returns the run report, or an error when
// the run could not execute.
type JobHandler func(ctx context.Context, job *IngestBatchJob) (*pipeline.RunReport, error)

// JobStore tracks job state for status queries.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *IngestBatchJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*IngestBatchJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*IngestBatchJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results; 0 means no limit.
	Limit int
}
