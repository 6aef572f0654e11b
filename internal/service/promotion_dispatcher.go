package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/pkg/config"
	"github.com/noah-isme/courseflow-api/pkg/jobs"
)

type termApplier interface {
	ApplyEnrollmentTerm(ctx context.Context, studentID string, year, semester int) error
}

type enrollmentTermJob struct {
	StudentID string
	Year      int
	Semester  int
}

// PromotionDispatcher decouples the enroll response from the student term
// update: the enroll call enqueues, workers apply, and failures retry in
// the background without ever reaching the enroll caller.
type PromotionDispatcher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewPromotionDispatcher constructs the dispatcher around an in-memory
// worker queue.
func NewPromotionDispatcher(applier termApplier, cfg config.PromotionConfig, logger *zap.Logger) *PromotionDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(enrollmentTermJob)
		if !ok {
			return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
		}
		return applier.ApplyEnrollmentTerm(ctx, payload.StudentID, payload.Year, payload.Semester)
	}

	queue := jobs.NewQueue("promotion", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})

	return &PromotionDispatcher{queue: queue, logger: logger}
}

// Start launches the worker pool.
func (d *PromotionDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the worker pool.
func (d *PromotionDispatcher) Stop() {
	d.queue.Stop()
}

// DispatchEnrollmentTerm queues a term update for one student. The error
// only reports enqueue failure; the update itself runs asynchronously.
func (d *PromotionDispatcher) DispatchEnrollmentTerm(studentID string, year, semester int) error {
	return d.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "enrollment_term",
		Payload: enrollmentTermJob{
			StudentID: studentID,
			Year:      year,
			Semester:  semester,
		},
	})
}
