package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"content-orchestrator/core/models"
	"content-orchestrator/core/tracker"
	"content-orchestrator/core/workflow"

	"github.com/sirupsen/logrus"
)

// Executor runs workflow pipelines for queued jobs and reports every state
// change back to the tracker. It is the only caller of MarkRunning,
// AppendEvent, Complete and Fail, and always calls them in that order.
type Executor struct {
	tracker    *tracker.Tracker
	pipelines  *workflow.Registry
	queue      *dispatchQueue
	notify     chan struct{}
	workers    int
	jobTimeout time.Duration
	log        *logrus.Logger

	// running maps job id to the cancel handle of its pipeline context
	running map[string]context.CancelFunc
	mu      sync.Mutex

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// New creates an executor. workers <= 0 defaults to 1.
func New(tr *tracker.Tracker, pipelines *workflow.Registry, workers int, jobTimeout time.Duration, log *logrus.Logger) *Executor {
	if workers <= 0 {
		workers = 1
	}
	return &Executor{
		tracker:    tr,
		pipelines:  pipelines,
		queue:      newDispatchQueue(),
		notify:     make(chan struct{}, 1),
		workers:    workers,
		jobTimeout: jobTimeout,
		log:        log,
		running:    make(map[string]context.CancelFunc),
		stopChan:   make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (e *Executor) Start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx)
	}
}

// Stop stops the workers and waits for in-flight pipelines to settle.
func (e *Executor) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
	e.wg.Wait()
}

// Enqueue schedules a submitted job for execution. Never blocks.
func (e *Executor) Enqueue(jobID string) {
	e.queue.Enqueue(jobID)
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// QueueDepth returns the number of jobs waiting for a worker.
func (e *Executor) QueueDepth() int {
	return e.queue.Depth()
}

// Interrupt cancels the pipeline context of a running job. Returns false if
// the job is not currently executing. Callers cancel the tracker state
// separately; the executor only tears down the work.
func (e *Executor) Interrupt(jobID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cancel, ok := e.running[jobID]; ok {
		cancel()
		return true
	}
	return false
}

// RestorePending re-enqueues PENDING jobs after a restart.
func (e *Executor) RestorePending() {
	status := models.JobStatusPending
	for _, v := range e.tracker.List(&status, 0) {
		e.Enqueue(v.ID)
	}
}

// worker drains the queue whenever it is signalled, with a ticker as a
// fallback sweep.
func (e *Executor) worker(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopChan:
			return
		case <-e.notify:
		case <-ticker.C:
		}

		for {
			jobID := e.queue.PopJob()
			if jobID == "" {
				break
			}
			e.run(ctx, jobID)
		}
	}
}

// run executes one job's pipeline end to end.
func (e *Executor) run(ctx context.Context, jobID string) {
	view, err := e.tracker.Get(jobID)
	if err != nil {
		e.log.Errorf("Failed to fetch job %s: %v", jobID, err)
		return
	}

	// Skip jobs cancelled or failed while queued
	if view.Status != models.JobStatusPending {
		e.log.Debugf("Skipping job %s in status %s", jobID, view.Status)
		return
	}

	pipeline, err := e.pipelines.For(view.Input.OperationType)
	if err != nil {
		if failErr := e.tracker.Fail(ctx, jobID, err.Error()); failErr != nil {
			e.log.Errorf("Failed to fail job %s: %v", jobID, failErr)
		}
		return
	}

	if err := e.tracker.MarkRunning(ctx, jobID); err != nil {
		// Double dispatch or a race with cancellation. Either way this
		// job is not ours to run.
		e.log.Errorf("Failed to mark job %s running: %v", jobID, err)
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, e.jobTimeout)
	e.track(jobID, cancel)
	defer e.untrack(jobID)
	defer cancel()

	e.log.Infof("Executing job %s (operation: %s, stages: %d)", jobID, view.Input.OperationType, len(pipeline.Stages))

	outputs := make(map[string]interface{}, len(pipeline.Stages))
	for _, stage := range pipeline.Stages {
		if err := jobCtx.Err(); err != nil {
			e.finishInterrupted(ctx, jobID, err)
			return
		}

		if err := e.tracker.AppendEvent(ctx, jobID, fmt.Sprintf("stage %s started", stage.Name)); err != nil {
			// The job went terminal under us, most likely an external
			// cancel. Treat it as a signal to abandon.
			e.log.Warnf("Abandoning job %s: %v", jobID, err)
			return
		}

		out, err := stage.Run(jobCtx, view.Input, outputs)
		if err != nil {
			if jobCtx.Err() != nil {
				e.finishInterrupted(ctx, jobID, jobCtx.Err())
				return
			}
			msg := fmt.Sprintf("stage %s failed: %v", stage.Name, err)
			if failErr := e.tracker.Fail(ctx, jobID, msg); failErr != nil {
				e.log.Errorf("Failed to fail job %s: %v", jobID, failErr)
			}
			return
		}
		outputs[stage.Name] = out

		if err := e.tracker.AppendEvent(ctx, jobID, fmt.Sprintf("stage %s completed", stage.Name)); err != nil {
			e.log.Warnf("Abandoning job %s: %v", jobID, err)
			return
		}
	}

	result, err := json.Marshal(outputs)
	if err != nil {
		if failErr := e.tracker.Fail(ctx, jobID, fmt.Sprintf("encoding result: %v", err)); failErr != nil {
			e.log.Errorf("Failed to fail job %s: %v", jobID, failErr)
		}
		return
	}

	if err := e.tracker.Complete(ctx, jobID, result); err != nil {
		e.log.Errorf("Failed to complete job %s: %v", jobID, err)
		return
	}
	e.log.Infof("Job %s completed", jobID)
}

// finishInterrupted translates a cancelled or expired pipeline context into
// the matching terminal tracker call. An externally cancelled job is already
// terminal, in which case Fail reports an invalid transition and the job is
// abandoned as-is.
func (e *Executor) finishInterrupted(ctx context.Context, jobID string, cause error) {
	var msg string
	if errors.Is(cause, context.DeadlineExceeded) {
		msg = fmt.Sprintf("pipeline timed out after %s", e.jobTimeout)
	} else {
		msg = fmt.Sprintf("pipeline interrupted: %v", cause)
	}

	if err := e.tracker.Fail(ctx, jobID, msg); err != nil {
		if tracker.IsInvalidTransition(err) {
			e.log.Infof("Job %s already terminal after interrupt", jobID)
			return
		}
		e.log.Errorf("Failed to fail job %s: %v", jobID, err)
	}
}

func (e *Executor) track(jobID string, cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running[jobID] = cancel
}

func (e *Executor) untrack(jobID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, jobID)
}
