package pipeline

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"dwcarchive/internal/archive"
	"dwcarchive/internal/blob"
	"dwcarchive/internal/diag"
	"dwcarchive/internal/runlog"
)

// ArchiveName is the object name of the packaged archive inside a run's key
// prefix.
const ArchiveName = "ow1_dwca.zip"

// JobStatus describes the lifecycle stage of a queued build.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job tracks one archive build request.
type Job struct {
	ID          string            `json:"id"`
	Status      JobStatus         `json:"status"`
	ArchiveKey  string            `json:"archive_key,omitempty"`
	ArchiveSize int64             `json:"archive_size_bytes,omitempty"`
	Error       string            `json:"error,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

func (j *Job) copy() Job {
	snapshot := *j
	snapshot.Diagnostics = append([]diag.Diagnostic(nil), j.Diagnostics...)
	if j.CompletedAt != nil {
		done := *j.CompletedAt
		snapshot.CompletedAt = &done
	}
	return snapshot
}

type buildTask struct {
	id string
	in Inputs
}

// Worker builds archives asynchronously: each enqueued job runs the
// transformation, packages the archive, stores it in the blob store and
// records the run outcome.
type Worker struct {
	service *Service
	store   blob.Store
	runs    runlog.Store

	queue chan buildTask
	mu    sync.RWMutex
	jobs  map[string]*Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs a build worker. store and runs may be nil; the
// corresponding step is then skipped.
func NewWorker(service *Service, store blob.Store, runs runlog.Store) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		service: service,
		store:   store,
		runs:    runs,
		queue:   make(chan buildTask, 16),
		jobs:    make(map[string]*Job),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins processing queued builds.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// Enqueue schedules a build and returns the queued job snapshot.
func (w *Worker) Enqueue(_ context.Context, in Inputs) (Job, error) {
	if w.service == nil {
		return Job{}, fmt.Errorf("build service not configured")
	}
	id := newID()
	nowUTC := time.Now().UTC()
	job := Job{ID: id, Status: JobQueued, CreatedAt: nowUTC, UpdatedAt: nowUTC}

	w.mu.Lock()
	w.jobs[id] = &job
	queued := job.copy()
	w.mu.Unlock()

	select {
	case w.queue <- buildTask{id: id, in: in}:
	default:
		w.fail(id, "build queue full")
		return Job{}, fmt.Errorf("build queue full")
	}
	return queued, nil
}

// Get returns a snapshot of a job.
func (w *Worker) Get(id string) (Job, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	job, ok := w.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.copy(), true
}

func (w *Worker) process(task buildTask) {
	started := time.Now().UTC()
	w.update(task.id, func(j *Job) { j.Status = JobRunning })

	result, err := w.service.Build(w.ctx, task.in)
	if err != nil {
		w.fail(task.id, fmt.Sprintf("build failed: %v", err))
		w.saveRun(task.id, started, runlog.Record{Status: runlog.StatusFailed, Error: err.Error()})
		return
	}

	var buf bytes.Buffer
	err = archive.Write(&buf, archive.Bundle{
		Event:       result.Event,
		Occurrence:  result.Occurrence,
		Measurement: result.Measurement,
		EML:         result.EML,
	})
	if err != nil {
		w.fail(task.id, fmt.Sprintf("package archive: %v", err))
		w.saveRun(task.id, started, runlog.Record{Status: runlog.StatusFailed, Error: err.Error(), Diagnostics: result.Diagnostics})
		return
	}

	key := fmt.Sprintf("archives/%s/%s", task.id, ArchiveName)
	size := int64(buf.Len())
	if w.store != nil {
		info, err := w.store.Put(w.ctx, key, &buf, blob.PutOptions{
			ContentType: "application/zip",
			Metadata:    map[string]string{"run": task.id},
		})
		if err != nil {
			w.fail(task.id, fmt.Sprintf("store archive: %v", err))
			w.saveRun(task.id, started, runlog.Record{Status: runlog.StatusFailed, Error: err.Error(), Diagnostics: result.Diagnostics})
			return
		}
		size = info.Size
	}

	done := time.Now().UTC()
	w.update(task.id, func(j *Job) {
		j.Status = JobSucceeded
		j.ArchiveKey = key
		j.ArchiveSize = size
		j.Diagnostics = result.Diagnostics
		j.CompletedAt = &done
	})
	w.saveRun(task.id, started, runlog.Record{
		Status:      runlog.StatusSucceeded,
		ArchiveKey:  key,
		ArchiveSize: size,
		Diagnostics: result.Diagnostics,
	})
}

func (w *Worker) fail(id, msg string) {
	done := time.Now().UTC()
	w.update(id, func(j *Job) {
		j.Status = JobFailed
		j.Error = msg
		j.CompletedAt = &done
	})
}

func (w *Worker) update(id string, fn func(*Job)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	job, ok := w.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
}

func (w *Worker) saveRun(id string, started time.Time, rec runlog.Record) {
	if w.runs == nil {
		return
	}
	rec.ID = id
	rec.StartedAt = started
	rec.FinishedAt = time.Now().UTC()
	// A run log write failure must not fail the job after the archive is
	// already stored.
	_ = w.runs.SaveRun(w.ctx, rec)
}

func newID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return "run-" + hex.EncodeToString(buf)
}
