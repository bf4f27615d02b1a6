package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"dwcarchive/internal/archive"
	"dwcarchive/internal/blob"
	"dwcarchive/internal/runlog"
)

func waitForJob(t *testing.T, w *Worker, id string) Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := w.Get(id)
		if !ok {
			t.Fatalf("job %s vanished", id)
		}
		if job.Status == JobSucceeded || job.Status == JobFailed {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return Job{}
}

func TestWorkerBuildsAndStoresArchive(t *testing.T) {
	store := blob.NewMemory()
	runs := runlog.NewMemory()
	w := NewWorker(NewService(), store, runs)
	w.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = w.Stop(ctx)
	}()

	job, err := w.Enqueue(context.Background(), testInputs(t))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if job.Status != JobQueued {
		t.Errorf("initial status: %s", job.Status)
	}

	done := waitForJob(t, w, job.ID)
	if done.Status != JobSucceeded {
		t.Fatalf("job failed: %s", done.Error)
	}
	if done.ArchiveKey == "" || done.ArchiveSize == 0 {
		t.Errorf("archive not recorded on job: %+v", done)
	}

	// The stored object is a complete readable archive.
	_, rc, err := store.Get(context.Background(), done.ArchiveKey)
	if err != nil {
		t.Fatalf("get archive: %v", err)
	}
	payload, _ := io.ReadAll(rc)
	rc.Close()
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{archive.EventFile, archive.OccurrenceFile, archive.MeasurementFile, archive.MetaFile, archive.EMLFile} {
		if !names[want] {
			t.Errorf("archive missing %s", want)
		}
	}

	rec, ok, err := runs.GetRun(context.Background(), job.ID)
	if err != nil || !ok {
		t.Fatalf("run record: ok=%v err=%v", ok, err)
	}
	if rec.Status != runlog.StatusSucceeded || rec.ArchiveKey != done.ArchiveKey {
		t.Errorf("run record: %+v", rec)
	}
}

func TestWorkerRecordsFailure(t *testing.T) {
	runs := runlog.NewMemory()
	w := NewWorker(NewService(), blob.NewMemory(), runs)
	w.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = w.Stop(ctx)
	}()

	in := testInputs(t)
	in.Tows = nil
	job, err := w.Enqueue(context.Background(), in)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	done := waitForJob(t, w, job.ID)
	if done.Status != JobFailed || done.Error == "" {
		t.Fatalf("expected failure, got %+v", done)
	}

	rec, ok, _ := runs.GetRun(context.Background(), job.ID)
	if !ok || rec.Status != runlog.StatusFailed || rec.Error == "" {
		t.Errorf("failed run not recorded: ok=%v %+v", ok, rec)
	}
}

func TestWorkerGetUnknownJob(t *testing.T) {
	w := NewWorker(NewService(), nil, nil)
	if _, ok := w.Get("nope"); ok {
		t.Error("unknown job must not be found")
	}
}
