package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mediaworker/internal/domain"
)

type tallyProcessor struct {
	mu      sync.Mutex
	outcome map[string]error
	skipped map[string]bool
	seen    []string
}

func (p *tallyProcessor) Process(ctx context.Context, job domain.Job) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, job.ID)
	if p.skipped[job.ID] {
		return false, nil
	}
	return true, p.outcome[job.ID]
}

func TestDispatcherRunTallies(t *testing.T) {
	repo := newFakeJobRepo()
	repo.runnable = []domain.Job{
		imageJob("job-1"),
		imageJob("job-2"),
		videoJob("job-3"),
	}
	proc := &tallyProcessor{
		outcome: map[string]error{"job-2": errors.New("boom")},
		skipped: map[string]bool{"job-3": true},
	}
	d := NewDispatcher(repo, proc, 5, testLogger())

	summary, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Processed != 2 || summary.Successful != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(summary.Jobs) != 2 {
		t.Fatalf("jobs = %+v, want the skipped job excluded", summary.Jobs)
	}
	for _, js := range summary.Jobs {
		if js.ID == "job-3" {
			t.Fatal("skipped job must not appear in the summary")
		}
		if js.Type == "" || js.Provider == "" {
			t.Fatalf("job summary missing fields: %+v", js)
		}
	}
	if len(proc.seen) != 3 {
		t.Fatalf("processed %d jobs, want all 3 dispatched", len(proc.seen))
	}
}

func TestDispatcherHonorsBatchSize(t *testing.T) {
	repo := newFakeJobRepo()
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		repo.runnable = append(repo.runnable, imageJob(id))
	}
	proc := &tallyProcessor{}
	d := NewDispatcher(repo, proc, 5, testLogger())

	summary, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Processed != 5 {
		t.Fatalf("processed = %d, want the batch capped at 5", summary.Processed)
	}
}

func TestDispatcherEmptyQueue(t *testing.T) {
	d := NewDispatcher(newFakeJobRepo(), &tallyProcessor{}, 5, testLogger())

	summary, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Processed != 0 || len(summary.Jobs) != 0 {
		t.Fatalf("summary = %+v, want empty", summary)
	}
	if summary.Jobs == nil {
		t.Fatal("jobs must serialize as [] rather than null")
	}
}

func TestDispatcherFetchErrorPropagates(t *testing.T) {
	repo := newFakeJobRepo()
	repo.fetchErr = errors.New("db down")
	d := NewDispatcher(repo, &tallyProcessor{}, 5, testLogger())

	if _, err := d.Run(context.Background()); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}
