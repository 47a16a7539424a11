package worker

import (
	"context"
	"sync"

	"mediaworker/internal/domain"
	"mediaworker/internal/infra"
)

// JobSummary identifies one job a dispatcher run touched.
type JobSummary struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Provider string `json:"provider"`
}

// Summary reports the outcome of one dispatcher run.
type Summary struct {
	Processed  int          `json:"processed"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Jobs       []JobSummary `json:"jobs"`
}

// processor is the per-job entry point the dispatcher fans out to.
type processor interface {
	Process(ctx context.Context, job domain.Job) (bool, error)
}

// Dispatcher fetches one batch of runnable jobs and processes them
// concurrently, one goroutine per job. Jobs lost to a claim race are left out
// of the tally entirely.
type Dispatcher struct {
	jobs      domain.JobRepository
	processor processor
	batchSize int
	log       infra.Logger
}

// NewDispatcher builds a dispatcher with the given batch size.
func NewDispatcher(jobs domain.JobRepository, proc processor, batchSize int, log infra.Logger) *Dispatcher {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Dispatcher{jobs: jobs, processor: proc, batchSize: batchSize, log: log}
}

// Run executes one dispatch cycle. Per-job failures are reflected in the
// summary, not returned; the error return covers only the batch fetch itself.
func (d *Dispatcher) Run(ctx context.Context) (*Summary, error) {
	batch, err := d.jobs.FetchRunnable(ctx, d.batchSize)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Jobs: []JobSummary{}}
	if len(batch) == 0 {
		d.log.Debug().Msg("no runnable jobs")
		return summary, nil
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, job := range batch {
		wg.Add(1)
		go func(job domain.Job) {
			defer wg.Done()
			handled, err := d.processor.Process(ctx, job)
			if !handled {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			summary.Processed++
			if err != nil {
				summary.Failed++
			} else {
				summary.Successful++
			}
			summary.Jobs = append(summary.Jobs, JobSummary{
				ID:       job.ID,
				Type:     string(job.Type),
				Provider: job.Provider,
			})
		}(job)
	}
	wg.Wait()

	d.log.Info().
		Int("processed", summary.Processed).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("dispatch cycle finished")
	return summary, nil
}
