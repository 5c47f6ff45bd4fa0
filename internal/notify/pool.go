package notify

import (
	"context"
	"fmt"
	"sync"
)

// sendJob is one delivery attempt to one recipient over one channel.
type sendJob struct {
	recipient string
	channel   Channel
	send      func(ctx context.Context) error
}

// Outcome is the result of a single delivery attempt. Outcomes are
// aggregated for logging and metrics only, never for control flow.
type Outcome struct {
	Recipient string
	Channel   Channel
	Err       error
}

// sendPool fans delivery attempts out across a bounded set of workers.
// Each attempt is isolated: errors and panics are captured into the
// outcome so one failing send cannot affect its siblings.
type sendPool struct {
	workers int
}

func newSendPool(workers int) *sendPool {
	if workers < 1 {
		workers = 1
	}
	return &sendPool{workers: workers}
}

func (p *sendPool) run(ctx context.Context, jobs []sendJob) []Outcome {
	if len(jobs) == 0 {
		return nil
	}

	n := p.workers
	if n > len(jobs) {
		n = len(jobs)
	}

	jobCh := make(chan sendJob)
	results := make(chan Outcome, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				results <- Outcome{
					Recipient: job.recipient,
					Channel:   job.channel,
					Err:       attempt(ctx, job),
				}
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()
	close(results)

	outcomes := make([]Outcome, 0, len(jobs))
	for o := range results {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func attempt(ctx context.Context, job sendJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send panicked: %v", r)
		}
	}()
	return job.send(ctx)
}
