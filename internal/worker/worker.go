package worker

import (
	"context"
	"sync"

	"go-disaster-watch/internal/models"
)

// ProcessFunc handles one incident. Errors are the caller's to record; the
// pool never stops on them.
type ProcessFunc func(ctx context.Context, incident *models.Incident) error

// Pool processes incidents on a bounded set of workers. The monitoring pass
// submits its whole batch and drains the pool; one incident's failure never
// affects another's.
type Pool struct {
	numWorkers int
	incidents  chan *models.Incident
	processor  ProcessFunc
	wg         sync.WaitGroup
}

func NewPool(numWorkers int, bufferSize int, processor ProcessFunc) *Pool {
	return &Pool{
		numWorkers: numWorkers,
		incidents:  make(chan *models.Incident, bufferSize),
		processor:  processor,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case incident, ok := <-p.incidents:
			if !ok {
				return
			}
			p.processor(ctx, incident)
		}
	}
}

func (p *Pool) Submit(incident *models.Incident) {
	p.incidents <- incident
}

// Drain closes the submission channel and waits for in-flight work.
func (p *Pool) Drain() {
	close(p.incidents)
	p.wg.Wait()
}
