package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"go-disaster-watch/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func incidentBatch(n int) []*models.Incident {
	batch := make([]*models.Incident, n)
	for i := range batch {
		batch[i] = &models.Incident{ID: fmt.Sprintf("inc_%d", i)}
	}
	return batch
}

func TestPool_ProcessesWholeBatch(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, incident *models.Incident) error {
		processed.Add(1)
		return nil
	}

	pool := NewPool(2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for _, inc := range incidentBatch(5) {
		pool.Submit(inc)
	}
	pool.Drain()

	if processed.Load() != 5 {
		t.Errorf("expected 5 incidents processed, got %d", processed.Load())
	}
}

func TestPool_FailureIsolation(t *testing.T) {
	var succeeded atomic.Int64
	processor := func(ctx context.Context, incident *models.Incident) error {
		if incident.ID == "inc_2" {
			return errors.New("analysis unavailable")
		}
		succeeded.Add(1)
		return nil
	}

	pool := NewPool(2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for _, inc := range incidentBatch(6) {
		pool.Submit(inc)
	}
	pool.Drain()

	if succeeded.Load() != 5 {
		t.Errorf("expected 5 successes despite one failure, got %d", succeeded.Load())
	}
}

func TestPool_ContextCancellation(t *testing.T) {
	var started atomic.Int64
	processor := func(ctx context.Context, incident *models.Incident) error {
		started.Add(1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
			return nil
		}
	}

	pool := NewPool(2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for _, inc := range incidentBatch(5) {
		pool.Submit(inc)
	}

	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Drain()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool.Drain() timed out after cancellation")
	}

	t.Logf("started %d incidents before shutdown", started.Load())
}
