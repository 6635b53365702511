package cleanup

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/internal/usecase"
	"github.com/xueshanchen/picbed/pkg/logger"
)

// Reconciler drains pending cleanup markers in the background: deletes
// the orphan blobs they reference, retires markers that exhaust their
// retries, and periodically purges terminal rows.
type Reconciler struct {
	cleanup usecase.CleanupUseCase
	logger  logger.Interface

	pollInterval        time.Duration
	purgeInterval       time.Duration
	processBatchTimeout time.Duration
	batchSize           int
	maxRetries          int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	cleanup usecase.CleanupUseCase,
	l logger.Interface,
	pollInterval time.Duration,
	purgeInterval time.Duration,
	processBatchTimeout time.Duration,
	batchSize int,
	maxRetries int,
) *Reconciler {
	return &Reconciler{
		cleanup:             cleanup,
		logger:              l,
		pollInterval:        pollInterval,
		purgeInterval:       purgeInterval,
		processBatchTimeout: processBatchTimeout,
		batchSize:           batchSize,
		maxRetries:          maxRetries,
	}
}

func (r *Reconciler) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Reconciler - Start - worker already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	// 1. reap pending markers
	r.worker(r.pollInterval, func() {
		batchCtx, batchCancel := context.WithTimeout(r.ctx, r.processBatchTimeout)
		r.processBatch(batchCtx)
		batchCancel()
	})

	// 2. retire markers past max retries, then purge terminal rows
	r.worker(r.purgeInterval, func() {
		err := r.cleanup.MarkMaxRetriesAsFailed(r.ctx, r.maxRetries)
		if err != nil {
			r.logger.Error(err, "Reconciler - Start - worker - r.cleanup.MarkMaxRetriesAsFailed")
		}

		err = r.cleanup.PurgeTerminal(r.ctx)
		if err != nil {
			r.logger.Error(err, "Reconciler - Start - worker - r.cleanup.PurgeTerminal")
		}
	})

	return nil
}

func (r *Reconciler) processBatch(ctx context.Context) {
	// 1. pending markers with retry count below the cap
	markers, err := r.cleanup.GetPendingMarkers(ctx, r.maxRetries, r.batchSize)
	if err != nil {
		r.logger.Error(err, "Reconciler - processBatch - r.cleanup.GetPendingMarkers")

		return
	}
	if len(markers) == 0 {
		return
	}

	// 2. claim the batch
	err = r.cleanup.MarkProcessing(ctx, markers)
	if err != nil {
		r.logger.Error(err, "Reconciler - processBatch - r.cleanup.MarkProcessing")

		return
	}

	// 3. delete blobs one by one; markers split by outcome
	var reaped, failed []*entity.CleanupMarker
	for _, marker := range markers {
		if err := r.cleanup.ReapMarker(ctx, marker); err != nil {
			r.logger.Error(err, "Reconciler - processBatch - r.cleanup.ReapMarker")
			failed = append(failed, marker)

			continue
		}
		reaped = append(reaped, marker)
	}

	if len(reaped) > 0 {
		err = r.cleanup.MarkProcessed(ctx, reaped)
		if err != nil {
			r.logger.Error(err, "Reconciler - processBatch - r.cleanup.MarkProcessed")
		}
	}

	// 4. failed markers go back to pending with retry count bumped
	if len(failed) > 0 {
		err = r.cleanup.IncrementRetry(ctx, failed)
		if err != nil {
			r.logger.Error(err, "Reconciler - processBatch - r.cleanup.IncrementRetry")
		}
	}
}

func (r *Reconciler) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (r *Reconciler) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
