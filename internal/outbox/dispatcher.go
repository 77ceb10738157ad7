package outbox

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/creditsettle/internal/config"
	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/metrics"
)

const (
	baseBackoff = time.Second
	maxBackoff  = 10 * time.Minute
)

// Dispatcher polls pending outbox messages and hands them to the publisher.
// Failed deliveries back off exponentially and are marked dead after
// maxAttempts.
type Dispatcher struct {
	repo        Repo
	publisher   Publisher
	workerPool  WorkerPoolI
	limit       uint32
	maxAttempts int
	interval    time.Duration
	inFlight    sync.Map
	now         func() time.Time
}

func NewDispatcher(cfg *config.Config, repo Repo, publisher Publisher) *Dispatcher {
	return &Dispatcher{
		repo:        repo,
		publisher:   publisher,
		workerPool:  NewWorkerPool(cfg.OutboxWorkers),
		limit:       cfg.OutboxBatch,
		maxAttempts: cfg.OutboxMaxAttempts,
		interval:    cfg.OutboxInterval,
		now:         time.Now,
	}
}

// Start polls until ctx is done. It returns once in-flight deliveries have
// finished, so the publisher can be closed afterwards.
func (d *Dispatcher) Start(ctx context.Context) {
	zap.L().Info("outbox dispatcher started", zap.Duration("interval", d.interval))
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	defer d.workerPool.Close()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("context canceled, stopping outbox dispatcher")
			return
		case <-ticker.C:
			d.dispatch(ctx)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context) {
	messages, err := d.repo.FetchPending(ctx, d.limit)
	if err != nil {
		zap.L().Error("failed to fetch pending outbox messages", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, msg := range messages {
		if _, loaded := d.inFlight.LoadOrStore(msg.ID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := d.workerPool.AddTask(ctx, func() error {
				defer d.inFlight.Delete(msg.ID)
				return d.deliver(ctx, msg)
			})
			if err != nil {
				d.inFlight.Delete(msg.ID)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("error dispatching outbox messages", zap.Error(err))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg domain.OutboxMessage) error {
	pubErr := d.publisher.Publish(ctx, msg)
	if pubErr == nil {
		metrics.OutboxDeliveriesTotal.WithLabelValues("delivered").Inc()
		return d.repo.MarkDelivered(ctx, msg.ID)
	}

	attempts := msg.Attempts + 1
	if attempts >= d.maxAttempts {
		metrics.OutboxDeliveriesTotal.WithLabelValues("dead").Inc()
		zap.L().Error("outbox message exhausted retries",
			zap.String("id", msg.ID), zap.String("key", msg.Key), zap.Int("attempts", attempts), zap.Error(pubErr))
		return d.repo.MarkDead(ctx, msg.ID, attempts, pubErr.Error())
	}

	next := d.now().Add(backoff(attempts))
	metrics.OutboxDeliveriesTotal.WithLabelValues("retry").Inc()
	zap.L().Warn("outbox delivery failed, retrying",
		zap.String("id", msg.ID), zap.Int("attempt", attempts), zap.Time("next_attempt_at", next), zap.Error(pubErr))
	return d.repo.MarkRetry(ctx, msg.ID, attempts, pubErr.Error(), next)
}

func backoff(attempt int) time.Duration {
	delay := baseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
