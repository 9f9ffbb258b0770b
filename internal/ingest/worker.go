package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leaseline/leaseline/internal/clock"
	"github.com/leaseline/leaseline/internal/config"
	"github.com/leaseline/leaseline/internal/observability/metrics"
	queuedomain "github.com/leaseline/leaseline/internal/queue/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PoolParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	IngestCfg *config.IngestConfigHolder
	Queue     queuedomain.Repository
	Processor *Processor
	Metrics   *metrics.Metrics
}

type eventProcessor interface {
	Process(ctx context.Context, event queuedomain.InboundEvent) Outcome
}

// Pool drains the inbound event queue. Each worker claims a batch under its
// own lock token, runs every event through the processor with a per-event
// timeout, and settles the event according to the outcome kind.
type Pool struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	ingestCfg *config.IngestConfigHolder
	queue     queuedomain.Repository
	processor eventProcessor
	metrics   *metrics.Metrics

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(p PoolParams) *Pool {
	return &Pool{
		db:        p.DB,
		log:       p.Log.Named("ingest.pool"),
		clock:     p.Clock,
		ingestCfg: p.IngestCfg,
		queue:     p.Queue,
		processor: p.Processor,
		metrics:   p.Metrics,
	}
}

func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	workers := p.ingestCfg.Current().Workers
	p.log.Info("starting ingest workers", zap.Int("workers", workers))
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, worker int) {
	defer p.wg.Done()
	log := p.log.With(zap.Int("worker", worker))

	ticker := time.NewTicker(p.ingestCfg.Current().PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cfg := p.ingestCfg.Current()
		ticker.Reset(cfg.PollInterval)

		token := uuid.NewString()
		events, err := p.queue.Claim(ctx, p.db, token, cfg.BatchSize, p.clock.Now(), cfg.VisibilityTimeout)
		if err != nil {
			log.Warn("claim failed", zap.Error(err))
			continue
		}
		for _, event := range events {
			if ctx.Err() != nil {
				return
			}
			p.handle(ctx, log, event, token, cfg)
		}
	}
}

func (p *Pool) handle(ctx context.Context, log *zap.Logger, event queuedomain.InboundEvent, token string, cfg config.IngestConfig) {
	eventCtx, cancel := context.WithTimeout(ctx, cfg.EventTimeout)
	defer cancel()

	started := p.clock.Now()
	outcome := p.processor.Process(eventCtx, event)
	p.metrics.ProcessingTime.Observe(p.clock.Now().Sub(started).Seconds())
	p.metrics.EventsProcessed.WithLabelValues(outcome.Kind.String()).Inc()

	// settle on the parent ctx so a per-event timeout cannot strand the
	// claim until the visibility deadline
	switch outcome.Kind {
	case KindSuccess:
		if err := p.queue.Done(ctx, p.db, event.ID, token); err != nil {
			log.Warn("ack failed", zap.String("message_id", event.MessageID), zap.Error(err))
		}
	case KindPermanent:
		log.Info("event rejected",
			zap.String("message_id", event.MessageID),
			zap.String("reason", outcome.Reason),
			zap.Error(outcome.Err),
		)
		p.bury(ctx, log, event, token, outcome.Reason)
	case KindTransient:
		if event.Attempts >= cfg.MaxAttempts {
			log.Warn("event exhausted retries",
				zap.String("message_id", event.MessageID),
				zap.Int("attempts", event.Attempts),
				zap.String("reason", outcome.Reason),
				zap.Error(outcome.Err),
			)
			p.bury(ctx, log, event, token, ReasonMaxAttempts)
			return
		}
		backoff := cfg.RetryBackoff * time.Duration(event.Attempts)
		reason := outcome.Reason
		if outcome.Err != nil {
			reason = reason + ": " + outcome.Err.Error()
		}
		if err := p.queue.Release(ctx, p.db, event.ID, token, backoff, reason, p.clock.Now()); err != nil {
			log.Warn("release failed", zap.String("message_id", event.MessageID), zap.Error(err))
			return
		}
		p.metrics.Retries.Inc()
	}
}

func (p *Pool) bury(ctx context.Context, log *zap.Logger, event queuedomain.InboundEvent, token, reason string) {
	if err := p.queue.Bury(ctx, p.db, &event, token, reason, p.clock.Now()); err != nil {
		log.Warn("bury failed", zap.String("message_id", event.MessageID), zap.Error(err))
		return
	}
	p.metrics.DeadLettered.WithLabelValues(reason).Inc()
}

func registerHooks(lc fx.Lifecycle, pool *Pool) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			pool.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			pool.Stop()
			return nil
		},
	})
}

var Module = fx.Module("ingest",
	fx.Provide(ProvideLock),
	fx.Provide(NewProcessor),
	fx.Provide(NewPool),
	fx.Invoke(registerHooks),
)
