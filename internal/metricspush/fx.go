package metricspush

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/invoicer/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("metrics.push",
	fx.Provide(NewPusher),
	fx.Invoke(startWorker),
)

// Worker pushes the gatherer on every tick and once more on shutdown.
type Worker struct {
	pusher   Pusher
	gatherer prometheus.Gatherer
	interval time.Duration
	log      *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(pusher Pusher, gatherer prometheus.Gatherer, interval time.Duration, log *zap.Logger) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		pusher:   pusher,
		gatherer: gatherer,
		interval: interval,
		log:      log.Named("metrics.push"),
	}
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.PushOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.PushOnce(ctx)
	return nil
}

// PushOnce sends one snapshot. Failures are logged; pushing never affects requests.
func (w *Worker) PushOnce(ctx context.Context) {
	pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()
	if err := w.pusher.Push(pushCtx, w.gatherer); err != nil {
		w.log.Warn("metrics push failed", zap.Error(err))
	}
}

func startWorker(lc fx.Lifecycle, cfg config.Config, pusher Pusher, log *zap.Logger) {
	if pusher == nil {
		return
	}

	w := NewWorker(pusher, prometheus.DefaultGatherer, time.Duration(cfg.Push.IntervalSeconds)*time.Second, log)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.log.Info("starting metrics push worker", zap.Duration("interval", w.interval))
			w.Start()
			return nil
		},
		OnStop: w.Stop,
	})
}
