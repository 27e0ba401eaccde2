// Package session owns the in-memory editing sessions. Each session holds one
// invoice and serializes every reduction on it.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicer/internal/cache"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/engine"
	"github.com/smallbiznis/invoicer/internal/observability/logger"
	"github.com/smallbiznis/invoicer/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultIdleTTL       = 2 * time.Hour
	defaultSweepInterval = time.Minute
)

type session struct {
	mu        sync.Mutex
	id        string
	invoice   domain.Invoice
	updatedAt time.Time
}

type Params struct {
	fx.In

	Lifecycle  fx.Lifecycle `optional:"true"`
	Cfg        config.Config
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Engine     *engine.Engine
	Metrics    *metrics.SessionMetrics `optional:"true"`
	ObsMetrics *metrics.Metrics        `optional:"true"`
}

// Manager implements domain.Service.
type Manager struct {
	log        *zap.Logger
	clock      clock.Clock
	genID      *snowflake.Node
	engine     *engine.Engine
	metrics    *metrics.SessionMetrics
	obsMetrics *metrics.Metrics

	sessions      cache.Cache[string, *session]
	idleTTL       time.Duration
	sweepInterval time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewManager(p Params) *Manager {
	idleTTL := time.Duration(p.Cfg.Sessions.IdleTTLMinutes) * time.Minute
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	sweepInterval := time.Duration(p.Cfg.Sessions.SweepIntervalSeconds) * time.Second
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}

	m := &Manager{
		log:           p.Log.Named("session.manager"),
		clock:         p.Clock,
		genID:         p.GenID,
		engine:        p.Engine,
		metrics:       p.Metrics,
		obsMetrics:    p.ObsMetrics,
		sessions:      cache.NewTTLCache[string, *session](cache.WithNow(p.Clock.Now)),
		idleTTL:       idleTTL,
		sweepInterval: sweepInterval,
	}

	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(context.Context) error {
				m.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return m.Stop(ctx)
			},
		})
	}
	return m
}

var _ domain.Service = (*Manager)(nil)

func (m *Manager) Create(ctx context.Context) (domain.SessionView, error) {
	now := m.clock.Now()
	s := &session{
		id:        m.genID.Generate().String(),
		invoice:   m.engine.NewInvoice(now),
		updatedAt: now,
	}
	view := s.view()
	m.sessions.Set(s.id, s, m.idleTTL)

	m.metrics.IncCreated()
	m.metrics.SetActive(m.sessions.Len())
	logger.WithContext(ctx, m.log).Info("session created",
		zap.String("session_id", s.id),
		zap.String("invoice_number", view.Invoice.InvoiceNumber),
	)

	return view, nil
}

func (m *Manager) Get(ctx context.Context, id string) (domain.SessionView, error) {
	s, err := m.lookup(id)
	if err != nil {
		return domain.SessionView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), nil
}

// Apply reduces intent over the session's invoice. A rejected intent leaves
// the invoice untouched.
func (m *Manager) Apply(ctx context.Context, id string, intent domain.Intent) (domain.SessionView, error) {
	s, err := m.lookup(id)
	if err != nil {
		return domain.SessionView{}, err
	}

	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := m.engine.Reduce(s.invoice, intent)
	kind := string(intent.Kind)
	if errors.Is(err, domain.ErrUnknownIntent) {
		kind = "unknown"
	}
	m.metrics.ObserveIntent(kind, time.Since(start), err)
	m.obsMetrics.RecordIntent(ctx, kind, err)
	if err != nil {
		logger.WithContext(ctx, m.log).Debug("intent rejected",
			zap.String("kind", string(intent.Kind)),
			zap.String("field", intent.Field),
			zap.Error(err),
		)
		return domain.SessionView{}, err
	}

	s.invoice = next
	s.updatedAt = m.clock.Now()
	return s.view(), nil
}

func (m *Manager) Snapshot(ctx context.Context, id string) (domain.Invoice, error) {
	s, err := m.lookup(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoice.Clone(), nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	if _, err := m.lookup(id); err != nil {
		return err
	}
	m.sessions.Delete(id)
	m.metrics.SetActive(m.sessions.Len())
	logger.WithContext(ctx, m.log).Info("session deleted", zap.String("session_id", id))
	return nil
}

func (m *Manager) lookup(id string) (*session, error) {
	id = strings.TrimSpace(id)
	if _, err := snowflake.ParseString(id); err != nil || id == "" {
		return nil, domain.ErrInvalidSessionID
	}
	s, ok := m.sessions.Touch(id, m.idleTTL)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Sweep drops sessions idle for longer than the configured ttl.
func (m *Manager) Sweep() int {
	expired := m.sessions.Sweep()
	if len(expired) == 0 {
		return 0
	}
	m.metrics.AddExpired(len(expired))
	m.metrics.SetActive(m.sessions.Len())
	m.log.Info("expired idle sessions", zap.Int("count", len(expired)))
	return len(expired)
}

// Start runs the idle sweeper until Stop.
func (m *Manager) Start() {
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-m.stop:
				return
			}
		}
	}()
}

func (m *Manager) Stop(ctx context.Context) error {
	if m.stop == nil {
		return nil
	}
	close(m.stop)
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) view() domain.SessionView {
	inv := s.invoice.Clone()
	return domain.SessionView{
		ID:                 s.id,
		Invoice:            inv,
		AmountPaidEditable: inv.PaymentStatus != domain.PaymentStatusDue,
		ShippingEditable:   !inv.ShipToBillSame,
		UpdatedAt:          s.updatedAt,
	}
}
