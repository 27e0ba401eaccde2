package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	invoicedomain "github.com/smallbiznis/invoicer/internal/invoice/domain"
	templatedomain "github.com/smallbiznis/invoicer/internal/invoicetemplate/domain"
	"gorm.io/gorm"
)

const (
	ReasonDeadlineExceeded = "deadline_exceeded"
	ReasonInvalidInput     = "invalid_input"
	ReasonNotFound         = "not_found"
	ReasonStoreUnavailable = "store_unavailable"
	ReasonUniqueViolation  = "unique_violation"
	ReasonUnknown          = "unknown"
)

// SessionMetrics tracks editing sessions and the latency of work done on them.
type SessionMetrics struct {
	active         prometheus.Gauge
	created        prometheus.Counter
	expired        prometheus.Counter
	intentDuration *prometheus.HistogramVec
	intentErrors   *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	exportErrors   *prometheus.CounterVec
}

var (
	sessionMetricsOnce sync.Once
	sessionMetrics     *SessionMetrics
)

// Sessions returns the singleton session metrics registry.
func Sessions() *SessionMetrics {
	return SessionsWithConfig(Config{})
}

// SessionsWithConfig returns the singleton session metrics registry using config labels.
func SessionsWithConfig(cfg Config) *SessionMetrics {
	sessionMetricsOnce.Do(func() {
		sessionMetrics = NewSessionMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return sessionMetrics
}

// NewSessionMetrics registers the session collectors on registerer.
func NewSessionMetrics(registerer prometheus.Registerer, cfg Config) *SessionMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabels(cfg)

	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "invoicer_sessions_active",
		Help:        "Editing sessions currently held in memory.",
		ConstLabels: constLabels,
	})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "invoicer_sessions_created_total",
		Help:        "Editing sessions opened.",
		ConstLabels: constLabels,
	})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "invoicer_sessions_expired_total",
		Help:        "Editing sessions dropped after sitting idle.",
		ConstLabels: constLabels,
	})
	intentDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "invoicer_intent_duration_seconds",
		Help:        "Time spent reducing one intent, lock wait included.",
		Buckets:     []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.1},
		ConstLabels: constLabels,
	}, []string{"kind"})
	intentErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoicer_intent_errors_total",
		Help:        "Rejected intents by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"kind", "reason"})
	// Raster exports drive a headless browser and dominate request latency.
	exportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "invoicer_export_duration_seconds",
		Help:        "Document export latency by format.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		ConstLabels: constLabels,
	}, []string{"format"})
	exportErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoicer_export_errors_total",
		Help:        "Failed document exports by format and reason.",
		ConstLabels: constLabels,
	}, []string{"format", "reason"})

	registerer.MustRegister(
		active,
		created,
		expired,
		intentDuration,
		intentErrors,
		exportDuration,
		exportErrors,
	)

	return &SessionMetrics{
		active:         active,
		created:        created,
		expired:        expired,
		intentDuration: intentDuration,
		intentErrors:   intentErrors,
		exportDuration: exportDuration,
		exportErrors:   exportErrors,
	}
}

func constLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "invoicer"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}

func (m *SessionMetrics) IncCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

func (m *SessionMetrics) AddExpired(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.expired.Add(float64(count))
}

func (m *SessionMetrics) SetActive(count int) {
	if m == nil {
		return
	}
	m.active.Set(float64(count))
}

// ObserveIntent records reduction latency and, on failure, the reason.
func (m *SessionMetrics) ObserveIntent(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.intentDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		m.intentErrors.WithLabelValues(kind, ClassifyReason(err)).Inc()
	}
}

// ObserveExport records export latency and, on failure, the reason.
func (m *SessionMetrics) ObserveExport(format string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.exportDuration.WithLabelValues(format).Observe(duration.Seconds())
	if err != nil {
		m.exportErrors.WithLabelValues(format, ClassifyReason(err)).Inc()
	}
}

// ClassifyReason maps errors to low-cardinality reasons.
func ClassifyReason(err error) string {
	switch {
	case err == nil:
		return ReasonUnknown
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return ReasonDeadlineExceeded
	case isInvalidInput(err):
		return ReasonInvalidInput
	case errors.Is(err, invoicedomain.ErrSessionNotFound) || errors.Is(err, templatedomain.ErrNotFound):
		return ReasonNotFound
	case isUniqueViolation(err):
		return ReasonUniqueViolation
	case isStoreError(err):
		return ReasonStoreUnavailable
	default:
		return ReasonUnknown
	}
}

func isInvalidInput(err error) bool {
	return errors.Is(err, invoicedomain.ErrUnknownIntent) ||
		errors.Is(err, invoicedomain.ErrUnknownField) ||
		errors.Is(err, invoicedomain.ErrUnsupportedCurrency) ||
		errors.Is(err, invoicedomain.ErrInvalidStatus) ||
		errors.Is(err, invoicedomain.ErrInvalidSnapshot) ||
		errors.Is(err, invoicedomain.ErrInvalidSessionID) ||
		errors.Is(err, templatedomain.ErrInvalidName)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isStoreError(err error) bool {
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrUnsupportedDriver) ||
		errors.Is(err, redis.ErrClosed) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true
	}
	var redisErr redis.Error
	return errors.As(err, &redisErr)
}
