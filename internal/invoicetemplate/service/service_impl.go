package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/invoicer/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicer/internal/invoice/domain"
	templatedomain "github.com/smallbiznis/invoicer/internal/invoicetemplate/domain"
	"github.com/smallbiznis/invoicer/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxNameLength = 255

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Repo    templatedomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	repo    templatedomain.Repository
	metrics *metrics.Metrics
}

func NewService(p Params) templatedomain.Service {
	return &Service{
		log:     p.Log.Named("invoicetemplate.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.repo.ListNames(ctx)
	s.metrics.RecordTemplateOp(ctx, "list", err)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *Service) Save(ctx context.Context, name string, inv invoicedomain.Invoice) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}

	snapshot, err := invoicedomain.EncodeSnapshot(inv)
	if err != nil {
		return fmt.Errorf("encode template %q: %w", name, err)
	}

	now := s.clock.Now()
	tmpl := &templatedomain.Template{
		Name:      name,
		Snapshot:  snapshot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.repo.Upsert(ctx, tmpl)
	s.metrics.RecordTemplateOp(ctx, "save", err)
	if err != nil {
		s.log.Warn("failed to save template", zap.String("template", name), zap.Error(err))
		return fmt.Errorf("save template %q: %w", name, err)
	}

	s.log.Info("template saved", zap.String("template", name), zap.Int("bytes", len(snapshot)))
	return nil
}

func (s *Service) Load(ctx context.Context, name string) (invoicedomain.Invoice, error) {
	name, err := normalizeName(name)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	tmpl, err := s.repo.FindByName(ctx, name)
	s.metrics.RecordTemplateOp(ctx, "load", err)
	if err != nil {
		return invoicedomain.Invoice{}, fmt.Errorf("load template %q: %w", name, err)
	}
	if tmpl == nil {
		return invoicedomain.Invoice{}, templatedomain.ErrNotFound
	}

	inv, err := invoicedomain.DecodeSnapshot(tmpl.Snapshot)
	if err != nil {
		s.log.Warn("stored template is unreadable", zap.String("template", name), zap.Error(err))
		return invoicedomain.Invoice{}, err
	}
	return inv, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || len(name) > maxNameLength {
		return "", templatedomain.ErrInvalidName
	}
	return name, nil
}
