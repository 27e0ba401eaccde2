package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/invoicer/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicer/internal/invoice/domain"
	templatedomain "github.com/smallbiznis/invoicer/internal/invoicetemplate/domain"
	"github.com/smallbiznis/invoicer/internal/invoicetemplate/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) ListNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *mockRepo) FindByName(ctx context.Context, name string) (*templatedomain.Template, error) {
	args := m.Called(ctx, name)
	tmpl, _ := args.Get(0).(*templatedomain.Template)
	return tmpl, args.Error(1)
}

func (m *mockRepo) Upsert(ctx context.Context, tmpl *templatedomain.Template) error {
	return m.Called(ctx, tmpl).Error(0)
}

func newTestService(repo templatedomain.Repository) templatedomain.Service {
	return NewService(Params{
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)),
		Repo:  repo,
	})
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryRepository())

	inv := invoicedomain.Invoice{
		InvoiceNumberSeed: "7284",
		InvoiceNumber:     "7284 - Acme",
		Billing:           invoicedomain.Party{Name: "Acme"},
		Currency:          invoicedomain.CurrencyEUR,
		Items:             []invoicedomain.LineItem{{ID: "a", Description: "Widget", Quantity: 2, UnitPrice: 50, Total: 100}},
		TaxRatePercent:    10,
		PaymentStatus:     invoicedomain.PaymentStatusDue,
	}

	require.NoError(t, svc.Save(ctx, "  monthly ", inv))
	require.NoError(t, svc.Save(ctx, "weekly", inv))
	require.NoError(t, svc.Save(ctx, "monthly", inv))

	names, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"monthly", "weekly"}, names)

	loaded, err := svc.Load(ctx, "monthly")
	require.NoError(t, err)
	assert.Equal(t, inv, loaded)
}

func TestListEmpty(t *testing.T) {
	names, err := newTestService(repository.NewMemoryRepository()).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestInvalidNames(t *testing.T) {
	svc := newTestService(repository.NewMemoryRepository())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Save(ctx, "   ", invoicedomain.Invoice{}), templatedomain.ErrInvalidName)
	_, err := svc.Load(ctx, "")
	assert.ErrorIs(t, err, templatedomain.ErrInvalidName)
}

func TestLoadMissing(t *testing.T) {
	_, err := newTestService(repository.NewMemoryRepository()).Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, templatedomain.ErrNotFound)
}

func TestLoadLegacyShape(t *testing.T) {
	repo := new(mockRepo)
	repo.On("FindByName", mock.Anything, "old").Return(&templatedomain.Template{
		Name:     "old",
		Snapshot: []byte(`{"customerName":"Globex","shippingName":"Dock 4","taxRate":8.5,"invoiceNumber":"4410 - Globex"}`),
	}, nil)

	inv, err := newTestService(repo).Load(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "Globex", inv.Billing.Name)
	assert.Equal(t, "Dock 4", inv.Shipping.Name)
	assert.InDelta(t, 8.5, inv.TaxRatePercent, 1e-9)
	repo.AssertExpectations(t)
}

func TestLoadCorruptSnapshot(t *testing.T) {
	repo := new(mockRepo)
	repo.On("FindByName", mock.Anything, "bad").Return(&templatedomain.Template{Name: "bad", Snapshot: []byte(`not json`)}, nil)

	_, err := newTestService(repo).Load(context.Background(), "bad")
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidSnapshot)
}

func TestStoreFailuresAreWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	repo := new(mockRepo)
	repo.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.Template")).Return(boom)
	repo.On("ListNames", mock.Anything).Return(nil, boom)

	svc := newTestService(repo)
	err := svc.Save(context.Background(), "x", invoicedomain.Invoice{})
	assert.ErrorIs(t, err, boom)

	_, err = svc.List(context.Background())
	assert.ErrorIs(t, err, boom)
}
