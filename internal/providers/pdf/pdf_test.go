package pdf

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRasterizer struct {
	width, height int
	err           error
	lastHTML      string
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, html string) ([]byte, error) {
	f.lastHTML = html
	if f.err != nil {
		return nil, f.err
	}
	return testPNG(f.width, f.height), nil
}

func testPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func testInvoice() domain.Invoice {
	return domain.Invoice{
		InvoiceNumber: "7284 - Acme",
		InvoiceDate:   "2026-03-14",
		Company:       domain.Party{Name: "Northwind"},
		Billing:       domain.Party{Name: "Acme"},
		Currency:      domain.CurrencyUSD,
		Items: []domain.LineItem{
			{ID: "a", Description: "Widget", Quantity: 2, UnitPrice: 50, Total: 100},
		},
		TaxRatePercent: 10,
		Discount:       5,
		Subtotal:       100,
		Tax:            10,
		Total:          105,
		PaymentStatus:  domain.PaymentStatusDue,
		AmountDue:      105,
		Notes:          "Thanks",
	}
}

func TestFitToPage(t *testing.T) {
	tests := []struct {
		name       string
		imgW, imgH float64
		want       Placement
	}{
		{
			name: "tall image is height bound",
			imgW: 100, imgH: 297 * 2,
			want: Placement{X: (210 - 50) / 2.0, Y: 0, Width: 50, Height: 297},
		},
		{
			name: "wide image is width bound",
			imgW: 420, imgH: 100,
			want: Placement{X: 0, Y: (297 - 50) / 2.0, Width: 210, Height: 50},
		},
		{
			name: "same aspect fills the page",
			imgW: 794, imgH: 794 * 297 / 210.0,
			want: Placement{X: 0, Y: 0, Width: 210, Height: 297},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitToPage(tt.imgW, tt.imgH, pageWidthMM, pageHeightMM)
			assert.InDelta(t, tt.want.X, got.X, 1e-6)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-6)
			assert.InDelta(t, tt.want.Width, got.Width, 1e-6)
			assert.InDelta(t, tt.want.Height, got.Height, 1e-6)
			assert.InDelta(t, tt.imgW/tt.imgH, got.Width/got.Height, 1e-6)
		})
	}
}

func TestFitToPageDegenerate(t *testing.T) {
	got := FitToPage(0, 10, pageWidthMM, pageHeightMM)
	assert.Equal(t, Placement{Width: pageWidthMM, Height: pageHeightMM}, got)
}

func TestImageToPDF(t *testing.T) {
	data, err := ImageToPDF(testPNG(120, 170), "7284 - Acme")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Contains(t, string(data), "/MediaBox [0 0 595.28 841.89]", "one A4 page in points")

	_, err = ImageToPDF(nil, "x")
	assert.ErrorIs(t, err, ErrEmptyRaster)

	_, err = ImageToPDF([]byte("not a png"), "x")
	assert.Error(t, err)
}

func TestRasterExporter(t *testing.T) {
	raster := &fakeRasterizer{width: 200, height: 280}
	exporter := NewRasterExporter(zap.NewNop(), render.NewRenderer(), raster, nil)

	out, err := exporter.Export(context.Background(), testInvoice())
	require.NoError(t, err)

	assert.Equal(t, "invoice-7284 - Acme.pdf", out.Filename)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.True(t, bytes.HasPrefix(out.Data, []byte("%PDF")))
	assert.Contains(t, raster.lastHTML, "7284 - Acme")
}

func TestRasterExporterErrors(t *testing.T) {
	boom := errors.New("chrome crashed")
	exporter := NewRasterExporter(nil, render.NewRenderer(), &fakeRasterizer{err: boom}, nil)

	_, err := exporter.Export(context.Background(), testInvoice())
	assert.ErrorIs(t, err, boom)

	_, err = NewRasterExporter(nil, render.NewRenderer(), nil, nil).Export(context.Background(), testInvoice())
	assert.ErrorIs(t, err, domain.ErrRendererNotConfigured)
}

func TestGenerateInvoiceAndReceipt(t *testing.T) {
	provider := New()

	reader, err := provider.GenerateInvoice(context.Background(), testInvoice())
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	paid := testInvoice()
	paid.PaymentStatus = domain.PaymentStatusPaid
	paid.AmountPaid = 105
	paid.AmountDue = 0
	reader, err = provider.GenerateReceipt(context.Background(), paid)
	require.NoError(t, err)
	data, err = io.ReadAll(reader)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestNewInvoiceData(t *testing.T) {
	data := newInvoiceData(testInvoice())

	assert.Equal(t, "Tax (10%)", data.TaxLabel)
	assert.Equal(t, "-$5.00", data.Discount)
	assert.Equal(t, "$105.00", data.Total)
	assert.Equal(t, "March 14, 2026", data.IssueDate)
	assert.Equal(t, "Due", data.StatusLabel)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "$50.00", data.Items[0].UnitPrice)
	assert.Nil(t, data.Logo)
}

func TestDecodeLogo(t *testing.T) {
	logo, err := DecodeLogo("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), logo.Data)

	_, err = DecodeLogo("data:image/svg+xml;base64,aGVsbG8=")
	assert.Error(t, err)

	_, err = DecodeLogo("https://example.com/logo.png")
	assert.Error(t, err)

	_, err = DecodeLogo("data:image/png;base64,%%%")
	assert.Error(t, err)
}
