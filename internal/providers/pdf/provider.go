package pdf

import (
	"context"
	"io"

	"github.com/smallbiznis/invoicer/internal/invoice/domain"
)

// Provider builds structured PDF documents from an invoice snapshot.
type Provider interface {
	GenerateInvoice(ctx context.Context, inv domain.Invoice) (io.Reader, error)
	GenerateReceipt(ctx context.Context, inv domain.Invoice) (io.Reader, error)
}

// Rasterizer turns rendered HTML into a PNG image.
type Rasterizer interface {
	Rasterize(ctx context.Context, html string) ([]byte, error)
}

// Exporter produces the downloadable single-page PDF of an invoice preview.
type Exporter interface {
	Export(ctx context.Context, inv domain.Invoice) (Export, error)
}

// Export is a finished document ready to be served or archived.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateInvoice(ctx context.Context, inv domain.Invoice) (io.Reader, error) {
	return nil, domain.ErrRendererNotConfigured
}

func (p *NoOpProvider) GenerateReceipt(ctx context.Context, inv domain.Invoice) (io.Reader, error) {
	return nil, domain.ErrRendererNotConfigured
}
