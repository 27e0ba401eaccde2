package render

import "github.com/smallbiznis/invoicer/internal/invoice/domain"

// Renderer produces the HTML preview of an invoice snapshot.
type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}

// Theme carries the styling knobs exposed through configuration.
type Theme struct {
	PrimaryColor string `json:"primaryColor"`
	FontFamily   string `json:"fontFamily"`
}

type RenderInput struct {
	Invoice domain.Invoice
	Theme   Theme
}
