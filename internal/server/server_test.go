package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	invoicedomain "github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/engine"
	"github.com/smallbiznis/invoicer/internal/invoice/render"
	templatedomain "github.com/smallbiznis/invoicer/internal/invoicetemplate/domain"
	templaterepo "github.com/smallbiznis/invoicer/internal/invoicetemplate/repository"
	templateservice "github.com/smallbiznis/invoicer/internal/invoicetemplate/service"
	obsmetrics "github.com/smallbiznis/invoicer/internal/observability/metrics"
	"github.com/smallbiznis/invoicer/internal/providers/pdf"
	"github.com/smallbiznis/invoicer/internal/providers/storage"
	"github.com/smallbiznis/invoicer/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type fakeExporter struct {
	calls int
	err   error
}

func (f *fakeExporter) Export(ctx context.Context, inv invoicedomain.Invoice) (pdf.Export, error) {
	f.calls++
	if f.err != nil {
		return pdf.Export{}, f.err
	}
	return pdf.Export{
		Filename:    "invoice-" + inv.InvoiceNumber + ".pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.3 fake"),
	}, nil
}

type memoryArchive struct {
	keys []string
	err  error
}

func (a *memoryArchive) Enabled() bool { return true }

func (a *memoryArchive) Put(ctx context.Context, key, contentType string, data []byte) (storage.Object, error) {
	if a.err != nil {
		return storage.Object{}, a.err
	}
	a.keys = append(a.keys, key)
	return storage.Object{Key: key, Size: len(data)}, nil
}

type testServer struct {
	router   *gin.Engine
	exporter *fakeExporter
	archive  *memoryArchive
}

func newTestServer(t *testing.T, mutate ...func(*ServerParams)) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	cfg := config.Config{
		MaxLogoBytes: 5 << 20,
		Sessions:     config.SessionConfig{IdleTTLMinutes: 30, SweepIntervalSeconds: 60},
		Storage:      config.StorageConfig{Prefix: "exports"},
	}

	var seq int
	manager := session.NewManager(session.Params{
		Cfg:   cfg,
		Log:   zap.NewNop(),
		Clock: fake,
		GenID: node,
		Engine: engine.New(engine.WithIDSource(func() string {
			seq++
			return fmt.Sprintf("item-%d", seq)
		})),
	})
	templates := templateservice.NewService(templateservice.Params{
		Log:   zap.NewNop(),
		Clock: fake,
		Repo:  templaterepo.NewMemoryRepository(),
	})

	exporter := &fakeExporter{}
	archive := &memoryArchive{}
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())

	params := ServerParams{
		Gin:            router,
		Cfg:            cfg,
		Log:            zap.NewNop(),
		Clock:          fake,
		Sessions:       manager,
		Templates:      templates,
		Renderer:       render.NewRenderer(),
		Defaults:       config.NewStaticDefaultsHolder(config.DefaultInvoiceDefaults()),
		Exporter:       exporter,
		Documents:      pdf.New(),
		Archive:        archive,
		SessionMetrics: obsmetrics.NewSessionMetrics(prometheus.NewRegistry(), obsmetrics.Config{}),
	}
	for _, fn := range mutate {
		fn(&params)
	}
	NewServer(params)

	return testServer{router: router, exporter: exporter, archive: archive}
}

func (ts testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	ts.router.ServeHTTP(resp, req)
	return resp
}

type viewResponse struct {
	Data invoicedomain.SessionView `json:"data"`
}

func decodeView(t *testing.T, resp *httptest.ResponseRecorder) invoicedomain.SessionView {
	t.Helper()
	var out viewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out.Data
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out.Error
}

func (ts testServer) createSession(t *testing.T) invoicedomain.SessionView {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeView(t, resp)
}

func TestCreateAndGetSession(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createSession(t)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "7284", created.Invoice.InvoiceNumber)
	assert.Equal(t, "2026-03-14", created.Invoice.InvoiceDate)
	require.Len(t, created.Invoice.Items, 1)

	resp := ts.do(t, http.MethodGet, "/api/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, created.ID, decodeView(t, resp).ID)
}

func TestApplyIntentRecomputesTotals(t *testing.T) {
	ts := newTestServer(t)
	view := ts.createSession(t)
	itemID := view.Invoice.Items[0].ID
	path := "/api/sessions/" + view.ID + "/intents"

	resp := ts.do(t, http.MethodPost, path, map[string]any{
		"kind": "update_item", "itemId": itemID, "field": "unitPrice", "value": "50",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.do(t, http.MethodPost, path, map[string]any{
		"kind": "update_item", "itemId": itemID, "field": "quantity", "value": 2,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.do(t, http.MethodPost, path, map[string]any{"kind": "set_tax_rate", "value": "10"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	inv := decodeView(t, resp).Invoice
	assert.Equal(t, 100.0, inv.Subtotal)
	assert.Equal(t, 10.0, inv.Tax)
	assert.Equal(t, 110.0, inv.Total)
	assert.Equal(t, 110.0, inv.AmountDue)
}

func TestApplyIntentCustomerNameUpdatesNumber(t *testing.T) {
	ts := newTestServer(t)
	view := ts.createSession(t)

	resp := ts.do(t, http.MethodPost, "/api/sessions/"+view.ID+"/intents", map[string]any{
		"kind": "set_customer_name", "value": "Acme",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	got := decodeView(t, resp)
	assert.Equal(t, "7284 - Acme", got.Invoice.InvoiceNumber)
	assert.Equal(t, "Acme", got.Invoice.Billing.Name)
}

func TestApplyIntentErrors(t *testing.T) {
	ts := newTestServer(t)
	view := ts.createSession(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown kind", "/api/sessions/" + view.ID + "/intents", map[string]any{"kind": "explode"}, http.StatusBadRequest, "unknown_intent"},
		{"bad currency", "/api/sessions/" + view.ID + "/intents", map[string]any{"kind": "set_field", "field": "currency", "value": "XYZ"}, http.StatusBadRequest, "unsupported_currency"},
		{"bad status", "/api/sessions/" + view.ID + "/intents", map[string]any{"kind": "set_status", "value": "refunded"}, http.StatusBadRequest, "invalid_payment_status"},
		{"malformed id", "/api/sessions/not-an-id/intents", map[string]any{"kind": "add_item"}, http.StatusBadRequest, "invalid_session_id"},
		{"missing session", "/api/sessions/12345/intents", map[string]any{"kind": "add_item"}, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, resp.Code, resp.Body.String())
			payload := decodeError(t, resp)
			if tt.code != "" {
				require.NotEmpty(t, payload.Errors)
				assert.Equal(t, tt.code, payload.Errors[0].Code)
				assert.Equal(t, "invalid_request", payload.Type)
			} else {
				assert.Equal(t, "not_found", payload.Type)
			}
		})
	}

	// Rejected intents leave the session untouched.
	resp := ts.do(t, http.MethodGet, "/api/sessions/"+view.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, view.Invoice, decodeView(t, resp).Invoice)
}

func TestApplyIntentRejectsInvalidJSON(t *testing.T) {
	ts := newTestServer(t)
	view := ts.createSession(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+view.ID+"/intents", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	ts.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDeleteSession(t *testing.T) {
	ts := newTestServer(t)
	view := ts.createSession(t)

	resp := ts.do(t, http.MethodDelete, "/api/sessions/"+view.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/sessions/"+view.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func uploadLogo(t *testing.T, ts testServer, sessionID string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/logo", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	ts.router.ServeHTTP(resp, req)
	return resp
}

func TestUploadLogoStoresDataURL(t *testing.T) {
	ts := newTestServer(t)
	view := ts.createSession(t)

	resp := uploadLogo(t, ts, view.ID, pngHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.True(t, strings.HasPrefix(decodeView(t, resp).Invoice.CompanyLogo, "data:image/png;base64,"))
}

func TestUploadLogoRejectsNonImage(t *testing.T) {
	ts := newTestServer(t)
	view := ts.createSession(t)

	resp := uploadLogo(t, ts, view.ID, []byte("just some text"))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "invalid_content_type", decodeError(t, resp).Errors[0].Code)
}

func TestUploadLogoRejectsOversizedFile(t *testing.T) {
	ts := newTestServer(t, func(p *ServerParams) { p.Cfg.MaxLogoBytes = 8 })
	view := ts.createSession(t)

	resp := uploadLogo(t, ts, view.ID, pngHeader)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestPreviewRendersHTML(t *testing.T) {
	ts := newTestServer(t)
	view := ts.createSession(t)

	resp := ts.do(t, http.MethodGet, "/api/sessions/"+view.ID+"/preview", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, resp.Body.String(), "7284")
}

func TestExportServesAndArchivesPDF(t *testing.T) {
	ts := newTestServer(t)
	view := ts.createSession(t)

	resp := ts.do(t, http.MethodGet, "/api/sessions/"+view.ID+"/export", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, `attachment; filename="invoice-7284.pdf"`, resp.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(resp.Body.String(), "%PDF"))

	require.Len(t, ts.archive.keys, 1)
	assert.True(t, strings.HasPrefix(ts.archive.keys[0], "exports/2026/03/7284-"))
	assert.Equal(t, ts.archive.keys[0], resp.Header().Get(headerArchiveKey))
}

func TestExportSucceedsWhenArchiveFails(t *testing.T) {
	ts := newTestServer(t)
	ts.archive.err = errors.New("bucket unavailable")
	view := ts.createSession(t)

	resp := ts.do(t, http.MethodGet, "/api/sessions/"+view.ID+"/export", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, resp.Header().Get(headerArchiveKey))
}

func TestExportWithoutRendererIsUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.exporter.err = invoicedomain.ErrRendererNotConfigured
	view := ts.createSession(t)

	resp := ts.do(t, http.MethodGet, "/api/sessions/"+view.ID+"/export", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "service_unavailable", decodeError(t, resp).Type)
}

func TestDocumentUsesReceiptWhenPaid(t *testing.T) {
	ts := newTestServer(t)
	view := ts.createSession(t)

	resp := ts.do(t, http.MethodGet, "/api/sessions/"+view.ID+"/document", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, `attachment; filename="invoice-7284.pdf"`, resp.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(resp.Body.String(), "%PDF"))

	resp = ts.do(t, http.MethodPost, "/api/sessions/"+view.ID+"/intents", map[string]any{"kind": "set_status", "value": "paid"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/sessions/"+view.ID+"/document", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, `attachment; filename="receipt-7284.pdf"`, resp.Header().Get("Content-Disposition"))
}

func TestTemplateSaveListLoad(t *testing.T) {
	ts := newTestServer(t)
	source := ts.createSession(t)

	resp := ts.do(t, http.MethodPost, "/api/sessions/"+source.ID+"/intents", map[string]any{
		"kind": "set_customer_name", "value": "Acme",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodPut, "/api/templates/acme", map[string]any{"sessionId": source.ID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.do(t, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var names struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &names))
	assert.Equal(t, []string{"acme"}, names.Data)

	target := ts.createSession(t)
	resp = ts.do(t, http.MethodPost, "/api/sessions/"+target.ID+"/templates/acme/load", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	loaded := decodeView(t, resp)
	assert.Equal(t, target.ID, loaded.ID)
	assert.Equal(t, "7284 - Acme", loaded.Invoice.InvoiceNumber)
	assert.Equal(t, "Acme", loaded.Invoice.Billing.Name)
}

func TestTemplateErrors(t *testing.T) {
	ts := newTestServer(t)
	view := ts.createSession(t)

	resp := ts.do(t, http.MethodPost, "/api/sessions/"+view.ID+"/templates/missing/load", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.do(t, http.MethodPut, "/api/templates/acme", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(t, http.MethodPut, "/api/templates/%20", map[string]any{"sessionId": view.ID})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, templatedomain.ErrInvalidName.Error(), decodeError(t, resp).Errors[0].Code)
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "not_found", decodeError(t, resp).Type)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{invoicedomain.ErrSessionNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("load: %w", templatedomain.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("reduce: %w", invoicedomain.ErrUnknownField), http.StatusBadRequest, "invalid_request"},
		{invalidRequestError(), http.StatusBadRequest, "invalid_request"},
		{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, "payload_too_large"},
		{fmt.Errorf("export: %w", pdf.ErrEmptyRaster), http.StatusServiceUnavailable, "service_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		status, payload := mapError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.kind, payload.Type, tt.err.Error())
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	kind, code := classifyErrorForLog(invoicedomain.ErrUnknownIntent)
	assert.Equal(t, "invalid_request", kind)
	assert.Equal(t, "unknown_intent", code)

	kind, code = classifyErrorForLog(nil)
	assert.Empty(t, kind)
	assert.Empty(t, code)
}
