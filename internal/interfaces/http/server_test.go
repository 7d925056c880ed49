package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/bharatbiz/bizagent/internal/application/dispatcher"
	"github.com/bharatbiz/bizagent/internal/application/orchestrator"
	"github.com/bharatbiz/bizagent/internal/application/service"
	"github.com/bharatbiz/bizagent/internal/domain/billing"
	"github.com/bharatbiz/bizagent/internal/domain/catalog"
	"github.com/bharatbiz/bizagent/internal/domain/intent"
	"github.com/bharatbiz/bizagent/internal/infrastructure/export"
	"github.com/bharatbiz/bizagent/internal/infrastructure/persistence/memory"
)

type mockLogger struct{}

func (mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type queuedClassifier struct {
	mu      sync.Mutex
	answers []*intent.Classification
}

func (q *queuedClassifier) Classify(ctx context.Context, utterance string) (*intent.Classification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.answers) == 0 {
		return &intent.Classification{Intent: "unknown"}, nil
	}
	next := q.answers[0]
	q.answers = q.answers[1:]
	return next, nil
}

type silentSpeaker struct{}

func (silentSpeaker) Speak(ctx context.Context, text string) error { return nil }

type testServer struct {
	router     http.Handler
	classifier *queuedClassifier
	reminders  service.ReminderQueue
	catalog    *catalog.Catalog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := mockLogger{}
	d := dispatcher.NewDispatcher()
	invoices := memory.NewInvoiceRepository()
	customers := memory.NewCustomerRepository()
	reminderRepo := memory.NewReminderRepository()

	cat := catalog.Default()
	composer := billing.NewInvoiceComposer(billing.NewLineItemComputer(cat, cat.Taxes()))
	ledger := service.NewCustomerLedger(customers, d, log)
	reminders := service.NewReminderQueue(reminderRepo, d, log)
	payments := service.NewPaymentService(ledger, invoices, memory.Transactions{}, d, log)
	queries := service.NewQueryService(invoices, customers, reminderRepo, log)

	classifier := &queuedClassifier{}
	orch := orchestrator.New(classifier, silentSpeaker{}, reminders, payments, queries, log)
	lifecycle := service.NewInvoiceLifecycle(composer, invoices, ledger, memory.Transactions{}, d, log)

	srv := NewServer(DefaultServerConfig(), Deps{
		Orchestrator: orch,
		Conversation: orchestrator.NewConversation(lifecycle, "", false),
		Queries:      queries,
		Ledger:       ledger,
		Reminders:    reminders,
		Catalog:      cat,
		Exporter:     export.NewInvoiceExporter(zap.NewNop()),
	}, log)

	return &testServer{router: srv.Router(), classifier: classifier, reminders: reminders, catalog: cat}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the envelope and returns its data as a generic map
func decode(t *testing.T, w *httptest.ResponseRecorder) (bool, map[string]interface{}) {
	t.Helper()
	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Success, resp.Data
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	ok, data := decode(t, w)
	assert.True(t, ok)
	assert.Equal(t, "healthy", data["status"])
}

func TestMessageDraftConfirmFlow(t *testing.T) {
	s := newTestServer(t)
	s.classifier.answers = []*intent.Classification{{
		Intent:        "billing",
		ExtractedData: []interface{}{map[string]interface{}{"name": "rice", "quantity": 2}},
	}}

	w := s.do(t, http.MethodPost, "/api/messages", MessageRequest{Text: "2 kilo rice"})
	require.Equal(t, http.StatusOK, w.Code)
	_, reply := decode(t, w)
	assert.Equal(t, "billing", reply["intent"])
	draft := reply["draft"].(map[string]interface{})
	assert.Equal(t, "252", draft["grand_total"])

	w = s.do(t, http.MethodGet, "/api/conversation", nil)
	_, conv := decode(t, w)
	assert.Len(t, conv["transcript"], 3)
	assert.NotNil(t, conv["draft"])

	w = s.do(t, http.MethodPost, "/api/draft/confirm", nil)
	ok, confirmed := decode(t, w)
	assert.True(t, ok)
	inv := confirmed["invoice"].(map[string]interface{})
	id := inv["id"].(string)

	w = s.do(t, http.MethodGet, "/api/invoices/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/invoices", nil)
	var list struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, id, list.Data[0]["id"])

	w = s.do(t, http.MethodPost, "/api/draft/confirm", nil)
	ok, again := decode(t, w)
	assert.False(t, ok)
	assert.Equal(t, orchestrator.MsgNoDraft, again["message"])
}

func TestPostMessage_Invalid(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/messages", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/messages", MessageRequest{Text: " \x00 "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiscardDraft(t *testing.T) {
	s := newTestServer(t)
	s.classifier.answers = []*intent.Classification{{
		Intent:        "billing",
		ExtractedData: map[string]interface{}{"name": "soap", "quantity": 1},
	}}
	s.do(t, http.MethodPost, "/api/messages", MessageRequest{Text: "ek sabun"})

	w := s.do(t, http.MethodPost, "/api/draft/discard", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, conv := decode(t, s.do(t, http.MethodGet, "/api/conversation", nil))
	assert.Nil(t, conv["draft"])
}

func TestSetVoice(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/voice", map[string]bool{"enabled": true})
	assert.Equal(t, http.StatusOK, w.Code)

	_, conv := decode(t, s.do(t, http.MethodGet, "/api/conversation", nil))
	assert.Equal(t, true, conv["voice_enabled"])

	w = s.do(t, http.MethodPut, "/api/voice", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetInvoice_NotFound(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/invoices/INV-missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/invoices/INV-missing/export", nil).Code)
}

func TestExportInvoices(t *testing.T) {
	s := newTestServer(t)
	s.classifier.answers = []*intent.Classification{{
		Intent:        "billing",
		ExtractedData: []interface{}{map[string]interface{}{"name": "sugar", "quantity": 1}},
	}}
	s.do(t, http.MethodPost, "/api/messages", MessageRequest{Text: "ek kilo cheeni"})
	s.do(t, http.MethodPost, "/api/draft/confirm", nil)

	w := s.do(t, http.MethodGet, "/api/invoices/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoices.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetInvoices)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestReminderEndpoints(t *testing.T) {
	s := newTestServer(t)
	r, err := s.reminders.Schedule(context.Background(), "Call supplier", "2024-06-05")
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/reminders/"+r.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	assert.Equal(t, true, data["changed"])

	w = s.do(t, http.MethodPost, "/api/reminders/"+r.ID+"/complete", nil)
	_, data = decode(t, w)
	assert.Equal(t, false, data["changed"])

	w = s.do(t, http.MethodPost, "/api/reminders/nope/complete", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/reminders", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProducts(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	assert.Len(t, data["products"], 10)

	w = s.do(t, http.MethodPut, "/api/products/1", map[string]interface{}{
		"name": "Basmati Rice", "price": "130", "unit": "kg", "category": "food_items",
	})
	require.Equal(t, http.StatusOK, w.Code)
	p, ok := s.catalog.Get("1")
	require.True(t, ok)
	assert.Equal(t, "130", p.Price.String())

	w = s.do(t, http.MethodPut, "/api/products/11", map[string]interface{}{
		"name": "Petrol", "price": 100, "category": "fuel",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/products/12", map[string]interface{}{
		"name": "Tea", "price": -5, "category": "food_items",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummaryAndCustomers(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	assert.Equal(t, float64(0), data["invoice_count"])

	w = s.do(t, http.MethodGet, "/api/customers", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
