package billinghttp_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/roomio/roomio/internal/app"
	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/billing/api"
	"github.com/roomio/roomio/internal/billing/billingtest"
	billinghttp "github.com/roomio/roomio/internal/billing/http"
	"github.com/roomio/roomio/internal/billing/state"
	"github.com/roomio/roomio/internal/billing/templates"
)

const token = "gateway-token"

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type gateway struct {
	backend  *billingtest.Server
	sessions *state.Sessions
	ops      *state.Operations
	router   chi.Router
}

func newGateway(t *testing.T) gateway {
	t.Helper()
	backend := billingtest.New(token)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	client, err := api.NewClient(api.Options{
		BaseURL: srv.URL,
		Tokens:  api.ContextToken{Fallback: api.StaticToken(token)},
	})
	require.NoError(t, err)

	sessions := state.NewSessions(client, nil, 20, 0)
	router := chi.NewRouter()
	router.Use(app.BearerToken)
	billinghttp.NewHandler(nil, sessions, client).MountRoutes(router)
	return gateway{backend: backend, sessions: sessions, ops: sessions.For(""), router: router}
}

func (g gateway) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return g.doAs(t, "", method, path, body)
}

// doAs sends the request with bearer when it is not empty.
func (g gateway) doAs(t *testing.T, bearer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	g.router.ServeHTTP(rr, req)
	return rr
}

type invoiceEnvelope struct {
	Success bool            `json:"success"`
	Data    billing.Invoice `json:"data"`
}

type problem struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestStateStartsIdle(t *testing.T) {
	g := newGateway(t)

	rr := g.do(t, http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode[struct {
		Invoices []billing.Invoice       `json:"invoices"`
		Selected *billing.Invoice        `json:"selectedInvoice"`
		Ops      map[string]state.Triplet `json:"ops"`
	}](t, rr)
	require.Empty(t, body.Invoices)
	require.Nil(t, body.Selected)
	require.Len(t, body.Ops, len(state.Ops))
	require.Equal(t, state.Triplet{}, body.Ops["fetch"])
}

func TestFetchThenReadInvoiceViews(t *testing.T) {
	g := newGateway(t)
	g.backend.AddInvoice(billing.Invoice{
		Status:      billing.StatusIssued,
		Period:      billing.Period{Month: 3, Year: 2025},
		TotalAmount: 1500000,
		DueDate:     date(2025, 3, 5),
		Items:       []billing.InvoiceItem{{Name: "Tiền phòng", Quantity: 1, UnitPrice: 1500000, Amount: 1500000}},
	})

	rr := g.do(t, http.MethodPost, "/actions/invoices/fetch", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = g.do(t, http.MethodGet, "/state/invoices", "")
	require.Equal(t, http.StatusOK, rr.Code)
	views := decode[struct {
		Invoices []struct {
			Total       string `json:"total"`
			StatusLabel string `json:"statusLabel"`
		} `json:"invoices"`
	}](t, rr)
	require.Len(t, views.Invoices, 1)
	require.Equal(t, "1.500.000 ₫", views.Invoices[0].Total)
	require.Equal(t, "Chưa thanh toán", views.Invoices[0].StatusLabel)

	rr = g.do(t, http.MethodGet, "/state/ops/fetch", "")
	require.Equal(t, state.Triplet{Success: true}, decode[state.Triplet](t, rr))
}

func TestUnknownOpIsNotFound(t *testing.T) {
	g := newGateway(t)
	rr := g.do(t, http.MethodGet, "/state/ops/refund", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	rr = g.do(t, http.MethodPost, "/state/ops/refund/reset", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFailedActionStoresMessageAndResets(t *testing.T) {
	g := newGateway(t)
	inv := g.backend.AddInvoice(billing.Invoice{Status: billing.StatusPaid, TotalAmount: 1000})

	rr := g.do(t, http.MethodPost, "/actions/invoices/"+inv.ID+"/complete", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	p := decode[problem](t, rr)
	require.NotEmpty(t, p.Detail)

	tr := decode[state.Triplet](t, g.do(t, http.MethodGet, "/state/ops/complete", ""))
	require.NotNil(t, tr.Error)
	require.Equal(t, p.Detail, *tr.Error)

	for range 2 {
		rr = g.do(t, http.MethodPost, "/state/ops/complete/reset", "")
		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, state.Triplet{}, decode[state.Triplet](t, rr))
	}
}

func TestPaymentFlowThroughGateway(t *testing.T) {
	g := newGateway(t)
	inv := g.backend.AddInvoice(billing.Invoice{
		Status:      billing.StatusDraft,
		TotalAmount: 2000000,
		Items:       []billing.InvoiceItem{{Name: "Tiền phòng", Quantity: 1, UnitPrice: 2000000, Amount: 2000000}},
	})
	require.Equal(t, http.StatusOK, g.do(t, http.MethodPost, "/actions/invoices/fetch", "").Code)

	rr := g.do(t, http.MethodPost, "/actions/invoices/"+inv.ID+"/select", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = g.do(t, http.MethodPost, "/actions/invoices/"+inv.ID+"/complete", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, billing.StatusIssued, decode[invoiceEnvelope](t, rr).Data.Status)

	rr = g.do(t, http.MethodPost, "/actions/invoices/"+inv.ID+"/mark-paid", `{"paymentMethod":"cash"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	paid := decode[invoiceEnvelope](t, rr).Data
	require.Equal(t, billing.StatusPaid, paid.Status)

	s := g.ops.Store().State()
	require.NotNil(t, s.Selected)
	server, ok := g.backend.Invoice(inv.ID)
	require.True(t, ok)
	require.Equal(t, server.Status, s.Selected.Status)
	require.Equal(t, server.PaidAmount, s.Selected.PaidAmount)
}

func TestSelectUnknownInvoice(t *testing.T) {
	g := newGateway(t)
	rr := g.do(t, http.MethodPost, "/actions/invoices/nope/select", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestItemRoutes(t *testing.T) {
	g := newGateway(t)
	inv := g.backend.AddInvoice(billing.Invoice{
		Status: billing.StatusDraft,
		Items:  []billing.InvoiceItem{{Name: "Tiền phòng", Quantity: 1, UnitPrice: 1000000, Amount: 1000000}},
	})

	rr := g.do(t, http.MethodPost, "/actions/invoices/"+inv.ID+"/items",
		`{"name":"Điện","category":"utility","previousReading":120,"currentReading":150,"unitPrice":3500,"quantity":1}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, decode[invoiceEnvelope](t, rr).Data.Items, 2)

	rr = g.do(t, http.MethodDelete, "/actions/invoices/"+inv.ID+"/items/x", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = g.do(t, http.MethodDelete, "/actions/invoices/"+inv.ID+"/items/0", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	items := decode[invoiceEnvelope](t, rr).Data.Items
	require.Len(t, items, 1)
	require.Equal(t, "Điện", items[0].Name)
}

func TestApplyTemplateRoute(t *testing.T) {
	g := newGateway(t)
	g.backend.AddContract(billing.Contract{ID: "ct1", StartDate: date(2025, 1, 15)})
	g.backend.AddTemplate(billing.InvoiceTemplate{
		ID:    "tpl1",
		Name:  "Hàng tháng",
		Items: []billing.InvoiceItem{{Name: "Tiền phòng", Quantity: 1, UnitPrice: 3000000, Amount: 3000000}},
	})

	rr := g.do(t, http.MethodPost, "/actions/templates/tpl1/apply", `{"contractId":"ct1","periodStart":"2025-01-01"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, templates.MsgPeriodBeforeContract, decode[problem](t, rr).Detail)
	require.Zero(t, g.backend.Calls("POST /billing/templates/{id}/apply"))

	rr = g.do(t, http.MethodPost, "/actions/templates/tpl1/apply", `{"contractId":"ct1","periodStart":"2025-02-01","dueDate":"2025-02-01"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, templates.MsgDueNotAfterPeriod, decode[problem](t, rr).Detail)

	// Refused forms leave the template list and its lifecycle alone.
	require.Zero(t, g.backend.Calls("GET /billing/templates"))
	s := g.ops.Store().State()
	require.Empty(t, s.Templates)
	require.Equal(t, state.Triplet{}, s.Op(state.OpFetchTemplates).Triplet())

	rr = g.do(t, http.MethodPost, "/actions/templates/tpl1/apply", `{"contractId":"ct1","periodStart":"2025-02-01"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	inv := decode[invoiceEnvelope](t, rr).Data
	require.Equal(t, date(2025, 2, 6), inv.DueDate.UTC())

	require.Equal(t, 1, g.backend.Calls("GET /billing/templates"))

	rr = g.do(t, http.MethodPost, "/actions/templates/tpl1/apply", `{"contractId":"ct1","periodStart":"2025-03-01"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Equal(t, 1, g.backend.Calls("GET /billing/templates"))

	rr = g.do(t, http.MethodPost, "/actions/templates/missing/apply", `{"contractId":"ct1"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = g.do(t, http.MethodPost, "/actions/templates/tpl1/apply", `{"contractId":"nope"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = g.do(t, http.MethodPost, "/actions/templates/tpl1/apply", `{"periodStart":"2025-02-01"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFetchRejectsUnknownStatus(t *testing.T) {
	g := newGateway(t)
	rr := g.do(t, http.MethodPost, "/actions/invoices/fetch", `{"status":"refunded"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Zero(t, g.backend.TotalCalls())
}

func TestCallersReadOnlyTheirOwnState(t *testing.T) {
	g := newGateway(t)
	g.backend.AddInvoice(billing.Invoice{Status: billing.StatusIssued, TotalAmount: 1000})

	rr := g.doAs(t, token, http.MethodPost, "/actions/invoices/fetch", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	type listing struct {
		Invoices []billing.Invoice `json:"invoices"`
	}
	owner := decode[listing](t, g.doAs(t, token, http.MethodGet, "/state", ""))
	require.Len(t, owner.Invoices, 1)

	other := decode[listing](t, g.doAs(t, "someone-else", http.MethodGet, "/state", ""))
	require.Empty(t, other.Invoices)
	anonymous := decode[listing](t, g.do(t, http.MethodGet, "/state", ""))
	require.Empty(t, anonymous.Invoices)

	rr = g.doAs(t, "someone-else", http.MethodPost, "/actions/invoices/fetch", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	tr := decode[state.Triplet](t, g.doAs(t, "someone-else", http.MethodGet, "/state/ops/fetch", ""))
	require.NotNil(t, tr.Error)
	require.Equal(t, state.Triplet{Success: true}, decode[state.Triplet](t, g.doAs(t, token, http.MethodGet, "/state/ops/fetch", "")))
	require.Equal(t, 3, g.sessions.Len())
}
