// Package billinghttp exposes the billing state container over HTTP. Reads
// return snapshots of the store; actions run one operation and return its
// result in the backend's {success, data} envelope.
package billinghttp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/billing/api"
	"github.com/roomio/roomio/internal/billing/state"
	"github.com/roomio/roomio/internal/billing/templates"
	"github.com/roomio/roomio/internal/billing/viewmodel"
	"github.com/roomio/roomio/internal/platform/httpx"
	"github.com/roomio/roomio/internal/shared"
)

// Handler serves the state and action routes. Each bearer token gets its own
// store; requests without one share the anonymous session.
type Handler struct {
	logger    *slog.Logger
	sessions  *state.Sessions
	contracts templates.ContractSource
	validate  *validator.Validate
	now       func() time.Time
}

// NewHandler builds a Handler. contracts backs the apply-template form.
func NewHandler(logger *slog.Logger, sessions *state.Sessions, contracts templates.ContractSource) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		sessions:  sessions,
		contracts: contracts,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// ops returns the operations of the calling session.
func (h *Handler) ops(r *http.Request) *state.Operations {
	return h.sessions.For(shared.TokenFromContext(r.Context()))
}

type stateResponse struct {
	state.State
	Ops map[state.Op]state.Triplet `json:"ops"`
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	s := h.ops(r).Store().State()
	httpx.JSON(w, http.StatusOK, stateResponse{State: s, Ops: s.Flags()})
}

func (h *Handler) handleInvoices(w http.ResponseWriter, r *http.Request) {
	s := h.ops(r).Store().State()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoices":   viewmodel.NewInvoiceViews(s.Invoices, h.now()),
		"pagination": s.Pagination,
	})
}

func (h *Handler) handleOp(w http.ResponseWriter, r *http.Request) {
	op, ok := h.parseOp(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, h.ops(r).Store().State().Op(op).Triplet())
}

func (h *Handler) handleResetOp(w http.ResponseWriter, r *http.Request) {
	op, ok := h.parseOp(w, r)
	if !ok {
		return
	}
	s := h.ops(r).Reset(op)
	httpx.JSON(w, http.StatusOK, s.Op(op).Triplet())
}

func (h *Handler) parseOp(w http.ResponseWriter, r *http.Request) (state.Op, bool) {
	op, err := state.ParseOp(chi.URLParam(r, "op"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return "", false
	}
	return op, true
}

type fetchRequest struct {
	Page       int            `json:"page" validate:"gte=0"`
	Limit      int            `json:"limit" validate:"gte=0,lte=100"`
	Status     billing.Status `json:"status"`
	ContractID string         `json:"contractId"`
}

func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		httpx.RespondError(w, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, req.Status))
		return
	}
	page, err := h.ops(r).FetchInvoices(r.Context(), api.ListParams{
		Page:       req.Page,
		Limit:      req.Limit,
		Status:     req.Status,
		ContractID: req.ContractID,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true, Data: page.Invoices, Pagination: page.Pagination})
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.ops(r).Select(chi.URLParam(r, "id"))
	if !ok {
		httpx.RespondError(w, fmt.Errorf("invoice %s: %w", chi.URLParam(r, "id"), httpx.ErrNotFound))
		return
	}
	httpx.OK(w, http.StatusOK, inv)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	h.invoice(w, http.StatusOK)(h.ops(r).FetchInvoiceDetail(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) handleRoommateList(w http.ResponseWriter, r *http.Request) {
	list, err := h.ops(r).FetchRoommateInvoices(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, list)
}

func (h *Handler) handleRoommate(w http.ResponseWriter, r *http.Request) {
	h.invoice(w, http.StatusOK)(h.ops(r).FetchRoommateInvoice(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateInvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.invoice(w, http.StatusCreated)(h.ops(r).CreateInvoice(r.Context(), req))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateInvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.invoice(w, http.StatusOK)(h.ops(r).UpdateInvoice(r.Context(), chi.URLParam(r, "id"), req))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ops(r).DeleteInvoice(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true})
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req api.ConfirmPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.invoice(w, http.StatusOK)(h.ops(r).ConfirmPayment(r.Context(), chi.URLParam(r, "id"), req))
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	var req api.MarkPaidRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.invoice(w, http.StatusOK)(h.ops(r).MarkPaid(r.Context(), chi.URLParam(r, "id"), req))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.invoice(w, http.StatusOK)(h.ops(r).CompleteInvoice(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var item billing.InvoiceItem
	if !h.decode(w, r, &item) {
		return
	}
	h.invoice(w, http.StatusOK)(h.ops(r).AddItem(r.Context(), chi.URLParam(r, "id"), item))
}

func (h *Handler) handleUpdateItems(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateItemsRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.invoice(w, http.StatusOK)(h.ops(r).UpdateItems(r.Context(), chi.URLParam(r, "id"), req))
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		httpx.RespondError(w, fmt.Errorf("%w: item index must be a non-negative integer", httpx.ErrValidation))
		return
	}
	h.invoice(w, http.StatusOK)(h.ops(r).DeleteItem(r.Context(), chi.URLParam(r, "id"), index))
}

func (h *Handler) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req api.SaveTemplateRequest
	if !h.decode(w, r, &req) {
		return
	}
	tpl, err := h.ops(r).SaveTemplate(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, tpl)
}

func (h *Handler) handleFetchTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.ops(r).FetchTemplates(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, list)
}

type applyRequest struct {
	ContractID  string `json:"contractId" validate:"required"`
	PeriodStart string `json:"periodStart" validate:"omitempty,datetime=2006-01-02"`
	DueDate     string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

// handleApplyTemplate checks the dates against the contract before touching
// the template list, so a refused form leaves the store as it was.
func (h *Handler) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !h.decode(w, r, &req) {
		return
	}
	ops := h.ops(r)
	templateID := chi.URLParam(r, "id")

	contract, err := h.contracts.GetContract(r.Context(), req.ContractID)
	if err != nil {
		h.fail(w, err)
		return
	}
	form := templates.NewApplyForm(billing.InvoiceTemplate{ID: templateID}, contract, h.now())
	if req.PeriodStart != "" {
		period, _ := time.Parse(time.DateOnly, req.PeriodStart)
		if err := form.SetPeriod(period); err != nil {
			h.formError(w, err)
			return
		}
	}
	if req.DueDate != "" {
		due, _ := time.Parse(time.DateOnly, req.DueDate)
		if err := form.SetDueDate(due); err != nil {
			h.formError(w, err)
			return
		}
	}

	tpl, err := templates.Find(r.Context(), ops.Store().State().Templates, ops, templateID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrNotFound, err.Error()))
			return
		}
		h.fail(w, err)
		return
	}
	form.Template = tpl

	inv, err := templates.Submit(r.Context(), form, ops)
	if err != nil {
		if errors.Is(err, templates.ErrPeriodBeforeContract) || errors.Is(err, templates.ErrDueNotAfterPeriod) || errors.Is(err, templates.ErrIncomplete) {
			h.formError(w, err)
			return
		}
		h.fail(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, inv)
}

func (h *Handler) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.ops(r).DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true})
}

// invoice writes the outcome of an invoice-returning operation.
func (h *Handler) invoice(w http.ResponseWriter, status int) func(billing.Invoice, error) {
	return func(inv billing.Invoice, err error) {
		if err != nil {
			h.fail(w, err)
			return
		}
		httpx.OK(w, status, inv)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Error("billing action failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) formError(w http.ResponseWriter, err error) {
	httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Form", templates.Message(err))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return false
	}
	return h.check(w, target)
}

// decodeOptional accepts an empty body.
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request, target any) bool {
	if r.ContentLength == 0 {
		return h.check(w, target)
	}
	return h.decode(w, r, target)
}

func (h *Handler) check(w http.ResponseWriter, target any) bool {
	switch target.(type) {
	case *fetchRequest, *applyRequest:
		if err := h.validate.Struct(target); err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
			return false
		}
	}
	return true
}
