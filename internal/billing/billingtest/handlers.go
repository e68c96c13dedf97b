package billingtest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/billing/api"
	"github.com/roomio/roomio/internal/platform/httpx"
	"github.com/roomio/roomio/internal/shared"
)

const (
	msgInvoiceNotFound  = "Không tìm thấy hóa đơn"
	msgTemplateNotFound = "Không tìm thấy mẫu hóa đơn"
	msgContractNotFound = "Không tìm thấy hợp đồng"
	msgDuplicatePeriod  = "Hóa đơn cho kỳ này đã tồn tại"
	msgBadBody          = "Dữ liệu gửi lên không hợp lệ"
	msgNotEditable      = "Chỉ có thể chỉnh sửa hóa đơn nháp"
	msgBadTransition    = "Trạng thái hóa đơn không cho phép thao tác này"
)

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	status := billing.Status(q.Get("status"))
	contractID := q.Get("contractId")

	s.mu.Lock()
	matched := make([]billing.Invoice, 0, len(s.order))
	for _, id := range s.order {
		inv := s.invoices[id]
		if status != "" && inv.Status != status {
			continue
		}
		if contractID != "" && inv.Contract.ID() != contractID {
			continue
		}
		matched = append(matched, inv)
	}
	s.mu.Unlock()

	pagination := shared.NewPagination(page, limit, len(matched))
	start, end := pagination.Window()
	httpx.OK(w, http.StatusOK, api.InvoicePage{Invoices: matched[start:end], Pagination: pagination})
}

func (s *Server) listRoommateInvoices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]billing.Invoice, 0)
	for _, id := range s.order {
		if s.roommate[id] {
			out = append(out, s.invoices[id])
		}
	}
	s.mu.Unlock()
	httpx.OK(w, http.StatusOK, out)
}

func (s *Server) getRoommateInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	inv, ok := s.invoices[id]
	visible := s.roommate[id]
	s.mu.Unlock()
	if !ok || !visible {
		httpx.Fail(w, http.StatusNotFound, msgInvoiceNotFound)
		return
	}
	httpx.OK(w, http.StatusOK, inv)
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := s.Invoice(chi.URLParam(r, "id"))
	if !ok {
		httpx.Fail(w, http.StatusNotFound, msgInvoiceNotFound)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"invoice": inv})
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req api.CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, msgBadBody)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	contract, ok := s.contracts[req.ContractID]
	if !ok {
		httpx.Fail(w, http.StatusNotFound, msgContractNotFound)
		return
	}
	period := billing.Period{Month: req.Month, Year: req.Year}
	if s.hasInvoiceFor(contract.ID, period) {
		httpx.Fail(w, http.StatusConflict, msgDuplicatePeriod)
		return
	}
	inv := s.newInvoice(contract, period, req.DueDate, req.Items, req.Notes)
	s.putInvoice(inv)
	httpx.OK(w, http.StatusCreated, inv)
}

func (s *Server) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, msgBadBody)
		return
	}
	s.mutateInvoice(w, r, func(inv *billing.Invoice) (int, string) {
		if inv.Status != billing.StatusDraft {
			return http.StatusBadRequest, msgNotEditable
		}
		if req.DueDate != nil {
			inv.DueDate = *req.DueDate
		}
		if req.Items != nil {
			inv.Items = req.Items
			inv.TotalAmount = billing.SumItems(inv.Items)
		}
		if req.Notes != nil {
			inv.Notes = *req.Notes
		}
		return 0, ""
	})
}

func (s *Server) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		httpx.Fail(w, http.StatusNotFound, msgInvoiceNotFound)
		return
	}
	if inv.Status == billing.StatusPaid {
		httpx.Fail(w, http.StatusBadRequest, msgBadTransition)
		return
	}
	s.removeInvoice(id)
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true, Message: "Đã xóa hóa đơn"})
}

func (s *Server) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req api.ConfirmPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, msgBadBody)
		return
	}
	s.mutateInvoice(w, r, func(inv *billing.Invoice) (int, string) {
		if inv.Status != billing.StatusIssued && inv.Status != billing.StatusOverdue {
			return http.StatusBadRequest, msgBadTransition
		}
		paidAt := s.now()
		if req.PaymentDate != nil {
			paidAt = *req.PaymentDate
		}
		inv.Status = billing.StatusPendingConfirmation
		inv.PaymentMethod = req.PaymentMethod
		inv.PaymentDate = &paidAt
		return 0, ""
	})
}

func (s *Server) markPaid(w http.ResponseWriter, r *http.Request) {
	var req api.MarkPaidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, msgBadBody)
		return
	}
	s.mutateInvoice(w, r, func(inv *billing.Invoice) (int, string) {
		switch inv.Status {
		case billing.StatusIssued, billing.StatusOverdue, billing.StatusPendingConfirmation:
		default:
			return http.StatusBadRequest, msgBadTransition
		}
		paidAt := s.now()
		if req.PaymentDate != nil {
			paidAt = *req.PaymentDate
		}
		inv.Status = billing.StatusPaid
		inv.PaymentMethod = req.PaymentMethod
		inv.PaymentDate = &paidAt
		inv.PaidAmount = inv.TotalAmount
		if req.PaidAmount > 0 {
			inv.PaidAmount = req.PaidAmount
		}
		return 0, ""
	})
}

func (s *Server) finalize(w http.ResponseWriter, r *http.Request) {
	s.mutateInvoice(w, r, func(inv *billing.Invoice) (int, string) {
		if inv.Status != billing.StatusDraft {
			return http.StatusBadRequest, msgBadTransition
		}
		issued := s.now()
		inv.Status = billing.StatusIssued
		inv.IssueDate = &issued
		return 0, ""
	})
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var item billing.InvoiceItem
	if err := httpx.DecodeJSON(r, &item); err != nil || item.Name == "" {
		httpx.Fail(w, http.StatusBadRequest, msgBadBody)
		return
	}
	s.mutateInvoice(w, r, func(inv *billing.Invoice) (int, string) {
		if inv.Status != billing.StatusDraft {
			return http.StatusBadRequest, msgNotEditable
		}
		inv.Items = append(inv.Items, item)
		inv.TotalAmount = billing.SumItems(inv.Items)
		return 0, ""
	})
}

func (s *Server) updateItems(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateItemsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || len(req.Items) == 0 {
		httpx.Fail(w, http.StatusBadRequest, msgBadBody)
		return
	}
	s.mutateInvoice(w, r, func(inv *billing.Invoice) (int, string) {
		if inv.Status != billing.StatusDraft {
			return http.StatusBadRequest, msgNotEditable
		}
		inv.Items = req.Items
		inv.TotalAmount = billing.SumItems(inv.Items)
		return 0, ""
	})
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, msgBadBody)
		return
	}
	s.mutateInvoice(w, r, func(inv *billing.Invoice) (int, string) {
		if inv.Status != billing.StatusDraft {
			return http.StatusBadRequest, msgNotEditable
		}
		if index < 0 || index >= len(inv.Items) {
			return http.StatusBadRequest, msgBadBody
		}
		items := make([]billing.InvoiceItem, 0, len(inv.Items)-1)
		items = append(items, inv.Items[:index]...)
		inv.Items = append(items, inv.Items[index+1:]...)
		inv.TotalAmount = billing.SumItems(inv.Items)
		return 0, ""
	})
}

func (s *Server) saveTemplate(w http.ResponseWriter, r *http.Request) {
	var req api.SaveTemplateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Name == "" {
		httpx.Fail(w, http.StatusBadRequest, msgBadBody)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[chi.URLParam(r, "id")]
	if !ok {
		httpx.Fail(w, http.StatusNotFound, msgInvoiceNotFound)
		return
	}
	now := s.now()
	tpl := billing.InvoiceTemplate{
		ID:        s.nextID("tpl"),
		Name:      req.Name,
		Contract:  billing.RefID[billing.Contract](inv.Contract.ID()),
		Items:     append([]billing.InvoiceItem(nil), inv.Items...),
		Notes:     inv.Notes,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	s.templates[tpl.ID] = tpl
	s.tplOrder = append(s.tplOrder, tpl.ID)
	httpx.OK(w, http.StatusCreated, map[string]any{"template": tpl})
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]billing.InvoiceTemplate, 0, len(s.tplOrder))
	for _, id := range s.tplOrder {
		out = append(out, s.templates[id])
	}
	s.mu.Unlock()
	httpx.OK(w, http.StatusOK, map[string]any{"templates": out})
}

func (s *Server) applyTemplate(w http.ResponseWriter, r *http.Request) {
	var req api.ApplyTemplateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, msgBadBody)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, ok := s.templates[chi.URLParam(r, "id")]
	if !ok {
		httpx.Fail(w, http.StatusNotFound, msgTemplateNotFound)
		return
	}
	contract, ok := s.contracts[req.ContractID]
	if !ok {
		httpx.Fail(w, http.StatusNotFound, msgContractNotFound)
		return
	}
	if !req.DueDate.After(req.PeriodStart) {
		httpx.Fail(w, http.StatusBadRequest, msgBadBody)
		return
	}
	period := billing.Period{Month: req.Month, Year: req.Year}
	if s.hasInvoiceFor(contract.ID, period) {
		httpx.Fail(w, http.StatusConflict, msgDuplicatePeriod)
		return
	}
	inv := s.newInvoice(contract, period, req.DueDate, tpl.Items, tpl.Notes)
	s.putInvoice(inv)
	httpx.OK(w, http.StatusCreated, inv)
}

func (s *Server) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		httpx.Fail(w, http.StatusNotFound, msgTemplateNotFound)
		return
	}
	delete(s.templates, id)
	for i, existing := range s.tplOrder {
		if existing == id {
			s.tplOrder = append(s.tplOrder[:i], s.tplOrder[i+1:]...)
			break
		}
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true, Message: "Đã xóa mẫu hóa đơn"})
}

func (s *Server) listContracts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]billing.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, c)
	}
	s.mu.Unlock()
	httpx.OK(w, http.StatusOK, out)
}

func (s *Server) getContract(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	contract, ok := s.contracts[chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		httpx.Fail(w, http.StatusNotFound, msgContractNotFound)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"contract": contract})
}

// mutateInvoice applies fn under the lock and answers with the stored
// invoice. fn returns a non-zero status to reject the change.
func (s *Server) mutateInvoice(w http.ResponseWriter, r *http.Request, fn func(*billing.Invoice) (int, string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[chi.URLParam(r, "id")]
	if !ok {
		httpx.Fail(w, http.StatusNotFound, msgInvoiceNotFound)
		return
	}
	if status, msg := fn(&inv); status != 0 {
		httpx.Fail(w, status, msg)
		return
	}
	s.putInvoice(inv)
	httpx.OK(w, http.StatusOK, inv)
}

func (s *Server) hasInvoiceFor(contractID string, period billing.Period) bool {
	for _, inv := range s.invoices {
		if inv.Contract.ID() == contractID && inv.Period == period && inv.Status != billing.StatusCanceled {
			return true
		}
	}
	return false
}

func (s *Server) newInvoice(contract billing.Contract, period billing.Period, due time.Time, items []billing.InvoiceItem, notes string) billing.Invoice {
	copied := make([]billing.InvoiceItem, len(items))
	for i, it := range items {
		copied[i] = it.WithAmount()
	}
	id := s.nextID("inv")
	return billing.Invoice{
		ID:            id,
		InvoiceNumber: "HD-" + id,
		Period:        period,
		Status:        billing.StatusDraft,
		TotalAmount:   billing.SumItems(copied),
		DueDate:       due,
		Contract:      billing.Populated(contract.ID, contract),
		Room:          contract.Room,
		Tenant:        contract.Tenant,
		Items:         copied,
		Notes:         notes,
	}
}
