package state

import (
	"github.com/roomio/roomio/internal/billing"
)

func (r InvoicesPage) apply(s *State) {
	s.Pagination = r.Pagination
	page := r.Page
	if page == 0 {
		page = r.Pagination.Page
	}
	if page <= 1 {
		s.Invoices = append(make([]billing.Invoice, 0, len(r.Invoices)), r.Invoices...)
		return
	}
	seen := make(map[string]struct{}, len(s.Invoices))
	for _, inv := range s.Invoices {
		seen[inv.Key()] = struct{}{}
	}
	for _, inv := range r.Invoices {
		if _, dup := seen[inv.Key()]; dup {
			continue
		}
		seen[inv.Key()] = struct{}{}
		s.Invoices = append(s.Invoices, inv)
	}
}

func (r RoommateInvoices) apply(s *State) {
	kept := make([]billing.Invoice, 0, len(s.Invoices)+len(r.Invoices))
	for _, inv := range s.Invoices {
		if !inv.IsRoommate {
			kept = append(kept, inv)
		}
	}
	seen := make(map[string]struct{}, len(r.Invoices))
	for _, inv := range r.Invoices {
		inv.IsRoommate = true
		if _, dup := seen[inv.Key()]; dup {
			continue
		}
		seen[inv.Key()] = struct{}{}
		kept = append(kept, inv)
	}
	s.Invoices = kept
}

func (r InvoiceDetail) apply(s *State) {
	inv := r.Invoice
	s.Selected = &inv
	s.replaceInvoice(r.Invoice, false)
}

func (r RoommateDetail) apply(s *State) {
	inv := r.Invoice
	inv.IsRoommate = true
	s.Roommate = &inv
}

func (r InvoiceMutated) apply(s *State) {
	s.replaceInvoice(r.Invoice, r.Payment)
}

func (r InvoiceCreated) apply(s *State) {
	for _, inv := range s.Invoices {
		if inv.Key() == r.Invoice.Key() {
			s.replaceInvoice(r.Invoice, false)
			return
		}
	}
	s.Invoices = append([]billing.Invoice{r.Invoice}, s.Invoices...)
	if s.Pagination.Total > 0 {
		s.Pagination.Total++
	}
}

func (r InvoiceDeleted) apply(s *State) {
	kept := s.Invoices[:0]
	removed := false
	for _, inv := range s.Invoices {
		if inv.ID == r.ID {
			removed = true
			continue
		}
		kept = append(kept, inv)
	}
	s.Invoices = kept
	if removed && s.Pagination.Total > 0 {
		s.Pagination.Total--
	}
	if s.Selected != nil && s.Selected.ID == r.ID {
		s.Selected = nil
	}
	if s.Roommate != nil && s.Roommate.ID == r.ID {
		s.Roommate = nil
	}
}

func (r TemplatesLoaded) apply(s *State) {
	s.Templates = append(make([]billing.InvoiceTemplate, 0, len(r.Templates)), r.Templates...)
}

func (r TemplateSaved) apply(s *State) {
	for i, tpl := range s.Templates {
		if tpl.ID == r.Template.ID {
			s.Templates[i] = r.Template
			return
		}
	}
	s.Templates = append(s.Templates, r.Template)
}

func (r TemplateDeleted) apply(s *State) {
	kept := s.Templates[:0]
	for _, tpl := range s.Templates {
		if tpl.ID != r.ID {
			kept = append(kept, tpl)
		}
	}
	s.Templates = kept
}

// replaceInvoice swaps every copy of inv held by the state. List entries keep
// their roommate flag; the selected slot takes the server copy as is.
func (s *State) replaceInvoice(inv billing.Invoice, payment bool) {
	for i, existing := range s.Invoices {
		if existing.ID != inv.ID {
			continue
		}
		updated := inv
		updated.IsRoommate = existing.IsRoommate
		s.Invoices[i] = updated
	}
	if s.Selected != nil && s.Selected.ID == inv.ID {
		selected := inv
		s.Selected = &selected
	}
	if payment && s.Roommate != nil && s.Roommate.ID == inv.ID {
		roommate := inv
		roommate.IsRoommate = true
		s.Roommate = &roommate
	}
}
