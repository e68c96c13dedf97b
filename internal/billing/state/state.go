// Package state holds the client-side view of invoices and templates together
// with the lifecycle of every billing operation. State changes only through
// Reduce; Store serializes dispatches.
package state

import (
	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/shared"
)

// State is an immutable snapshot of the billing view.
type State struct {
	Invoices   []billing.Invoice         `json:"invoices"`
	Selected   *billing.Invoice          `json:"selectedInvoice"`
	Roommate   *billing.Invoice          `json:"roommateInvoice"`
	Templates  []billing.InvoiceTemplate `json:"templates"`
	Pagination shared.Pagination         `json:"pagination"`
	Ops        map[Op]OpState            `json:"-"`
}

// Initial returns the empty state.
func Initial() State {
	return State{
		Invoices:  []billing.Invoice{},
		Templates: []billing.InvoiceTemplate{},
		Ops:       make(map[Op]OpState, len(Ops)),
	}
}

// Op returns the lifecycle of op; unknown or untouched ops are idle.
func (s State) Op(op Op) OpState {
	if st, ok := s.Ops[op]; ok && st.Phase != "" {
		return st
	}
	return OpState{Phase: PhaseIdle}
}

// Flags returns the triplet of every operation.
func (s State) Flags() map[Op]Triplet {
	out := make(map[Op]Triplet, len(Ops))
	for _, op := range Ops {
		out[op] = s.Op(op).Triplet()
	}
	return out
}

// Invoice finds a regular (non-roommate) list entry by id.
func (s State) Invoice(id string) (billing.Invoice, bool) {
	for _, inv := range s.Invoices {
		if inv.ID == id && !inv.IsRoommate {
			return inv, true
		}
	}
	return billing.Invoice{}, false
}

// RoommateInvoices returns the roommate entries of the list.
func (s State) RoommateInvoices() []billing.Invoice {
	out := make([]billing.Invoice, 0)
	for _, inv := range s.Invoices {
		if inv.IsRoommate {
			out = append(out, inv)
		}
	}
	return out
}

// Template finds a template by id.
func (s State) Template(id string) (billing.InvoiceTemplate, bool) {
	for _, tpl := range s.Templates {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return billing.InvoiceTemplate{}, false
}

// clone deep-copies s so snapshots never share memory with the store.
func (s State) clone() State {
	out := s
	out.Invoices = make([]billing.Invoice, len(s.Invoices))
	for i, inv := range s.Invoices {
		out.Invoices[i] = inv.Clone()
	}
	out.Templates = make([]billing.InvoiceTemplate, len(s.Templates))
	for i, tpl := range s.Templates {
		out.Templates[i] = tpl.Clone()
	}
	if s.Selected != nil {
		sel := s.Selected.Clone()
		out.Selected = &sel
	}
	if s.Roommate != nil {
		rm := s.Roommate.Clone()
		out.Roommate = &rm
	}
	out.Ops = make(map[Op]OpState, len(s.Ops))
	for op, st := range s.Ops {
		out.Ops[op] = st
	}
	return out
}
