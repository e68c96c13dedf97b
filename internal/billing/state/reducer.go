package state

import (
	"github.com/roomio/roomio/internal/billing"
)

// Reduce returns the state after applying a. The input is never modified.
// Actions naming an unknown operation leave the lifecycle map untouched.
func Reduce(s State, a Action) State {
	s = s.clone()
	switch a := a.(type) {
	case Started:
		s.fire(a.Op, triggerStart, "")
	case Succeeded:
		if a.Result != nil {
			a.Result.apply(&s)
		}
		s.fire(a.Op, triggerResolve, "")
	case Failed:
		if a.Op == OpFetchTemplates {
			s.Templates = []billing.InvoiceTemplate{}
		}
		s.fire(a.Op, triggerReject, a.Message)
	case Reset:
		s.fire(a.Op, triggerReset, "")
	case ResetAll:
		for _, op := range Ops {
			s.fire(op, triggerReset, "")
		}
	case Select:
		inv := a.Invoice
		s.Selected = &inv
	case ClearSelected:
		s.Selected = nil
	case ClearRoommate:
		s.Roommate = nil
	}
	return s
}

func (s *State) fire(op Op, t trigger, message string) {
	if !op.Valid() {
		return
	}
	s.Ops[op] = s.Op(op).fire(t, message)
}
