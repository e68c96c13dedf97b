package state

import (
	"fmt"

	"github.com/qmuntal/stateless"

	"github.com/roomio/roomio/internal/shared"
)

// Op names an asynchronous billing operation. Each Op has its own lifecycle.
type Op string

const (
	OpFetch          Op = "fetch"
	OpFetchDetail    Op = "fetch-detail"
	OpFetchRoommate  Op = "fetch-roommate"
	OpCreate         Op = "create"
	OpUpdate         Op = "update"
	OpDelete         Op = "delete"
	OpConfirmPayment Op = "confirm-payment"
	OpMarkPaid       Op = "mark-paid"
	OpComplete       Op = "complete"
	OpAddItem        Op = "add-item"
	OpUpdateItems    Op = "update-items"
	OpDeleteItem     Op = "delete-item"
	OpSaveTemplate   Op = "save-template"
	OpFetchTemplates Op = "fetch-templates"
	OpApplyTemplate  Op = "apply-template"
	OpDeleteTemplate Op = "delete-template"
)

// Ops lists every operation in display order.
var Ops = []Op{
	OpFetch, OpFetchDetail, OpFetchRoommate,
	OpCreate, OpUpdate, OpDelete,
	OpConfirmPayment, OpMarkPaid, OpComplete,
	OpAddItem, OpUpdateItems, OpDeleteItem,
	OpSaveTemplate, OpFetchTemplates, OpApplyTemplate, OpDeleteTemplate,
}

// Valid reports whether op is a known operation.
func (op Op) Valid() bool {
	for _, known := range Ops {
		if op == known {
			return true
		}
	}
	return false
}

// ParseOp resolves an operation name.
func ParseOp(name string) (Op, error) {
	op := Op(name)
	if !op.Valid() {
		return "", fmt.Errorf("%w: %q", shared.ErrUnknownOperation, name)
	}
	return op, nil
}

// Phase is the lifecycle position of an operation.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseFulfilled Phase = "fulfilled"
	PhaseRejected  Phase = "rejected"
)

type trigger string

const (
	triggerStart   trigger = "start"
	triggerResolve trigger = "resolve"
	triggerReject  trigger = "reject"
	triggerReset   trigger = "reset"
)

// next runs one lifecycle transition. Completions arriving while idle are
// ignored so a reset operation keeps clean flags.
func (p Phase) next(t trigger) Phase {
	machine := stateless.NewStateMachine(p)

	machine.Configure(PhaseIdle).
		Permit(triggerStart, PhasePending).
		PermitReentry(triggerReset).
		Ignore(triggerResolve).
		Ignore(triggerReject)

	machine.Configure(PhasePending).
		PermitReentry(triggerStart).
		Permit(triggerResolve, PhaseFulfilled).
		Permit(triggerReject, PhaseRejected).
		Permit(triggerReset, PhaseIdle)

	machine.Configure(PhaseFulfilled).
		Permit(triggerStart, PhasePending).
		PermitReentry(triggerResolve).
		Permit(triggerReject, PhaseRejected).
		Permit(triggerReset, PhaseIdle)

	machine.Configure(PhaseRejected).
		Permit(triggerStart, PhasePending).
		Permit(triggerResolve, PhaseFulfilled).
		PermitReentry(triggerReject).
		Permit(triggerReset, PhaseIdle)

	if err := machine.Fire(t); err != nil {
		return p
	}
	next, ok := machine.MustState().(Phase)
	if !ok {
		return p
	}
	return next
}

// OpState is the lifecycle of one operation. Err holds the user message of
// the last rejection.
type OpState struct {
	Phase Phase  `json:"phase"`
	Err   string `json:"error,omitempty"`
}

func (s OpState) fire(t trigger, message string) OpState {
	if s.Phase == "" {
		s.Phase = PhaseIdle
	}
	s.Phase = s.Phase.next(t)
	if s.Phase != PhaseRejected {
		s.Err = ""
	} else if t == triggerReject {
		s.Err = message
	}
	return s
}

// Triplet is the loading/success/error view of an OpState.
type Triplet struct {
	Loading bool    `json:"loading"`
	Success bool    `json:"success"`
	Error   *string `json:"error"`
}

// Triplet derives the flag view.
func (s OpState) Triplet() Triplet {
	t := Triplet{
		Loading: s.Phase == PhasePending,
		Success: s.Phase == PhaseFulfilled,
	}
	if s.Phase == PhaseRejected {
		msg := s.Err
		t.Error = &msg
	}
	return t
}
