package state_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/billing/state"
	"github.com/roomio/roomio/internal/shared"
)

func invoice(id string, status billing.Status, total float64) billing.Invoice {
	return billing.Invoice{ID: id, Status: status, TotalAmount: total}
}

func reduceAll(s state.State, actions ...state.Action) state.State {
	for _, a := range actions {
		s = state.Reduce(s, a)
	}
	return s
}

func keys(invoices []billing.Invoice) []string {
	out := make([]string, len(invoices))
	for i, inv := range invoices {
		out[i] = inv.Key()
	}
	return out
}

func page(n int, invoices ...billing.Invoice) state.Action {
	return state.Succeeded{Op: state.OpFetch, Result: state.InvoicesPage{
		Invoices:   invoices,
		Pagination: shared.NewPagination(n, 2, 10),
	}}
}

func TestInitialState(t *testing.T) {
	s := state.Initial()
	require.NotNil(t, s.Invoices)
	require.NotNil(t, s.Templates)
	require.Empty(t, s.Templates)
	require.Nil(t, s.Selected)
	require.Nil(t, s.Roommate)
	for _, op := range state.Ops {
		require.Equal(t, state.Triplet{}, s.Op(op).Triplet(), op)
	}
}

func TestLifecycle(t *testing.T) {
	s := state.Reduce(state.Initial(), state.Started{Op: state.OpMarkPaid})
	require.Equal(t, state.Triplet{Loading: true}, s.Op(state.OpMarkPaid).Triplet())

	done := state.Reduce(s, state.Succeeded{Op: state.OpMarkPaid})
	require.Equal(t, state.Triplet{Success: true}, done.Op(state.OpMarkPaid).Triplet())

	failed := state.Reduce(s, state.Failed{Op: state.OpMarkPaid, Message: "Máy chủ đang bận"})
	tr := failed.Op(state.OpMarkPaid).Triplet()
	require.False(t, tr.Loading)
	require.False(t, tr.Success)
	require.NotNil(t, tr.Error)
	require.Equal(t, "Máy chủ đang bận", *tr.Error)

	retried := state.Reduce(failed, state.Started{Op: state.OpMarkPaid})
	require.Equal(t, state.Triplet{Loading: true}, retried.Op(state.OpMarkPaid).Triplet())

	require.Equal(t, state.PhaseIdle, s.Op(state.OpFetch).Phase)
}

func TestResetIsIdempotent(t *testing.T) {
	for _, op := range state.Ops {
		s := reduceAll(state.Initial(),
			state.Started{Op: op},
			state.Failed{Op: op, Message: "lỗi"},
		)
		once := state.Reduce(s, state.Reset{Op: op})
		twice := state.Reduce(once, state.Reset{Op: op})
		require.Equal(t, state.Triplet{}, once.Op(op).Triplet(), op)
		require.Equal(t, state.Triplet{}, twice.Op(op).Triplet(), op)
	}
}

func TestLateCompletionAfterResetKeepsFlagsIdle(t *testing.T) {
	inv := invoice("a", billing.StatusPaid, 100)
	s := reduceAll(state.Initial(),
		state.Started{Op: state.OpFetch},
		state.Reset{Op: state.OpFetch},
		page(1, inv),
	)
	require.Equal(t, state.Triplet{}, s.Op(state.OpFetch).Triplet())
	require.Equal(t, []string{"a"}, keys(s.Invoices))

	s = reduceAll(s,
		state.Started{Op: state.OpConfirmPayment},
		state.Reset{Op: state.OpConfirmPayment},
		state.Failed{Op: state.OpConfirmPayment, Message: "late"},
	)
	require.Equal(t, state.Triplet{}, s.Op(state.OpConfirmPayment).Triplet())
}

func TestUnknownOpIsIgnored(t *testing.T) {
	s := state.Reduce(state.Initial(), state.Started{Op: state.Op("bogus")})
	require.Empty(t, s.Ops)
}

func TestReduceDoesNotModifyInput(t *testing.T) {
	before := state.Reduce(state.Initial(), page(1, invoice("a", billing.StatusIssued, 1), invoice("b", billing.StatusIssued, 2)))
	_ = state.Reduce(before, state.Succeeded{Op: state.OpDelete, Result: state.InvoiceDeleted{ID: "a"}})
	_ = state.Reduce(before, state.Succeeded{Op: state.OpMarkPaid, Result: state.InvoiceMutated{Invoice: invoice("b", billing.StatusPaid, 2)}})
	require.Equal(t, []string{"a", "b"}, keys(before.Invoices))
	require.Equal(t, billing.StatusIssued, before.Invoices[1].Status)
	require.Equal(t, state.PhaseIdle, before.Op(state.OpDelete).Phase)
}

func TestPagination(t *testing.T) {
	s := reduceAll(state.Initial(),
		page(1, invoice("a", billing.StatusIssued, 1), invoice("b", billing.StatusIssued, 1)),
		page(2, invoice("b", billing.StatusIssued, 1), invoice("c", billing.StatusIssued, 1)),
	)
	require.Equal(t, []string{"a", "b", "c"}, keys(s.Invoices))
	require.Equal(t, 2, s.Pagination.Page)

	s = state.Reduce(s, page(1, invoice("d", billing.StatusDraft, 1)))
	require.Equal(t, []string{"d"}, keys(s.Invoices))
}

func TestPaginationFollowsRequestedPage(t *testing.T) {
	s := reduceAll(state.Initial(),
		page(1, invoice("a", billing.StatusIssued, 1)),
		state.Succeeded{Op: state.OpFetch, Result: state.InvoicesPage{
			Page:       2,
			Invoices:   []billing.Invoice{invoice("b", billing.StatusIssued, 1)},
			Pagination: shared.NewPagination(1, 2, 10),
		}},
	)
	require.Equal(t, []string{"a", "b"}, keys(s.Invoices))
}

func TestRoommateEntriesNeverCollide(t *testing.T) {
	s := reduceAll(state.Initial(),
		page(1, invoice("a", billing.StatusIssued, 1), invoice("b", billing.StatusIssued, 1)),
		state.Succeeded{Op: state.OpFetchRoommate, Result: state.RoommateInvoices{Invoices: []billing.Invoice{
			invoice("a", billing.StatusIssued, 1),
			invoice("x", billing.StatusIssued, 1),
		}}},
	)
	require.Equal(t, []string{"a", "b", "a_roommate", "x_roommate"}, keys(s.Invoices))
	require.Len(t, s.RoommateInvoices(), 2)

	s = state.Reduce(s, state.Succeeded{Op: state.OpFetchRoommate, Result: state.RoommateInvoices{Invoices: []billing.Invoice{
		invoice("y", billing.StatusIssued, 1),
	}}})
	require.Equal(t, []string{"a", "b", "y_roommate"}, keys(s.Invoices))

	seen := map[string]bool{}
	for _, k := range keys(s.Invoices) {
		require.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}

	s = state.Reduce(s, page(2, invoice("y", billing.StatusIssued, 1)))
	require.Equal(t, []string{"a", "b", "y_roommate", "y"}, keys(s.Invoices))
}

func TestMutationReconcilesEveryCopy(t *testing.T) {
	issued := invoice("a", billing.StatusIssued, 500)
	s := reduceAll(state.Initial(),
		page(1, issued, invoice("b", billing.StatusIssued, 1)),
		state.Succeeded{Op: state.OpFetchRoommate, Result: state.RoommateInvoices{Invoices: []billing.Invoice{issued}}},
		state.Succeeded{Op: state.OpFetchDetail, Result: state.InvoiceDetail{Invoice: issued}},
		state.Succeeded{Op: state.OpFetchRoommate, Result: state.RoommateDetail{Invoice: issued}},
	)

	paid := invoice("a", billing.StatusPaid, 500)
	paid.PaidAmount = 500
	s = reduceAll(s,
		state.Started{Op: state.OpMarkPaid},
		state.Succeeded{Op: state.OpMarkPaid, Result: state.InvoiceMutated{Invoice: paid, Payment: true}},
	)

	require.Empty(t, cmp.Diff(paid, *s.Selected))
	roommate := paid
	roommate.IsRoommate = true
	require.Empty(t, cmp.Diff(roommate, *s.Roommate))
	for _, inv := range s.Invoices {
		if inv.ID == "a" {
			require.Equal(t, billing.StatusPaid, inv.Status)
		}
	}
	require.Equal(t, []string{"a", "b", "a_roommate"}, keys(s.Invoices))
	require.Equal(t, state.Triplet{Success: true}, s.Op(state.OpMarkPaid).Triplet())
}

func TestNonPaymentMutationLeavesRoommateSlot(t *testing.T) {
	draft := invoice("a", billing.StatusDraft, 100)
	s := reduceAll(state.Initial(),
		page(1, draft),
		state.Succeeded{Op: state.OpFetchRoommate, Result: state.RoommateDetail{Invoice: draft}},
		state.Select{Invoice: draft},
	)
	edited := invoice("a", billing.StatusDraft, 250)
	s = state.Reduce(s, state.Succeeded{Op: state.OpAddItem, Result: state.InvoiceMutated{Invoice: edited}})

	require.Empty(t, cmp.Diff(edited, *s.Selected))
	require.Equal(t, float64(100), s.Roommate.TotalAmount)
	require.Equal(t, float64(250), s.Invoices[0].TotalAmount)
}

func TestMutationOfOtherInvoiceKeepsSelection(t *testing.T) {
	a := invoice("a", billing.StatusIssued, 1)
	s := reduceAll(state.Initial(), page(1, a, invoice("b", billing.StatusIssued, 1)), state.Select{Invoice: a})
	s = state.Reduce(s, state.Succeeded{Op: state.OpUpdate, Result: state.InvoiceMutated{Invoice: invoice("b", billing.StatusIssued, 9)}})
	require.Empty(t, cmp.Diff(a, *s.Selected))
}

func TestCreateAndDelete(t *testing.T) {
	a := invoice("a", billing.StatusIssued, 1)
	s := reduceAll(state.Initial(),
		page(1, a),
		state.Succeeded{Op: state.OpCreate, Result: state.InvoiceCreated{Invoice: invoice("n", billing.StatusDraft, 7)}},
	)
	require.Equal(t, []string{"n", "a"}, keys(s.Invoices))
	require.Equal(t, 11, s.Pagination.Total)

	s = reduceAll(s,
		state.Succeeded{Op: state.OpFetchRoommate, Result: state.RoommateInvoices{Invoices: []billing.Invoice{a}}},
		state.Select{Invoice: a},
		state.Succeeded{Op: state.OpFetchRoommate, Result: state.RoommateDetail{Invoice: a}},
		state.Succeeded{Op: state.OpDelete, Result: state.InvoiceDeleted{ID: "a"}},
	)
	require.Equal(t, []string{"n"}, keys(s.Invoices))
	require.Nil(t, s.Selected)
	require.Nil(t, s.Roommate)
}

func TestTemplates(t *testing.T) {
	tpl := billing.InvoiceTemplate{ID: "t1", Name: "Hàng tháng"}
	s := reduceAll(state.Initial(),
		state.Succeeded{Op: state.OpFetchTemplates, Result: state.TemplatesLoaded{Templates: []billing.InvoiceTemplate{tpl}}},
		state.Succeeded{Op: state.OpSaveTemplate, Result: state.TemplateSaved{Template: billing.InvoiceTemplate{ID: "t2", Name: "Quý"}}},
	)
	require.Len(t, s.Templates, 2)

	s = state.Reduce(s, state.Succeeded{Op: state.OpDeleteTemplate, Result: state.TemplateDeleted{ID: "t1"}})
	_, ok := s.Template("t1")
	require.False(t, ok)
	require.Len(t, s.Templates, 1)
}

func TestFetchTemplatesFailureEmptiesList(t *testing.T) {
	s := reduceAll(state.Initial(),
		state.Succeeded{Op: state.OpFetchTemplates, Result: state.TemplatesLoaded{Templates: []billing.InvoiceTemplate{{ID: "t1"}}}},
		state.Started{Op: state.OpFetchTemplates},
		state.Failed{Op: state.OpFetchTemplates, Message: "Không thể kết nối"},
	)
	require.NotNil(t, s.Templates)
	require.Empty(t, s.Templates)
	tr := s.Op(state.OpFetchTemplates).Triplet()
	require.NotNil(t, tr.Error)
	require.Equal(t, "Không thể kết nối", *tr.Error)
}

func TestParseOp(t *testing.T) {
	op, err := state.ParseOp("mark-paid")
	require.NoError(t, err)
	require.Equal(t, state.OpMarkPaid, op)

	_, err = state.ParseOp("explode")
	require.ErrorIs(t, err, shared.ErrUnknownOperation)
}

func TestFlagsCoverEveryOp(t *testing.T) {
	flags := state.Reduce(state.Initial(), state.Started{Op: state.OpApplyTemplate}).Flags()
	require.Len(t, flags, len(state.Ops))
	require.True(t, flags[state.OpApplyTemplate].Loading)
}
