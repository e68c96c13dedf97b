package state_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/billing/state"
)

func TestSessionsSeparateCallers(t *testing.T) {
	sessions := state.NewSessions(nil, nil, 20, 2)

	a := sessions.For("token-a")
	require.Same(t, a, sessions.For("token-a"))
	b := sessions.For("token-b")
	require.NotSame(t, a, b)

	a.Store().Dispatch(state.Succeeded{Op: state.OpCreate, Result: state.InvoiceCreated{Invoice: billing.Invoice{ID: "inv1"}}})
	require.Len(t, sessions.For("token-a").Store().State().Invoices, 1)
	require.Empty(t, b.Store().State().Invoices)
}

func TestSessionsEvictLeastRecentlyUsed(t *testing.T) {
	sessions := state.NewSessions(nil, nil, 20, 2)
	a := sessions.For("token-a")
	b := sessions.For("token-b")
	sessions.For("token-a")

	sessions.For("token-c")
	require.Equal(t, 2, sessions.Len())
	require.Same(t, a, sessions.For("token-a"))
	require.NotSame(t, b, sessions.For("token-b"))
}
