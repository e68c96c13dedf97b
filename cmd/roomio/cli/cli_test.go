package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/roomio/roomio/internal/billing/billingtest"
	"github.com/roomio/roomio/internal/billing/templates"
	_ "github.com/roomio/roomio/testing"
)

const stubToken = "cli-token"

func newStub(t *testing.T) *billingtest.Server {
	t.Helper()
	backend := billingtest.New(stubToken)
	seedStub(backend, time.Now())
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("TOKEN_SECRET", "cli test passphrase")
	t.Setenv("LOG_LEVEL", "error")
	return backend
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStoredTokenIsUsed(t *testing.T) {
	backend := newStub(t)

	out, err := execute(t, stubToken+"\n", "token", "set")
	require.NoError(t, err)
	require.Contains(t, out, `Token "default" saved`)

	out, err = execute(t, "", "invoices", "list")
	require.NoError(t, err)
	require.Contains(t, out, "inv0001")
	require.Contains(t, out, "Chưa thanh toán")
	require.Contains(t, out, "3.205.000 ₫")
	require.Equal(t, 1, backend.Calls("GET /billing/invoices"))

	_, err = execute(t, "", "token", "clear")
	require.NoError(t, err)
	_, err = execute(t, "", "invoices", "list")
	require.Error(t, err)
}

func TestEmptyTokenRejected(t *testing.T) {
	newStub(t)
	_, err := execute(t, "\n", "token", "set")
	require.Error(t, err)
}

func TestInvoicesShow(t *testing.T) {
	newStub(t)

	out, err := execute(t, "", "invoices", "show", "inv0001", "--token", stubToken)
	require.NoError(t, err)
	require.Contains(t, out, "Nguyễn Văn An")
	require.Contains(t, out, "120 → 150 (30)")
	require.Contains(t, out, "105.000 ₫")

	out, err = execute(t, "", "invoices", "list", "--roommate", "--token", stubToken)
	require.NoError(t, err)
	require.Contains(t, out, "inv0003")
}

func TestInvoicesListRejectsUnknownStatus(t *testing.T) {
	backend := newStub(t)
	_, err := execute(t, "", "invoices", "list", "--status", "refunded", "--token", stubToken)
	require.Error(t, err)
	require.Zero(t, backend.TotalCalls())
}

func TestTemplatesApply(t *testing.T) {
	backend := newStub(t)

	out, err := execute(t, "", "templates", "list", "--token", stubToken)
	require.NoError(t, err)
	require.Contains(t, out, "Hàng tháng")

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -2, 0)
	before := start.AddDate(0, 0, -1).Format(time.DateOnly)

	_, err = execute(t, "", "templates", "apply", "tpl1", "--contract", "ct1", "--period", before, "--token", stubToken)
	require.ErrorIs(t, err, templates.ErrPeriodBeforeContract)
	require.Contains(t, err.Error(), templates.MsgPeriodBeforeContract)
	require.Zero(t, backend.Calls("POST /billing/templates/{id}/apply"))

	out, err = execute(t, "", "templates", "apply", "tpl1", "--contract", "ct1", "--token", stubToken)
	require.NoError(t, err)
	require.Contains(t, out, "Đã tạo hóa đơn")
	require.Equal(t, 1, backend.Calls("POST /billing/templates/{id}/apply"))
}

func TestTemplatesApplyNeedsContract(t *testing.T) {
	newStub(t)
	_, err := execute(t, "", "templates", "apply", "tpl1", "--token", stubToken)
	require.Error(t, err)
}

func TestServeSkipsInTestMode(t *testing.T) {
	newStub(t)
	_, err := execute(t, "", "serve")
	require.NoError(t, err)
}
