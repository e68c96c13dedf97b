package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/billing/api"
	"github.com/roomio/roomio/internal/billing/viewmodel"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "List and inspect invoices",
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	Example: `  # First page
  roomio invoices list

  # Unpaid invoices of one contract
  roomio invoices list --status issued --contract ct1

  # Invoices shared with you as a roommate
  roomio invoices list --roommate`,
	Args: cobra.NoArgs,
	RunE: runInvoicesList,
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one invoice with its items",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoicesShow,
}

func init() {
	rootCmd.AddCommand(invoicesCmd)
	invoicesCmd.AddCommand(invoicesListCmd, invoicesShowCmd)

	invoicesListCmd.Flags().Int("page", 1, "Page to fetch")
	invoicesListCmd.Flags().Int("limit", 0, "Page size (default PAGE_SIZE)")
	invoicesListCmd.Flags().String("status", "", "Filter by status")
	invoicesListCmd.Flags().String("contract", "", "Filter by contract id")
	invoicesListCmd.Flags().Bool("roommate", false, "List invoices shared with you")

	invoicesShowCmd.Flags().Bool("roommate", false, "Read through the roommate endpoint")
}

func runInvoicesList(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")
	status, _ := cmd.Flags().GetString("status")
	contract, _ := cmd.Flags().GetString("contract")
	roommate, _ := cmd.Flags().GetBool("roommate")

	if status != "" && !billing.Status(status).Valid() {
		return fmt.Errorf("unknown status %q", status)
	}

	rt, err := newRuntime(cmd, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if roommate {
		list, err := rt.ops.FetchRoommateInvoices(cmd.Context())
		if err != nil {
			return err
		}
		return printInvoices(cmd.OutOrStdout(), list, time.Now())
	}

	result, err := rt.ops.FetchInvoices(cmd.Context(), api.ListParams{
		Page:       page,
		Limit:      limit,
		Status:     billing.Status(status),
		ContractID: contract,
	})
	if err != nil {
		return err
	}
	if err := printInvoices(cmd.OutOrStdout(), result.Invoices, time.Now()); err != nil {
		return err
	}
	p := result.Pagination
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nTrang %d/%d, %d hóa đơn\n", p.Page, p.TotalPages, p.Total)
	return err
}

func runInvoicesShow(cmd *cobra.Command, args []string) error {
	roommate, _ := cmd.Flags().GetBool("roommate")

	rt, err := newRuntime(cmd, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	var inv billing.Invoice
	if roommate {
		inv, err = rt.ops.FetchRoommateInvoice(cmd.Context(), args[0])
	} else {
		inv, err = rt.ops.FetchInvoiceDetail(cmd.Context(), args[0])
	}
	if err != nil {
		return err
	}
	return printInvoice(cmd.OutOrStdout(), viewmodel.NewInvoiceView(inv, time.Now()))
}

func printInvoices(out io.Writer, list []billing.Invoice, now time.Time) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKỲ\tPHÒNG\tKHÁCH THUÊ\tTRẠNG THÁI\tTỔNG\tHẠN")
	for _, v := range viewmodel.NewInvoiceViews(list, now) {
		due := v.DueDate
		if v.PastDue {
			due += " (quá hạn)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Period, v.Party.RoomNumber, v.Party.TenantName, v.StatusLabel, v.Total, due)
	}
	return tw.Flush()
}

func printInvoice(out io.Writer, v viewmodel.InvoiceView) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Hóa đơn\t%s %s\n", v.ID, v.Number)
	fmt.Fprintf(tw, "Kỳ\t%s\n", v.Period)
	fmt.Fprintf(tw, "Trạng thái\t%s\n", v.StatusLabel)
	fmt.Fprintf(tw, "Phòng\t%s %s\n", v.Party.RoomNumber, v.Party.RoomAddress)
	fmt.Fprintf(tw, "Khách thuê\t%s %s\n", v.Party.TenantName, v.Party.TenantPhone)
	fmt.Fprintf(tw, "Hạn thanh toán\t%s\n", v.DueDate)
	fmt.Fprintln(tw)
	for _, it := range v.Items {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", it.Name, it.Detail, it.Price, it.Amount)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Tổng cộng\t%s\n", v.Total)
	fmt.Fprintf(tw, "Đã trả\t%s\n", v.Paid)
	fmt.Fprintf(tw, "Còn lại\t%s\n", v.Balance)
	return tw.Flush()
}
