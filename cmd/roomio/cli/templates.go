package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/billing/templates"
	"github.com/roomio/roomio/internal/billing/viewmodel"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List and apply invoice templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved invoice templates",
	Args:  cobra.NoArgs,
	RunE:  runTemplatesList,
}

var templatesApplyCmd = &cobra.Command{
	Use:   "apply <templateID>",
	Short: "Create an invoice from a template",
	Long: `Create an invoice from a saved template for one contract.

The period defaults to today, or to the contract start when the contract has
not started yet. The due date defaults to five days after the period start.`,
	Example: `  # Apply with the default period
  roomio templates apply tpl1 --contract ct1

  # Apply for February with a custom due date
  roomio templates apply tpl1 --contract ct1 --period 2025-02-01 --due 2025-02-10`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplatesApply,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd, templatesApplyCmd)

	templatesApplyCmd.Flags().String("contract", "", "Contract id (required)")
	templatesApplyCmd.Flags().String("period", "", "Period start (format: YYYY-MM-DD)")
	templatesApplyCmd.Flags().String("due", "", "Due date (format: YYYY-MM-DD)")
	_ = templatesApplyCmd.MarkFlagRequired("contract")
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	list, err := rt.ops.FetchTemplates(cmd.Context())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTÊN\tHỢP ĐỒNG\tSỐ MỤC\tTỔNG")
	for _, tpl := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			tpl.ID, tpl.Name, tpl.Contract.ID(), len(tpl.Items), viewmodel.FormatVND(billing.SumItems(tpl.Items)))
	}
	return tw.Flush()
}

func runTemplatesApply(cmd *cobra.Command, args []string) error {
	contractID, _ := cmd.Flags().GetString("contract")
	periodStr, _ := cmd.Flags().GetString("period")
	dueStr, _ := cmd.Flags().GetString("due")

	var period, due time.Time
	var err error
	if periodStr != "" {
		if period, err = time.Parse(time.DateOnly, periodStr); err != nil {
			return fmt.Errorf("invalid period format. Use YYYY-MM-DD: %w", err)
		}
	}
	if dueStr != "" {
		if due, err = time.Parse(time.DateOnly, dueStr); err != nil {
			return fmt.Errorf("invalid due date format. Use YYYY-MM-DD: %w", err)
		}
	}

	rt, err := newRuntime(cmd, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	loader := templates.NewLoader(rt.client, rt.ops, nil)
	form, err := loader.Form(cmd.Context(), args[0], contractID)
	if err != nil {
		return err
	}
	if !period.IsZero() {
		if err := form.SetPeriod(period); err != nil {
			return fmt.Errorf("%s: %w", templates.Message(err), err)
		}
	}
	if !due.IsZero() {
		if err := form.SetDueDate(due); err != nil {
			return fmt.Errorf("%s: %w", templates.Message(err), err)
		}
	}

	inv, err := templates.Submit(cmd.Context(), form, rt.ops)
	if err != nil {
		return fmt.Errorf("%s: %w", templates.Message(err), err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Đã tạo hóa đơn %s cho kỳ %s, hạn %s\n",
		inv.ID, inv.Period, viewmodel.FormatDate(inv.DueDate))
	return err
}
