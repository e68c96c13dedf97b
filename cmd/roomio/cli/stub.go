package cli

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/roomio/roomio/internal/app"
	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/billing/billingtest"
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run an in-memory billing backend",
	Long: `Run an in-memory billing backend that answers the /billing and
/contract routes. Point API_BASE_URL at it to work without the real backend.`,
	Example: `  # Stub with sample data on :8090
  roomio stub --addr :8090 --accept-token dev-token --seed`,
	RunE: runStub,
}

func init() {
	rootCmd.AddCommand(stubCmd)

	stubCmd.Flags().String("addr", ":8090", "Listen address")
	stubCmd.Flags().String("accept-token", "dev-token", "Bearer token the stub accepts")
	stubCmd.Flags().Bool("seed", false, "Load a sample contract, template and invoices")
}

func runStub(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	token, _ := cmd.Flags().GetString("accept-token")
	seed, _ := cmd.Flags().GetBool("seed")

	logger := app.NewLogger(nil)
	backend := billingtest.New(token)
	if seed {
		seedStub(backend, time.Now())
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return listen(cmd.Context(), logger, server)
}

// seedStub loads one contract with a template, a draft and an issued invoice,
// and an invoice shared with a roommate.
func seedStub(backend *billingtest.Server, now time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -2, 0)
	tenant := billing.Tenant{ID: "tn1", FullName: "Nguyễn Văn An", Phone: "0901234567"}
	room := billing.Room{ID: "rm1", RoomNumber: "101", Address: "12 Lê Lợi, Quận 1"}
	contract := backend.AddContract(billing.Contract{
		ID:          "ct1",
		Tenant:      billing.Populated(tenant.ID, tenant),
		Room:        billing.Populated(room.ID, room),
		StartDate:   start,
		MonthlyRent: 3000000,
		Deposit:     3000000,
		Status:      "active",
		ContractInfo: billing.ContractInfo{
			TenantName:  tenant.FullName,
			TenantPhone: tenant.Phone,
			RoomNumber:  room.RoomNumber,
			RoomAddress: room.Address,
			MonthlyRent: 3000000,
		},
	})

	prev, cur := 120.0, 150.0
	items := []billing.InvoiceItem{
		{Name: "Tiền phòng", Category: billing.CategoryRent, Quantity: 1, UnitPrice: 3000000, Amount: 3000000},
		{Name: "Điện", Category: billing.CategoryUtility, Quantity: 30, UnitPrice: 3500, Amount: 105000, PreviousReading: &prev, CurrentReading: &cur},
		{Name: "Internet", Category: billing.CategoryService, Quantity: 1, UnitPrice: 100000, Amount: 100000},
	}
	backend.AddTemplate(billing.InvoiceTemplate{
		ID:       "tpl1",
		Name:     "Hàng tháng",
		Contract: billing.RefID[billing.Contract](contract.ID),
		Items:    items,
	})

	for i, status := range []billing.Status{billing.StatusIssued, billing.StatusDraft} {
		period := start.AddDate(0, i, 0)
		backend.AddInvoice(billing.Invoice{
			Period:      billing.PeriodOf(period),
			Status:      status,
			TotalAmount: billing.SumItems(items),
			DueDate:     period.AddDate(0, 0, 5),
			Contract:    billing.Populated(contract.ID, contract),
			Room:        billing.Populated(room.ID, room),
			Tenant:      billing.Populated(tenant.ID, tenant),
			Items:       items,
		})
	}

	roommate := backend.AddInvoice(billing.Invoice{
		Period:      billing.PeriodOf(start),
		Status:      billing.StatusIssued,
		TotalAmount: 1500000,
		DueDate:     start.AddDate(0, 0, 5),
		Contract:    billing.RefID[billing.Contract](contract.ID),
		Items:       []billing.InvoiceItem{{Name: "Tiền phòng (ở ghép)", Category: billing.CategoryRent, Quantity: 1, UnitPrice: 1500000, Amount: 1500000}},
	})
	backend.ShareWithRoommate(roommate.ID)
}
