package viewmodel

import (
	"strconv"
	"time"

	"github.com/roomio/roomio/internal/billing"
)

// Party is the tenant and room shown on an invoice.
type Party struct {
	TenantName  string `json:"tenantName"`
	TenantPhone string `json:"tenantPhone,omitempty"`
	RoomNumber  string `json:"roomNumber"`
	RoomAddress string `json:"roomAddress,omitempty"`
}

// ResolveParty reads tenant and room details from the invoice references,
// falling back to the populated contract and then to its contractInfo snapshot.
func ResolveParty(inv billing.Invoice) Party {
	contract, _ := inv.Contract.Value()
	info := contract.ContractInfo

	tenant := billing.Resolve(inv.Tenant,
		func(t billing.Tenant) billing.Tenant { return t },
		func(string) billing.Tenant {
			t, _ := contract.Tenant.Value()
			return t
		})
	room := billing.Resolve(inv.Room,
		func(r billing.Room) billing.Room { return r },
		func(string) billing.Room {
			r, _ := contract.Room.Value()
			return r
		})

	return Party{
		TenantName:  firstNonEmpty(tenant.FullName, info.TenantName),
		TenantPhone: firstNonEmpty(tenant.Phone, info.TenantPhone),
		RoomNumber:  firstNonEmpty(room.RoomNumber, info.RoomNumber),
		RoomAddress: firstNonEmpty(room.Address, info.RoomAddress),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Actions lists what the backend accepts for an invoice in its current status.
type Actions struct {
	Edit           bool `json:"edit"`
	Complete       bool `json:"complete"`
	ConfirmPayment bool `json:"confirmPayment"`
	MarkPaid       bool `json:"markPaid"`
	Delete         bool `json:"delete"`
}

// ActionsFor derives the available actions from a status.
func ActionsFor(s billing.Status) Actions {
	return Actions{
		Edit:           s == billing.StatusDraft,
		Complete:       s == billing.StatusDraft,
		ConfirmPayment: s == billing.StatusIssued || s == billing.StatusOverdue,
		MarkPaid:       s == billing.StatusIssued || s == billing.StatusOverdue || s == billing.StatusPendingConfirmation,
		Delete:         s != billing.StatusPaid,
	}
}

// ItemView is a display row of an invoice item.
type ItemView struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Detail   string `json:"detail"`
	Price    string `json:"unitPrice"`
	Amount   string `json:"amount"`
}

// NewItemView formats an item. Metered items show their readings.
func NewItemView(it billing.InvoiceItem) ItemView {
	v := ItemView{
		Name:     it.Name,
		Category: CategoryLabel(it.Category),
		Price:    FormatVND(it.UnitPrice),
		Amount:   FormatVND(it.Amount),
	}
	switch {
	case it.Metered():
		v.Detail = printer.Sprintf("%s → %s (%s)", number(*it.PreviousReading), number(*it.CurrentReading), number(it.Usage()))
	case it.IsPerPerson:
		v.Detail = printer.Sprintf("%d người", it.PersonCount)
	default:
		v.Detail = "x" + number(it.Quantity)
	}
	return v
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// InvoiceView is an invoice ready for display.
type InvoiceView struct {
	ID            string     `json:"id"`
	Key           string     `json:"key"`
	Number        string     `json:"invoiceNumber"`
	Period        string     `json:"period"`
	Status        string     `json:"status"`
	StatusLabel   string     `json:"statusLabel"`
	StatusColor   string     `json:"statusColor"`
	Total         string     `json:"total"`
	Paid          string     `json:"paid"`
	Balance       string     `json:"balance"`
	DueDate       string     `json:"dueDate"`
	IssueDate     string     `json:"issueDate,omitempty"`
	PaymentDate   string     `json:"paymentDate,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	PastDue       bool       `json:"pastDue"`
	IsRoommate    bool       `json:"isRoommate"`
	Party         Party      `json:"party"`
	Items         []ItemView `json:"items"`
	Actions       Actions    `json:"actions"`
}

// NewInvoiceView formats inv as seen at now. PastDue only flags an unsettled
// invoice whose due day has passed; the status itself stays the server's.
func NewInvoiceView(inv billing.Invoice, now time.Time) InvoiceView {
	items := make([]ItemView, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = NewItemView(it)
	}
	unsettled := inv.Status == billing.StatusIssued || inv.Status == billing.StatusOverdue
	return InvoiceView{
		ID:            inv.ID,
		Key:           inv.Key(),
		Number:        inv.InvoiceNumber,
		Period:        inv.Period.String(),
		Status:        string(inv.Status),
		StatusLabel:   StatusLabel(inv.Status),
		StatusColor:   StatusColor(inv.Status),
		Total:         FormatVND(inv.TotalAmount),
		Paid:          FormatVND(inv.PaidAmount),
		Balance:       FormatVND(inv.Balance()),
		DueDate:       FormatDate(inv.DueDate),
		IssueDate:     formatDatePtr(inv.IssueDate),
		PaymentDate:   formatDatePtr(inv.PaymentDate),
		PaymentMethod: inv.PaymentMethod,
		PastDue:       unsettled && !inv.DueDate.IsZero() && billing.DayOf(now).After(billing.DayOf(inv.DueDate)),
		IsRoommate:    inv.IsRoommate,
		Party:         ResolveParty(inv),
		Items:         items,
		Actions:       ActionsFor(inv.Status),
	}
}

// NewInvoiceViews formats a list.
func NewInvoiceViews(list []billing.Invoice, now time.Time) []InvoiceView {
	out := make([]InvoiceView, len(list))
	for i, inv := range list {
		out[i] = NewInvoiceView(inv, now)
	}
	return out
}
