// Package billing defines the invoice, template and contract shapes shared by
// the Roomio billing client, state container and view model.
package billing

import (
	"time"
)

// Status enumerates invoice statuses reported by the backend.
type Status string

const (
	StatusDraft               Status = "draft"
	StatusIssued              Status = "issued"
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusPaid                Status = "paid"
	StatusOverdue             Status = "overdue"
	StatusCanceled            Status = "canceled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusIssued, StatusPendingConfirmation, StatusPaid, StatusOverdue, StatusCanceled:
		return true
	}
	return false
}

// Category classifies invoice items.
type Category string

const (
	CategoryRent        Category = "rent"
	CategoryUtility     Category = "utility"
	CategoryService     Category = "service"
	CategoryMaintenance Category = "maintenance"
	CategoryOther       Category = "other"
)

// RoommateKeySuffix is appended to the list key of roommate invoices.
const RoommateKeySuffix = "_roommate"

// Tenant is the populated form of a tenant reference.
type Tenant struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Room is the populated form of a room reference.
type Room struct {
	ID           string  `json:"_id"`
	RoomNumber   string  `json:"roomNumber,omitempty"`
	Address      string  `json:"address,omitempty"`
	Price        float64 `json:"price,omitempty"`
	MaxOccupancy int     `json:"maxOccupancy,omitempty"`
}

// CustomService is an extra service agreed in a contract.
type CustomService struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Unit  string  `json:"unit,omitempty"`
}

// ContractInfo is the snapshot a contract keeps of its parties and terms.
// It is the fallback source when tenant or room references are not populated.
type ContractInfo struct {
	TenantName     string          `json:"tenantName,omitempty"`
	TenantPhone    string          `json:"tenantPhone,omitempty"`
	RoomNumber     string          `json:"roomNumber,omitempty"`
	RoomAddress    string          `json:"roomAddress,omitempty"`
	MonthlyRent    float64         `json:"monthlyRent,omitempty"`
	Deposit        float64         `json:"deposit,omitempty"`
	CustomServices []CustomService `json:"customServices,omitempty"`
}

// Contract is the lease agreement referenced by invoices and templates.
type Contract struct {
	ID           string       `json:"_id"`
	Tenant       Ref[Tenant]  `json:"tenantId"`
	Room         Ref[Room]    `json:"roomId"`
	StartDate    time.Time    `json:"startDate"`
	EndDate      *time.Time   `json:"endDate,omitempty"`
	MonthlyRent  float64      `json:"monthlyRent,omitempty"`
	Deposit      float64      `json:"deposit,omitempty"`
	Status       string       `json:"status,omitempty"`
	ContractInfo ContractInfo `json:"contractInfo"`
}

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	Name            string   `json:"name" validate:"required"`
	Description     string   `json:"description,omitempty"`
	Category        Category `json:"category,omitempty" validate:"omitempty,oneof=rent utility service maintenance other"`
	Quantity        float64  `json:"quantity" validate:"gte=0"`
	UnitPrice       float64  `json:"unitPrice" validate:"gte=0"`
	Amount          float64  `json:"amount"`
	PreviousReading *float64 `json:"previousReading,omitempty"`
	CurrentReading  *float64 `json:"currentReading,omitempty"`
	IsPerPerson     bool     `json:"isPerPerson,omitempty"`
	PersonCount     int      `json:"personCount,omitempty" validate:"gte=0"`
}

// Metered reports whether the item is billed from meter readings.
func (it InvoiceItem) Metered() bool {
	return it.PreviousReading != nil && it.CurrentReading != nil
}

// Usage returns the consumption between the two readings, never negative.
func (it InvoiceItem) Usage() float64 {
	if !it.Metered() {
		return 0
	}
	if used := *it.CurrentReading - *it.PreviousReading; used > 0 {
		return used
	}
	return 0
}

// ComputeAmount derives the item amount from its pricing fields.
func (it InvoiceItem) ComputeAmount() float64 {
	switch {
	case it.Metered():
		return it.Usage() * it.UnitPrice
	case it.IsPerPerson:
		return float64(it.PersonCount) * it.UnitPrice
	default:
		return it.Quantity * it.UnitPrice
	}
}

// WithAmount returns a copy whose Amount is recomputed.
func (it InvoiceItem) WithAmount() InvoiceItem {
	it.Amount = it.ComputeAmount()
	return it
}

// SumItems totals item amounts.
func SumItems(items []InvoiceItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Amount
	}
	return total
}

// Invoice is a billing record for one rental period.
type Invoice struct {
	ID            string        `json:"_id"`
	InvoiceNumber string        `json:"invoiceNumber,omitempty"`
	Period        Period        `json:"period"`
	Status        Status        `json:"status"`
	TotalAmount   float64       `json:"totalAmount"`
	PaidAmount    float64       `json:"paidAmount"`
	DueDate       time.Time     `json:"dueDate"`
	IssueDate     *time.Time    `json:"issueDate,omitempty"`
	PaymentDate   *time.Time    `json:"paymentDate,omitempty"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	Contract      Ref[Contract] `json:"contractId"`
	Room          Ref[Room]     `json:"roomId"`
	Tenant        Ref[Tenant]   `json:"tenantId"`
	Items         []InvoiceItem `json:"items"`
	Notes         string        `json:"note,omitempty"`
	IsRoommate    bool          `json:"isRoommateInvoice,omitempty"`
}

// Key returns the list key of the invoice. Roommate entries carry a suffix so
// they never collide with a regular invoice sharing the same server id.
func (inv Invoice) Key() string {
	if inv.IsRoommate {
		return inv.ID + RoommateKeySuffix
	}
	return inv.ID
}

// Balance is the amount still owed.
func (inv Invoice) Balance() float64 {
	if b := inv.TotalAmount - inv.PaidAmount; b > 0 {
		return b
	}
	return 0
}

// InvoiceTemplate is a saved invoice shape reusable for new periods.
type InvoiceTemplate struct {
	ID        string        `json:"_id"`
	Name      string        `json:"name"`
	Contract  Ref[Contract] `json:"contractId"`
	Items     []InvoiceItem `json:"items"`
	Notes     string        `json:"note,omitempty"`
	CreatedAt *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt *time.Time    `json:"updatedAt,omitempty"`
}
