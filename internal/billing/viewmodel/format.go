// Package viewmodel turns billing records into display values: status labels
// and colors, VND amounts, dates and party names resolved through contract
// fallbacks.
package viewmodel

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roomio/roomio/internal/billing"
)

// CurrencySymbol is appended to formatted amounts.
const CurrencySymbol = "₫"

// DateLayout is the display layout for dates.
const DateLayout = "02/01/2006"

var printer = message.NewPrinter(language.Vietnamese)

// FormatVND formats amount as whole dong with Vietnamese grouping,
// e.g. 1500000 => "1.500.000 ₫".
func FormatVND(amount float64) string {
	return printer.Sprintf("%d %s", int64(math.Round(amount)), CurrencySymbol)
}

// FormatDate formats t as DD/MM/YYYY in billing.Location; the zero time
// formats as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(billing.Location()).Format(DateLayout)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}

type statusStyle struct {
	label string
	color string
}

// issued reads as "unpaid" to tenants; the backend uses it for every invoice
// sent out and not yet settled.
var statusStyles = map[billing.Status]statusStyle{
	billing.StatusDraft:               {label: "Nháp", color: "#9E9E9E"},
	billing.StatusIssued:              {label: "Chưa thanh toán", color: "#FF9800"},
	billing.StatusPendingConfirmation: {label: "Chờ xác nhận", color: "#2196F3"},
	billing.StatusPaid:                {label: "Đã thanh toán", color: "#4CAF50"},
	billing.StatusOverdue:             {label: "Quá hạn", color: "#F44336"},
	billing.StatusCanceled:            {label: "Đã hủy", color: "#757575"},
}

// StatusLabel returns the Vietnamese label of a status. Unknown statuses are
// shown verbatim.
func StatusLabel(s billing.Status) string {
	if style, ok := statusStyles[s]; ok {
		return style.label
	}
	return string(s)
}

// StatusColor returns the badge color of a status.
func StatusColor(s billing.Status) string {
	if style, ok := statusStyles[s]; ok {
		return style.color
	}
	return "#9E9E9E"
}

var categoryLabels = map[billing.Category]string{
	billing.CategoryRent:        "Tiền phòng",
	billing.CategoryUtility:     "Tiện ích",
	billing.CategoryService:     "Dịch vụ",
	billing.CategoryMaintenance: "Bảo trì",
	billing.CategoryOther:       "Khác",
}

// CategoryLabel returns the Vietnamese label of an item category.
func CategoryLabel(c billing.Category) string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return categoryLabels[billing.CategoryOther]
}
