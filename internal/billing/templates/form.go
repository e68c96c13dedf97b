// Package templates implements the apply-template flow: choosing a period and
// due date for a saved template and submitting it once the dates are valid.
package templates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/billing/api"
)

// DefaultDueOffset is the gap between the period start and the default due date.
const DefaultDueOffset = 5 * 24 * time.Hour

var (
	// ErrPeriodBeforeContract rejects a period starting before the contract.
	ErrPeriodBeforeContract = errors.New("templates: period precedes contract start")
	// ErrDueNotAfterPeriod rejects a due date on or before the period start.
	ErrDueNotAfterPeriod = errors.New("templates: due date must be after period start")
	// ErrIncomplete reports a form missing its template or contract.
	ErrIncomplete = errors.New("templates: template and contract are required")
)

// Messages shown for validation failures.
const (
	MsgPeriodBeforeContract = "Kỳ hóa đơn không được trước ngày bắt đầu hợp đồng."
	MsgDueNotAfterPeriod    = "Hạn thanh toán phải sau ngày bắt đầu kỳ hóa đơn."
	MsgIncomplete           = "Vui lòng chọn mẫu hóa đơn và hợp đồng."
)

// Message maps a form error to its user message.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrPeriodBeforeContract):
		return MsgPeriodBeforeContract
	case errors.Is(err, ErrDueNotAfterPeriod):
		return MsgDueNotAfterPeriod
	case errors.Is(err, ErrIncomplete):
		return MsgIncomplete
	default:
		return api.Message(err)
	}
}

// ApplyForm holds the choices made when applying a template. Dates are
// compared as calendar days; the current time and the contract start are read
// in billing.Location.
type ApplyForm struct {
	Template billing.InvoiceTemplate
	Contract billing.Contract
	period   time.Time
	due      time.Time
}

// NewApplyForm starts a form on the later of today and the contract start,
// with the default due date.
func NewApplyForm(tpl billing.InvoiceTemplate, contract billing.Contract, now time.Time) *ApplyForm {
	period := billing.DayOf(now)
	if start := billing.DayOf(contract.StartDate); !contract.StartDate.IsZero() && start.After(period) {
		period = start
	}
	return &ApplyForm{
		Template: tpl,
		Contract: contract,
		period:   period,
		due:      period.Add(DefaultDueOffset),
	}
}

// Day truncates a picked date to its calendar day as written. Instants from
// the backend go through billing.DayOf instead.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Period returns the selected period start.
func (f *ApplyForm) Period() time.Time { return f.period }

// DueDate returns the selected due date.
func (f *ApplyForm) DueDate() time.Time { return f.due }

// SetPeriod selects the period start and resets the due date to its default.
// A period before the contract start is refused and the form is unchanged.
func (f *ApplyForm) SetPeriod(d time.Time) error {
	d = Day(d)
	if err := f.checkPeriod(d); err != nil {
		return err
	}
	f.period = d
	f.due = d.Add(DefaultDueOffset)
	return nil
}

// SetDueDate selects the due date. A date not after the period start is
// refused and the form is unchanged.
func (f *ApplyForm) SetDueDate(d time.Time) error {
	d = Day(d)
	if !d.After(f.period) {
		return fmt.Errorf("%w: due %s, period %s", ErrDueNotAfterPeriod, d.Format(time.DateOnly), f.period.Format(time.DateOnly))
	}
	f.due = d
	return nil
}

// Validate checks every rule of the form.
func (f *ApplyForm) Validate() error {
	if f.Template.ID == "" || f.Contract.ID == "" {
		return ErrIncomplete
	}
	if err := f.checkPeriod(f.period); err != nil {
		return err
	}
	if !f.due.After(f.period) {
		return fmt.Errorf("%w: due %s, period %s", ErrDueNotAfterPeriod, f.due.Format(time.DateOnly), f.period.Format(time.DateOnly))
	}
	return nil
}

// Request builds the apply payload after validating the form.
func (f *ApplyForm) Request() (api.ApplyTemplateRequest, error) {
	if err := f.Validate(); err != nil {
		return api.ApplyTemplateRequest{}, err
	}
	p := billing.PeriodOf(f.period)
	req := api.ApplyTemplateRequest{
		ContractID:  f.Contract.ID,
		Month:       p.Month,
		Year:        p.Year,
		PeriodStart: f.period,
		DueDate:     f.due,
	}
	if err := validate.Struct(req); err != nil {
		return api.ApplyTemplateRequest{}, fmt.Errorf("templates: build request: %w", err)
	}
	return req, nil
}

func (f *ApplyForm) checkPeriod(d time.Time) error {
	if f.Contract.StartDate.IsZero() {
		return nil
	}
	if start := billing.DayOf(f.Contract.StartDate); d.Before(start) {
		return fmt.Errorf("%w: period %s, contract starts %s", ErrPeriodBeforeContract, d.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return nil
}

var validate = validator.New()

// Applier submits an apply-template request; state.Operations implements it.
type Applier interface {
	ApplyTemplate(ctx context.Context, templateID string, req api.ApplyTemplateRequest) (billing.Invoice, error)
}

// Submit validates the form and only then calls the backend.
func Submit(ctx context.Context, f *ApplyForm, applier Applier) (billing.Invoice, error) {
	req, err := f.Request()
	if err != nil {
		return billing.Invoice{}, err
	}
	return applier.ApplyTemplate(ctx, f.Template.ID, req)
}
