package billing

import "time"

// Clone returns a copy that shares no memory with r. Documents that
// implement Clone are copied through it.
func (r Ref[T]) Clone() Ref[T] {
	if r.value == nil {
		return r
	}
	v := *r.value
	if c, ok := any(v).(interface{ Clone() T }); ok {
		v = c.Clone()
	}
	return Ref[T]{id: r.id, value: &v}
}

// Clone returns a deep copy of c.
func (c Contract) Clone() Contract {
	c.Tenant = c.Tenant.Clone()
	c.Room = c.Room.Clone()
	c.EndDate = cloneTime(c.EndDate)
	if c.ContractInfo.CustomServices != nil {
		c.ContractInfo.CustomServices = append([]CustomService(nil), c.ContractInfo.CustomServices...)
	}
	return c
}

// Clone returns a deep copy of it.
func (it InvoiceItem) Clone() InvoiceItem {
	it.PreviousReading = cloneFloat(it.PreviousReading)
	it.CurrentReading = cloneFloat(it.CurrentReading)
	return it
}

// Clone returns a deep copy of inv.
func (inv Invoice) Clone() Invoice {
	inv.IssueDate = cloneTime(inv.IssueDate)
	inv.PaymentDate = cloneTime(inv.PaymentDate)
	inv.Contract = inv.Contract.Clone()
	inv.Room = inv.Room.Clone()
	inv.Tenant = inv.Tenant.Clone()
	inv.Items = CloneItems(inv.Items)
	return inv
}

// Clone returns a deep copy of tpl.
func (tpl InvoiceTemplate) Clone() InvoiceTemplate {
	tpl.Contract = tpl.Contract.Clone()
	tpl.Items = CloneItems(tpl.Items)
	tpl.CreatedAt = cloneTime(tpl.CreatedAt)
	tpl.UpdatedAt = cloneTime(tpl.UpdatedAt)
	return tpl
}

// CloneItems deep-copies items, keeping nil as nil.
func CloneItems(items []InvoiceItem) []InvoiceItem {
	if items == nil {
		return nil
	}
	out := make([]InvoiceItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
