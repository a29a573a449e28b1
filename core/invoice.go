package core

// =============================================================================
// INVOICE - Student billing document
// =============================================================================

type DocumentStatus string

const (
	DocPending DocumentStatus = "pending"
	DocPaid    DocumentStatus = "paid"
)

type LineKind string

const (
	LineTuition LineKind = "tuition"
	LineCharge  LineKind = "charge"
)

// LineItem is one billed row on an invoice.
type LineItem struct {
	Kind        LineKind
	Description string
	Amount      Money
}

// Invoice bills a student for one period. AmountDue is denormalized and
// recomputed on every mutation; it is never edited independently.
type Invoice struct {
	ID        InvoiceID
	Number    string
	StudentID StudentID
	Period    Period
	IssuedOn  Date
	DueDate   Date
	Status    DocumentStatus
	PaidOn    Date // zero unless Status is paid
	Items     []LineItem
	AmountDue Money
}

// Recalculate re-derives AmountDue from the line items. Call after any
// mutation of Items.
func (inv *Invoice) Recalculate() {
	total := ZeroMoney()
	for _, it := range inv.Items {
		total = total.Add(it.Amount)
	}
	inv.AmountDue = total
}

// AppendItem adds a line and keeps AmountDue consistent.
func (inv *Invoice) AppendItem(item LineItem) {
	inv.Items = append(inv.Items, item)
	inv.Recalculate()
}

// HasTuition reports whether any line bills tuition. A period counts as
// billed for a student when an invoice for that student+period has a
// tuition line, regardless of adjustment-only invoices for the period.
func (inv *Invoice) HasTuition() bool {
	for _, it := range inv.Items {
		if it.Kind == LineTuition {
			return true
		}
	}
	return false
}
