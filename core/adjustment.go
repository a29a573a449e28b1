/*
adjustment.go - One-off charges and payroll modifiers

PURPOSE:
  Adjustments are charges (student fines, materials) and payroll modifiers
  (bonus, fine, advance) tracked independently of any document until a
  generation sweep consumes them.

LIFECYCLE:
  Created Pending. Transitions to Applied exactly once, when generation (or
  an immediate merge) consumes it into an invoice or slip. An Applied
  adjustment may be released back to Pending (document deleted, or
  postponement with the effective date pushed to the next month) or
  permanently removed - but only through its owning document. A Pending
  adjustment may be edited or deleted freely; an Applied one may not.

INVARIANT:
  An adjustment is referenced by at most one live document at a time.
  The state is a tagged variant - Applied always carries its owner - so
  "applied with no reference" is unrepresentable.
*/
package core

// =============================================================================
// DOCUMENT REFERENCE - Owner of an applied adjustment
// =============================================================================

type DocumentKind string

const (
	DocInvoice DocumentKind = "invoice"
	DocSlip    DocumentKind = "slip"
)

// DocumentRef identifies the invoice or slip that consumed an adjustment.
type DocumentRef struct {
	Kind DocumentKind
	ID   string
}

func InvoiceRef(id InvoiceID) DocumentRef {
	return DocumentRef{Kind: DocInvoice, ID: string(id)}
}

func SlipRef(id SlipID) DocumentRef {
	return DocumentRef{Kind: DocSlip, ID: string(id)}
}

// =============================================================================
// ADJUSTMENT STATE - Pending | Applied{ref}
// =============================================================================

// AdjustmentState is either Pending or Applied with an owning document.
// The zero value is Pending.
type AdjustmentState struct {
	applied bool
	ref     DocumentRef
}

func Pending() AdjustmentState {
	return AdjustmentState{}
}

func AppliedTo(ref DocumentRef) AdjustmentState {
	return AdjustmentState{applied: true, ref: ref}
}

func (s AdjustmentState) IsApplied() bool { return s.applied }

// Owner returns the owning document reference and whether the state is
// Applied.
func (s AdjustmentState) Owner() (DocumentRef, bool) {
	return s.ref, s.applied
}

func (s AdjustmentState) String() string {
	if s.applied {
		return "applied"
	}
	return "pending"
}

// =============================================================================
// STUDENT AND PAYROLL ADJUSTMENTS
// =============================================================================

type StudentChargeKind string

const (
	ChargeFine  StudentChargeKind = "fine"
	ChargeOther StudentChargeKind = "other"
)

type PayrollAdjustmentKind string

const (
	AdjBonus     PayrollAdjustmentKind = "bonus"
	AdjFine      PayrollAdjustmentKind = "fine"
	AdjAdvance   PayrollAdjustmentKind = "advance"
	AdjDeduction PayrollAdjustmentKind = "deduction"
)

// IsBonus reports whether the kind increases pay; everything else deducts.
func (k PayrollAdjustmentKind) IsBonus() bool { return k == AdjBonus }

// StudentAdjustment is a one-off charge awaiting (or consumed by) an invoice.
type StudentAdjustment struct {
	ID          AdjustmentID
	StudentID   StudentID
	Kind        StudentChargeKind
	Amount      Money
	Description string
	Date        Date
	State       AdjustmentState
}

// PayrollAdjustment is a pay modifier awaiting (or consumed by) a slip.
type PayrollAdjustment struct {
	ID          AdjustmentID
	StaffID     StaffID
	Kind        PayrollAdjustmentKind
	Amount      Money
	Description string
	Date        Date
	State       AdjustmentState
}

// Charge is the shared view of both adjustment kinds, used where billing
// math does not care which domain an adjustment belongs to.
type Charge interface {
	ChargeAmount() Money
	ChargeDescription() string
	ChargeDate() Date
}

func (a StudentAdjustment) ChargeAmount() Money        { return a.Amount }
func (a StudentAdjustment) ChargeDescription() string  { return a.Description }
func (a StudentAdjustment) ChargeDate() Date           { return a.Date }
func (a PayrollAdjustment) ChargeAmount() Money        { return a.Amount }
func (a PayrollAdjustment) ChargeDescription() string  { return a.Description }
func (a PayrollAdjustment) ChargeDate() Date           { return a.Date }

// ValidateCharge checks the fields shared by both adjustment kinds.
func ValidateCharge(amount Money, description string) error {
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if description == "" {
		return &ValidationError{Field: "description", Reason: "required"}
	}
	return nil
}
