package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

func TestMoneyClampZero(t *testing.T) {
	if got := MoneyFromInt(-50).ClampZero().String(); got != "0.00" {
		t.Errorf("negative clamp = %s", got)
	}
	if got := MoneyFromInt(50).ClampZero().String(); got != "50.00" {
		t.Errorf("positive clamp = %s", got)
	}
}

func TestMoneyDivisionExact(t *testing.T) {
	// 9000 / 30 stays exact under decimal arithmetic.
	perDay := MoneyFromInt(9000).Div(decimal.NewFromInt(30))
	if got := perDay.MulInt(2).String(); got != "600.00" {
		t.Errorf("2 day deduction = %s", got)
	}
}

func TestParseMoney(t *testing.T) {
	if _, err := ParseMoney("abc"); !IsValidation(err) {
		t.Error("garbage should be a validation error")
	}
	m, err := ParseMoney("1234.56")
	if err != nil {
		t.Fatalf("ParseMoney: %v", err)
	}
	if m.String() != "1234.56" {
		t.Errorf("round trip = %s", m.String())
	}
}

// =============================================================================
// ADJUSTMENT STATE
// =============================================================================

func TestAdjustmentStateTransitions(t *testing.T) {
	s := Pending()
	if s.IsApplied() {
		t.Error("fresh state should be pending")
	}
	if _, ok := s.Owner(); ok {
		t.Error("pending state has no owner")
	}

	ref := InvoiceRef("inv-1")
	s = AppliedTo(ref)
	if !s.IsApplied() {
		t.Error("applied state should report applied")
	}
	owner, ok := s.Owner()
	if !ok || owner != ref {
		t.Errorf("owner = %v, %v", owner, ok)
	}
}

func TestValidateCharge(t *testing.T) {
	tests := []struct {
		name   string
		amount Money
		desc   string
		ok     bool
	}{
		{"valid", MoneyFromInt(100), "Late fee", true},
		{"zero amount", ZeroMoney(), "Late fee", false},
		{"negative amount", MoneyFromInt(-5), "Late fee", false},
		{"empty description", MoneyFromInt(100), "", false},
	}
	for _, tt := range tests {
		err := ValidateCharge(tt.amount, tt.desc)
		if (err == nil) != tt.ok {
			t.Errorf("%s: err = %v", tt.name, err)
		}
		if err != nil && !IsValidation(err) {
			t.Errorf("%s: not a validation error: %v", tt.name, err)
		}
	}
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestAttendanceStats(t *testing.T) {
	records := []AttendanceRecord{
		{Status: AttPresent}, {Status: AttPresent}, {Status: AttLate},
		{Status: AttAbsent}, {Status: AttUnpaidLeave}, {Status: AttPaidLeave},
	}
	stats := ComputeAttendanceStats(records)
	if got := stats.BillableDays(); got != 3 {
		t.Errorf("BillableDays = %d", got)
	}
	if got := stats.UnpaidAbsenceDays(); got != 2 {
		t.Errorf("UnpaidAbsenceDays = %d", got)
	}
	if stats.DaysRecorded != 6 {
		t.Errorf("DaysRecorded = %d", stats.DaysRecorded)
	}
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func TestInvoiceRecalculate(t *testing.T) {
	inv := Invoice{Items: []LineItem{
		{Kind: LineTuition, Amount: MoneyFromInt(1500)},
		{Kind: LineCharge, Amount: MoneyFromInt(250)},
	}}
	inv.Recalculate()
	if got := inv.AmountDue.String(); got != "1750.00" {
		t.Errorf("AmountDue = %s", got)
	}
	if !inv.HasTuition() {
		t.Error("HasTuition should be true")
	}

	inv.AppendItem(LineItem{Kind: LineCharge, Amount: MoneyFromInt(50)})
	if got := inv.AmountDue.String(); got != "1800.00" {
		t.Errorf("AmountDue after append = %s", got)
	}
}

func TestInvoiceHasTuition_ChargeOnly(t *testing.T) {
	inv := Invoice{Items: []LineItem{{Kind: LineCharge, Amount: MoneyFromInt(100)}}}
	if inv.HasTuition() {
		t.Error("charge-only invoice should not count as tuition")
	}
}

func TestSlipRecalculate(t *testing.T) {
	slip := SalarySlip{
		BaseSalary:          MoneyFromInt(9000),
		AttendanceDeduction: MoneyFromInt(600),
		Adjustments: []AppliedAdjustment{
			{Kind: AdjBonus, Amount: MoneyFromInt(750)},
			{Kind: AdjAdvance, Amount: MoneyFromInt(1200)},
			{Kind: AdjFine, Amount: MoneyFromInt(100)},
		},
	}
	slip.Recalculate()
	if got := slip.TotalBonuses.String(); got != "750.00" {
		t.Errorf("TotalBonuses = %s", got)
	}
	if got := slip.TotalDeductions.String(); got != "1300.00" {
		t.Errorf("TotalDeductions = %s", got)
	}
	if got := slip.NetSalary.String(); got != "7850.00" {
		t.Errorf("NetSalary = %s", got)
	}
}

func TestSlipRecalculate_Clamped(t *testing.T) {
	slip := SalarySlip{
		BaseSalary: MoneyFromInt(1000),
		Adjustments: []AppliedAdjustment{
			{Kind: AdjAdvance, Amount: MoneyFromInt(5000)},
		},
	}
	slip.Recalculate()
	if got := slip.NetSalary.String(); got != "0.00" {
		t.Errorf("NetSalary = %s, want clamped to zero", got)
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	if got := FormatInvoiceNumber(1); got != "INV-0001" {
		t.Errorf("seq 1 = %s", got)
	}
	if got := FormatInvoiceNumber(12345); got != "INV-12345" {
		t.Errorf("seq 12345 = %s", got)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestErrorUnwrapping(t *testing.T) {
	nf := &NotFoundError{Kind: "student", ID: "s-1"}
	if !errors.Is(nf, ErrNotFound) || !IsNotFound(nf) {
		t.Error("NotFoundError should unwrap to ErrNotFound")
	}

	is := &InvalidStateError{Kind: "invoice", ID: "i-1", State: "paid", Op: "mark-paid"}
	if !IsInvalidState(is) {
		t.Error("InvalidStateError should unwrap to ErrInvalidState")
	}

	v := &ValidationError{Field: "amount", Reason: "must be positive"}
	if !IsValidation(v) {
		t.Error("ValidationError should unwrap to ErrValidation")
	}
	if IsNotFound(v) {
		t.Error("validation error is not a not-found error")
	}
}

