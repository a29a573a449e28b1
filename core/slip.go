package core

import "time"

// =============================================================================
// SALARY SLIP - Staff payroll document
// =============================================================================

// AppliedAdjustment is the slip's snapshot of a consumed payroll adjustment.
// It is a copy, not a live reference: deleting the adjustment later (via
// detach-cancel) does not silently rewrite a paid slip's history.
type AppliedAdjustment struct {
	AdjustmentID AdjustmentID
	Kind         PayrollAdjustmentKind
	Description  string
	Amount       Money
}

// SalarySlip is one staff member's pay computation for one period.
// BaseSalary is snapshotted at generation time; NetSalary is always the
// recomputed sum of the slip's components.
type SalarySlip struct {
	ID                  SlipID
	StaffID             StaffID
	Period              Period
	BaseSalary          Money
	AttendanceDeduction Money
	Adjustments         []AppliedAdjustment
	TotalBonuses        Money
	TotalDeductions     Money
	NetSalary           Money
	Status              DocumentStatus
	GeneratedAt         time.Time
	PaidOn              Date // zero unless Status is paid
}

// Recalculate re-derives the adjustment totals and net salary:
//
//	net = base - attendanceDeduction - deductions + bonuses
//
// clamped at zero. Negative pay is not representable on a slip; the unpaid
// remainder is a matter for an advance adjustment in a later period.
func (s *SalarySlip) Recalculate() {
	bonuses := ZeroMoney()
	deductions := ZeroMoney()
	for _, a := range s.Adjustments {
		if a.Kind.IsBonus() {
			bonuses = bonuses.Add(a.Amount)
		} else {
			deductions = deductions.Add(a.Amount)
		}
	}
	s.TotalBonuses = bonuses
	s.TotalDeductions = deductions
	s.NetSalary = s.BaseSalary.
		Sub(s.AttendanceDeduction).
		Sub(deductions).
		Add(bonuses).
		ClampZero()
}
