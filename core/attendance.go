package core

// =============================================================================
// ATTENDANCE - Read-only query surface
// =============================================================================

type AttendanceStatus string

const (
	AttPresent     AttendanceStatus = "present"
	AttLate        AttendanceStatus = "late"
	AttAbsent      AttendanceStatus = "absent"
	AttUnpaidLeave AttendanceStatus = "unpaid_leave"
	AttPaidLeave   AttendanceStatus = "paid_leave"
)

// AttendanceRecord marks one entity on one calendar day. Re-marking the same
// (entity, date) pair replaces the prior record; the repositories key their
// upsert on that pair.
type AttendanceRecord struct {
	EntityID string
	Kind     EntityKind
	Date     Date
	Status   AttendanceStatus
}

// AttendanceStats summarizes one entity's attendance over a period.
type AttendanceStats struct {
	Present      int
	Late         int
	Absent       int
	UnpaidLeave  int
	PaidLeave    int
	DaysRecorded int
}

// BillableDays counts days charged under daily-fee billing.
func (s AttendanceStats) BillableDays() int {
	return s.Present + s.Late
}

// UnpaidAbsenceDays counts days deducted from salary.
func (s AttendanceStats) UnpaidAbsenceDays() int {
	return s.Absent + s.UnpaidLeave
}

// ComputeAttendanceStats tallies records. Callers are expected to pass
// records already scoped to one entity and one period.
func ComputeAttendanceStats(records []AttendanceRecord) AttendanceStats {
	var s AttendanceStats
	for _, r := range records {
		switch r.Status {
		case AttPresent:
			s.Present++
		case AttLate:
			s.Late++
		case AttAbsent:
			s.Absent++
		case AttUnpaidLeave:
			s.UnpaidLeave++
		case AttPaidLeave:
			s.PaidLeave++
		}
		s.DaysRecorded++
	}
	return s
}
