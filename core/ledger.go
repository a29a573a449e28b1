package core

import "time"

// =============================================================================
// TRANSACTION LEDGER - Append-only cash records
// =============================================================================
// The engine appends payment and salary-expense entries; it never reads them
// back for computation. The list surface exists for the admin UI and tests.

type EntryKind string

const (
	EntryPayment       EntryKind = "payment"        // invoice paid
	EntrySalaryExpense EntryKind = "salary_expense" // slip paid
)

// LedgerEntry records cash moving against a document. Entries are never
// updated or deleted; deleting a paid invoice deliberately does not reverse
// its payment entry.
type LedgerEntry struct {
	ID         EntryID
	Kind       EntryKind
	Document   DocumentRef
	EntityID   string
	EntityKind EntityKind
	Amount     Money
	Note       string
	RecordedAt time.Time
}
