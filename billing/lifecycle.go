package billing

import (
	"context"

	"github.com/brightsteps/billing-engine/core"
)

// =============================================================================
// INVOICE LIFECYCLE
// =============================================================================

// MarkPaid transitions a pending invoice to paid and records the payment in
// the transaction ledger. An already-paid invoice is rejected, not treated
// as a no-op: the ledger must hold exactly one payment entry per invoice.
func (e *Engine) MarkPaid(ctx context.Context, id core.InvoiceID) (*core.Invoice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	inv, err := e.store.InvoiceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &core.NotFoundError{Kind: "invoice", ID: string(id)}
	}
	if inv.Status != core.DocPending {
		return nil, &core.InvalidStateError{Kind: "invoice", ID: string(id), State: string(inv.Status), Op: "mark-paid"}
	}

	inv.Status = core.DocPaid
	inv.PaidOn = e.today()
	if err := e.store.UpsertInvoice(ctx, *inv); err != nil {
		return nil, err
	}
	if err := e.appendPayment(ctx, *inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Delete removes an invoice and releases every adjustment it consumed back
// to Pending, so they become billable again in a future sweep. Paid
// invoices may be deleted (administrative correction); the recorded payment
// entry is deliberately NOT reversed.
func (e *Engine) Delete(ctx context.Context, id core.InvoiceID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inv, err := e.store.InvoiceByID(ctx, id)
	if err != nil {
		return err
	}
	if inv == nil {
		return &core.NotFoundError{Kind: "invoice", ID: string(id)}
	}

	if err := e.store.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	owned, err := e.store.StudentAdjustmentsAppliedTo(ctx, core.InvoiceRef(id))
	if err != nil {
		return err
	}
	for _, adj := range owned {
		adj.State = core.Pending()
		if err := e.store.UpsertStudentAdjustment(ctx, adj); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// ADJUSTMENT CRUD (pending only)
// =============================================================================

// UpdateAdjustment edits a pending student adjustment. Applied adjustments
// must be released through their owning invoice first.
func (e *Engine) UpdateAdjustment(ctx context.Context, id core.AdjustmentID, kind core.StudentChargeKind, amount core.Money, description string, date core.Date) (*core.StudentAdjustment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := core.ValidateCharge(amount, description); err != nil {
		return nil, err
	}
	adj, err := e.store.StudentAdjustmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if adj == nil {
		return nil, &core.NotFoundError{Kind: "adjustment", ID: string(id)}
	}
	if adj.State.IsApplied() {
		return nil, &core.InvalidStateError{Kind: "adjustment", ID: string(id), State: adj.State.String(), Op: "edit"}
	}

	adj.Kind = kind
	adj.Amount = amount
	adj.Description = description
	if !date.IsZero() {
		adj.Date = date
	}
	if err := e.store.UpsertStudentAdjustment(ctx, *adj); err != nil {
		return nil, err
	}
	return adj, nil
}

// DeleteAdjustment removes a pending student adjustment.
func (e *Engine) DeleteAdjustment(ctx context.Context, id core.AdjustmentID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	adj, err := e.store.StudentAdjustmentByID(ctx, id)
	if err != nil {
		return err
	}
	if adj == nil {
		return &core.NotFoundError{Kind: "adjustment", ID: string(id)}
	}
	if adj.State.IsApplied() {
		return &core.InvalidStateError{Kind: "adjustment", ID: string(id), State: adj.State.String(), Op: "delete"}
	}
	return e.store.DeleteStudentAdjustment(ctx, id)
}
