/*
scheduler.go - Automated month-close generation scheduler

PURPOSE:
  Periodically runs the billing and payroll sweeps for the most recently
  completed month. Generation is idempotent (at most one tuition billing
  per student+period, at most one slip per staff+period), so re-running
  on every tick only picks up what a previous run missed.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Targets the previous calendar month (the one that just closed)
  - Skips work already done via the engines' own dedup invariants

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewGenerationScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GenerateInvoices/GeneratePayroll endpoints (manual runs)
  - billing, payroll: generation engines
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/brightsteps/billing-engine/core"
)

// GenerationScheduler handles automated month-close billing and payroll.
type GenerationScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewGenerationScheduler creates a new scheduler.
func NewGenerationScheduler(handler *Handler) *GenerationScheduler {
	return &GenerationScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (gs *GenerationScheduler) Start() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if !gs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	gs.ticker = time.NewTicker(gs.CheckInterval)
	gs.wg.Add(1)

	go gs.run()

	log.Printf("[Scheduler] Started with check interval: %v", gs.CheckInterval)
}

// Stop stops the scheduler.
func (gs *GenerationScheduler) Stop() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.ticker != nil {
		gs.ticker.Stop()
		close(gs.stop)
		gs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (gs *GenerationScheduler) run() {
	defer gs.wg.Done()

	// Run immediately on start
	gs.checkAndProcess()

	for {
		select {
		case <-gs.ticker.C:
			gs.checkAndProcess()
		case <-gs.stop:
			return
		}
	}
}

func (gs *GenerationScheduler) checkAndProcess() {
	ctx := context.Background()
	period := core.PeriodOf(core.Today()).Previous()

	invoices, err := gs.Handler.Billing.GenerateInvoices(ctx, period, nil)
	if err != nil {
		log.Printf("[Scheduler] Billing sweep for %s: %v", period, err)
	}
	slips, err := gs.Handler.Payroll.GeneratePayroll(ctx, period, nil)
	if err != nil {
		log.Printf("[Scheduler] Payroll sweep for %s: %v", period, err)
	}

	if invoices > 0 || slips > 0 {
		log.Printf("[Scheduler] Month close %s: %d invoices, %d slips", period, invoices, slips)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (gs *GenerationScheduler) RunNow() {
	gs.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled run will occur.
func (gs *GenerationScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(gs.CheckInterval)
}
