// internal/circulation/engine.go
package circulation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LoanStorage is the slice of LoanStore the engine depends on.
type LoanStorage interface {
	Create(itemID, memberID uuid.UUID, issueDate, dueDate time.Time) (LoanRecord, error)
	FindEarliestOpen(itemID, memberID uuid.UUID) (LoanRecord, error)
	Close(loanID int64, returnDate time.Time, fine float64) (LoanRecord, error)
	ListOpen() []LoanRecord
}

// EngineConfig groups the circulation policy knobs.
type EngineConfig struct {
	LoanPeriodDays int
	FineRatePerDay float64
	// FinePolicy overrides FineRatePerDay when set.
	FinePolicy FinePolicy
	// Clock supplies "now" for issue dates. Defaults to time.Now.
	Clock func() time.Time
}

// CirculationEngine is the only writer of loan state and the only caller of
// the ledger, which is what keeps the two invariant-consistent: at every
// point available + open loans == total for each item.
type CirculationEngine struct {
	ledger *InventoryLedger
	store  LoanStorage

	loanPeriodDays int
	finePolicy     FinePolicy
	clock          func() time.Time

	mu        sync.Mutex
	itemLocks map[uuid.UUID]*sync.Mutex
}

// NewEngine builds an engine over the given ledger and store.
func NewEngine(ledger *InventoryLedger, store LoanStorage, cfg EngineConfig) *CirculationEngine {
	if cfg.LoanPeriodDays <= 0 {
		cfg.LoanPeriodDays = DefaultLoanPeriodDays
	}
	if cfg.FinePolicy == nil {
		rate := cfg.FineRatePerDay
		if rate <= 0 {
			rate = DefaultFineRatePerDay
		}
		cfg.FinePolicy = DailyRate(rate)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &CirculationEngine{
		ledger:         ledger,
		store:          store,
		loanPeriodDays: cfg.LoanPeriodDays,
		finePolicy:     cfg.FinePolicy,
		clock:          cfg.Clock,
		itemLocks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

// itemLock returns the mutex serializing issue and return for one item.
func (e *CirculationEngine) itemLock(itemID uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.itemLocks[itemID]
	if !ok {
		lock = &sync.Mutex{}
		e.itemLocks[itemID] = lock
	}
	return lock
}

// Issue reserves a copy and opens a loan due LoanPeriodDays from now. The
// operation is all-or-nothing: a store failure rolls the reservation back.
func (e *CirculationEngine) Issue(itemID, memberID uuid.UUID) (LoanRecord, error) {
	lock := e.itemLock(itemID)
	lock.Lock()
	defer lock.Unlock()

	if !e.ledger.TryReserve(itemID) {
		return LoanRecord{}, ErrNoCopiesAvailable
	}

	issueDate := Day(e.clock())
	dueDate := issueDate.AddDate(0, 0, e.loanPeriodDays)
	rec, err := e.store.Create(itemID, memberID, issueDate, dueDate)
	if err != nil {
		if relErr := e.ledger.Release(itemID); relErr != nil {
			return LoanRecord{}, fmt.Errorf("create loan: %v; reservation rollback failed: %w", err, relErr)
		}
		return LoanRecord{}, fmt.Errorf("create loan: %w", err)
	}
	return rec, nil
}

// Return closes the member's oldest open loan of the item, computes the
// fine, and releases the copy back to the ledger.
func (e *CirculationEngine) Return(itemID, memberID uuid.UUID, returnDate time.Time) (LoanRecord, error) {
	lock := e.itemLock(itemID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := e.store.FindEarliestOpen(itemID, memberID)
	if err != nil {
		return LoanRecord{}, err
	}

	day := Day(returnDate)
	if day.Before(rec.IssueDate) {
		return LoanRecord{}, fmt.Errorf("loan %d issued %s, returned %s: %w",
			rec.ID, rec.IssueDate.Format("2006-01-02"), day.Format("2006-01-02"), ErrInvalidReturnDate)
	}

	overdueDays := daysBetween(rec.DueDate, day)
	if overdueDays < 0 {
		overdueDays = 0
	}
	fine := e.finePolicy(overdueDays)

	closed, err := e.store.Close(rec.ID, day, fine)
	if err != nil {
		return LoanRecord{}, fmt.Errorf("close loan %d: %w", rec.ID, err)
	}
	if err := e.ledger.Release(itemID); err != nil {
		// The loan is closed but the copy was not released; surfaced for
		// operator reconciliation, never silently corrected.
		return closed, fmt.Errorf("loan %d closed but copy not released: %w", rec.ID, err)
	}
	return closed, nil
}
