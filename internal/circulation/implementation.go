// internal/circulation/implementation.go
package circulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ServiceParams groups the dependencies of the circulation service.
type ServiceParams struct {
	Engine  *CirculationEngine
	Ledger  *InventoryLedger
	Scanner *OverdueScanner
	Loans   LoanReader
	Catalog CatalogDirectory
	Members MemberDirectory
	// Journal may be nil; journal writes are best-effort audit.
	Journal Journal
	Logger  *slog.Logger
}

// service implements the Service interface.
type service struct {
	engine  *CirculationEngine
	ledger  *InventoryLedger
	scanner *OverdueScanner
	loans   LoanReader
	catalog CatalogDirectory
	members MemberDirectory
	journal Journal
	logger  *slog.Logger

	reportLimiter *rate.Limiter
}

// NewService creates a new circulation service instance.
func NewService(p ServiceParams) Service {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return &service{
		engine:        p.Engine,
		ledger:        p.Ledger,
		scanner:       p.Scanner,
		loans:         p.Loans,
		catalog:       p.Catalog,
		members:       p.Members,
		journal:       p.Journal,
		logger:        p.Logger,
		reportLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

// Issue validates the member and item against their directories, then opens
// a loan through the engine.
func (s *service) Issue(ctx context.Context, memberID, itemID uuid.UUID) (LoanRecord, error) {
	active, err := s.members.ActiveMember(ctx, memberID)
	if err != nil {
		return LoanRecord{}, fmt.Errorf("validate member: %w", err)
	}
	if !active {
		return LoanRecord{}, fmt.Errorf("member %s: %w", memberID, ErrMemberIneligible)
	}

	if err := s.ensureRegistered(ctx, itemID); err != nil {
		return LoanRecord{}, err
	}

	rec, err := s.engine.Issue(itemID, memberID)
	if err != nil {
		return LoanRecord{}, err
	}

	if s.journal != nil {
		ev := LoanIssuedEvent{LoanID: rec.ID, ItemID: itemID, MemberID: memberID, DueDate: rec.DueDate}
		if err := s.journal.RecordIssued(ctx, ev); err != nil {
			s.logger.Warn("journal append failed", "event", "LoanIssued", "loan_id", rec.ID, "error", err)
		}
	}
	return rec, nil
}

// Return closes the member's oldest open loan of the item.
func (s *service) Return(ctx context.Context, memberID, itemID uuid.UUID, returnDate time.Time) (LoanRecord, error) {
	rec, err := s.engine.Return(itemID, memberID, returnDate)
	if err != nil {
		return LoanRecord{}, err
	}

	if s.journal != nil {
		ev := LoanReturnedEvent{
			LoanID:     rec.ID,
			ItemID:     itemID,
			MemberID:   memberID,
			ReturnDate: *rec.ReturnDate,
			Fine:       rec.Fine,
		}
		if err := s.journal.RecordReturned(ctx, ev); err != nil {
			s.logger.Warn("journal append failed", "event", "LoanReturned", "loan_id", rec.ID, "error", err)
		}
	}
	return rec, nil
}

// Overdue produces the reminder list: every open loan past due as of today.
func (s *service) Overdue(ctx context.Context, today time.Time) ([]LoanRecord, error) {
	if !s.reportLimiter.Allow() {
		return nil, ErrReportThrottled
	}
	return s.scanner.Scan(today), nil
}

// AvailableCopies reports how many copies of the item can be lent right now.
func (s *service) AvailableCopies(ctx context.Context, itemID uuid.UUID) (int, int, error) {
	if err := s.ensureRegistered(ctx, itemID); err != nil {
		return 0, 0, err
	}
	return s.ledger.AvailableCopies(itemID), s.ledger.TotalCopies(itemID), nil
}

// OpenLoansFor returns the member's open loans, oldest first.
func (s *service) OpenLoansFor(ctx context.Context, memberID uuid.UUID) ([]LoanRecord, error) {
	return s.loans.OpenLoansFor(memberID), nil
}

// ensureRegistered lazily syncs the catalog total into the ledger the first
// time an item is seen. The catalog stays the owner of total copies.
func (s *service) ensureRegistered(ctx context.Context, itemID uuid.UUID) error {
	if s.ledger.Known(itemID) {
		return nil
	}
	total, err := s.catalog.TotalCopies(ctx, itemID)
	if err != nil {
		return fmt.Errorf("catalog lookup for item %s: %w", itemID, err)
	}
	s.ledger.Register(itemID, total)
	return nil
}
