// internal/circulation/service.go
package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service defines the interface for the circulation service.
type Service interface {
	Issue(ctx context.Context, memberID, itemID uuid.UUID) (LoanRecord, error)
	Return(ctx context.Context, memberID, itemID uuid.UUID, returnDate time.Time) (LoanRecord, error)
	Overdue(ctx context.Context, today time.Time) ([]LoanRecord, error)
	AvailableCopies(ctx context.Context, itemID uuid.UUID) (available, total int, err error)
	OpenLoansFor(ctx context.Context, memberID uuid.UUID) ([]LoanRecord, error)
}

// LoanReader exposes the read accessors the service surfaces from the store.
type LoanReader interface {
	OpenLoansFor(memberID uuid.UUID) []LoanRecord
}

// CatalogDirectory supplies catalog-owned copy totals for items.
type CatalogDirectory interface {
	TotalCopies(ctx context.Context, itemID uuid.UUID) (int, error)
}

// MemberDirectory answers member existence and eligibility checks.
type MemberDirectory interface {
	ActiveMember(ctx context.Context, memberID uuid.UUID) (bool, error)
}

// Journal records circulation events for audit and reporting.
type Journal interface {
	RecordIssued(ctx context.Context, ev LoanIssuedEvent) error
	RecordReturned(ctx context.Context, ev LoanReturnedEvent) error
}
