// internal/circulation/domain.go
package circulation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoCopiesAvailable = errors.New("circulation: no copies available")
	ErrNoMatchingLoan    = errors.New("circulation: no open loan for item and member")
	ErrInvalidReturnDate = errors.New("circulation: return date precedes issue date")
	ErrLoanNotFound      = errors.New("circulation: loan not found")
	ErrAlreadyClosed     = errors.New("circulation: loan already closed")
	ErrInconsistentState = errors.New("circulation: ledger and loan store disagree")
	ErrUnknownItem       = errors.New("circulation: unknown item")
	ErrUnknownMember     = errors.New("circulation: unknown member")
	ErrMemberIneligible  = errors.New("circulation: member not eligible to borrow")
	ErrReportThrottled   = errors.New("circulation: overdue report throttled")
)

// DefaultLoanPeriodDays is the due-date offset applied when no period is
// configured.
const DefaultLoanPeriodDays = 7

// DefaultFineRatePerDay is the per-day fine applied when no rate is
// configured.
const DefaultFineRatePerDay = 1.0

// LoanRecord tracks one copy of an item lent to a member. A record is open
// while ReturnDate is nil and closes exactly once. Closed records are kept
// for history and never deleted.
type LoanRecord struct {
	ID         int64      `json:"id"`
	ItemID     uuid.UUID  `json:"item_id"`
	MemberID   uuid.UUID  `json:"member_id"`
	IssueDate  time.Time  `json:"issue_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Fine       float64    `json:"fine"`
}

// Open reports whether the loan has not been returned yet.
func (l LoanRecord) Open() bool {
	return l.ReturnDate == nil
}

// FinePolicy maps whole days overdue to a fine amount. overdueDays is never
// negative.
type FinePolicy func(overdueDays int) float64

// DailyRate returns the linear fine policy: overdue days times a flat rate.
func DailyRate(rate float64) FinePolicy {
	return func(overdueDays int) float64 {
		return float64(overdueDays) * rate
	}
}

// LoanIssuedEvent is recorded when a loan is opened.
type LoanIssuedEvent struct {
	LoanID   int64     `json:"loan_id"`
	ItemID   uuid.UUID `json:"item_id"`
	MemberID uuid.UUID `json:"member_id"`
	DueDate  time.Time `json:"due_date"`
}

// LoanReturnedEvent is recorded when a loan is closed.
type LoanReturnedEvent struct {
	LoanID     int64     `json:"loan_id"`
	ItemID     uuid.UUID `json:"item_id"`
	MemberID   uuid.UUID `json:"member_id"`
	ReturnDate time.Time `json:"return_date"`
	Fine       float64   `json:"fine"`
}

// Day truncates t to its calendar date in UTC. All loan dates are stored in
// this form so day arithmetic stays exact.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole calendar days from a to b, negative when b is
// earlier than a.
func daysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}
