// internal/circulation/store.go
package circulation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type pairKey struct {
	item   uuid.UUID
	member uuid.UUID
}

// LoanStore holds every loan record, open and closed. IDs are assigned
// sequentially at creation, and open loans per (item, member) pair are kept
// in insertion order so return processing always finds the oldest one.
type LoanStore struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]*LoanRecord
	open    map[pairKey][]int64
}

// NewLoanStore creates an empty store.
func NewLoanStore() *LoanStore {
	return &LoanStore{
		records: make(map[int64]*LoanRecord),
		open:    make(map[pairKey][]int64),
	}
}

// Create appends a new open loan and returns it with its assigned ID.
func (s *LoanStore) Create(itemID, memberID uuid.UUID, issueDate, dueDate time.Time) (LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec := &LoanRecord{
		ID:        s.nextID,
		ItemID:    itemID,
		MemberID:  memberID,
		IssueDate: Day(issueDate),
		DueDate:   Day(dueDate),
	}
	s.records[rec.ID] = rec

	key := pairKey{item: itemID, member: memberID}
	s.open[key] = append(s.open[key], rec.ID)
	return *rec, nil
}

// FindEarliestOpen returns the open loan with the smallest ID for the pair,
// or ErrNoMatchingLoan when the member has nothing of the item outstanding.
func (s *LoanStore) FindEarliestOpen(itemID, memberID uuid.UUID) (LoanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.open[pairKey{item: itemID, member: memberID}]
	if len(ids) == 0 {
		return LoanRecord{}, ErrNoMatchingLoan
	}
	return *s.records[ids[0]], nil
}

// Close stamps the return date and fine on an open record. A second close
// of the same record fails with ErrAlreadyClosed.
func (s *LoanStore) Close(loanID int64, returnDate time.Time, fine float64) (LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[loanID]
	if !ok {
		return LoanRecord{}, fmt.Errorf("loan %d: %w", loanID, ErrLoanNotFound)
	}
	if rec.ReturnDate != nil {
		return LoanRecord{}, fmt.Errorf("loan %d: %w", loanID, ErrAlreadyClosed)
	}

	day := Day(returnDate)
	rec.ReturnDate = &day
	rec.Fine = fine

	key := pairKey{item: rec.ItemID, member: rec.MemberID}
	ids := s.open[key]
	for i, id := range ids {
		if id == loanID {
			s.open[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(s.open[key]) == 0 {
		delete(s.open, key)
	}
	return *rec, nil
}

// ListOpen returns a copy of every open loan in no particular order.
func (s *LoanStore) ListOpen() []LoanRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []LoanRecord
	for _, ids := range s.open {
		for _, id := range ids {
			out = append(out, *s.records[id])
		}
	}
	return out
}

// OpenLoansFor returns the member's open loans, oldest first.
func (s *LoanStore) OpenLoansFor(memberID uuid.UUID) []LoanRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []LoanRecord
	for key, ids := range s.open {
		if key.member != memberID {
			continue
		}
		for _, id := range ids {
			out = append(out, *s.records[id])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a loan by ID, open or closed.
func (s *LoanStore) Get(loanID int64) (LoanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[loanID]
	if !ok {
		return LoanRecord{}, fmt.Errorf("loan %d: %w", loanID, ErrLoanNotFound)
	}
	return *rec, nil
}
