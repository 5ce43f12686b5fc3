// internal/circulation/scanner.go
package circulation

import (
	"sort"
	"time"
)

// OpenLoanSource supplies the open loans the scanner sweeps over.
type OpenLoanSource interface {
	ListOpen() []LoanRecord
}

// OverdueScanner produces the list of currently-overdue open loans. It only
// reads, so it can run at any frequency, from a timer or on demand.
type OverdueScanner struct {
	source OpenLoanSource
}

// NewOverdueScanner builds a scanner over the given loan source.
func NewOverdueScanner(source OpenLoanSource) *OverdueScanner {
	return &OverdueScanner{source: source}
}

// Scan returns open loans whose due date is strictly before today, oldest
// due date first, ties broken by loan ID. The order is deterministic so the
// output is suitable for reminder generation and comparison across runs.
func (s *OverdueScanner) Scan(today time.Time) []LoanRecord {
	day := Day(today)
	var out []LoanRecord
	for _, rec := range s.source.ListOpen() {
		if rec.DueDate.Before(day) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
