// internal/journal/journal.go
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"circulib/internal/circulation"
)

const (
	eventLoanIssued   = "LoanIssued"
	eventLoanReturned = "LoanReturned"
)

// Event is one recorded circulation event.
type Event struct {
	ID        int64           `json:"id"`
	LoanID    int64           `json:"loan_id"`
	EventType string          `json:"event_type"`
	EventData json.RawMessage `json:"event_data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Journal persists circulation events to Postgres for audit and external
// reporting. It sits outside the circulation core: appends happen after the
// engine has committed, and a failed append never undoes a loan.
type Journal struct {
	db     *sql.DB
	tracer trace.Tracer
}

var _ circulation.Journal = (*Journal)(nil)

// New creates a journal over an open database handle.
func New(db *sql.DB) *Journal {
	return &Journal{
		db:     db,
		tracer: otel.Tracer("circulib/journal"),
	}
}

// EnsureSchema creates the loan_events table when absent.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS loan_events (
			id BIGSERIAL PRIMARY KEY,
			loan_id BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			event_data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create loan_events table: %w", err)
	}
	return nil
}

// RecordIssued appends a LoanIssued event.
func (j *Journal) RecordIssued(ctx context.Context, ev circulation.LoanIssuedEvent) error {
	return j.append(ctx, eventLoanIssued, ev.LoanID, ev)
}

// RecordReturned appends a LoanReturned event.
func (j *Journal) RecordReturned(ctx context.Context, ev circulation.LoanReturnedEvent) error {
	return j.append(ctx, eventLoanReturned, ev.LoanID, ev)
}

func (j *Journal) append(ctx context.Context, eventType string, loanID int64, payload any) error {
	ctx, span := j.tracer.Start(ctx, "journal.append",
		trace.WithAttributes(
			attribute.String("event.type", eventType),
			attribute.Int64("loan.id", loanID),
		),
	)
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO loan_events (loan_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3, $4)
	`, loanID, eventType, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert %s event: %w", eventType, err)
	}

	span.SetAttributes(attribute.Bool("append.success", true))
	return nil
}

// History returns the recorded events for a loan, oldest first.
func (j *Journal) History(ctx context.Context, loanID int64) ([]Event, error) {
	ctx, span := j.tracer.Start(ctx, "journal.history",
		trace.WithAttributes(attribute.Int64("loan.id", loanID)),
	)
	defer span.End()

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, loan_id, event_type, event_data, created_at
		FROM loan_events
		WHERE loan_id = $1
		ORDER BY id ASC
	`, loanID)
	if err != nil {
		return nil, fmt.Errorf("query loan events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.LoanID, &ev.EventType, &ev.EventData, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan loan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loan events: %w", err)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}
