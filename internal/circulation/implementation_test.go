// internal/circulation/implementation_test.go
package circulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCatalog serves copy totals from a map, like the external catalog would.
type stubCatalog struct {
	totals map[uuid.UUID]int
}

func (c *stubCatalog) TotalCopies(_ context.Context, itemID uuid.UUID) (int, error) {
	total, ok := c.totals[itemID]
	if !ok {
		return 0, ErrUnknownItem
	}
	return total, nil
}

// stubMembers treats listed members as active, suspended ones as known but
// ineligible, everyone else as unknown.
type stubMembers struct {
	active    map[uuid.UUID]bool
	suspended map[uuid.UUID]bool
}

func (m *stubMembers) ActiveMember(_ context.Context, memberID uuid.UUID) (bool, error) {
	if m.active[memberID] {
		return true, nil
	}
	if m.suspended[memberID] {
		return false, nil
	}
	return false, ErrUnknownMember
}

// recordingJournal captures events and optionally fails every append.
type recordingJournal struct {
	issued   []LoanIssuedEvent
	returned []LoanReturnedEvent
	fail     bool
}

func (j *recordingJournal) RecordIssued(_ context.Context, ev LoanIssuedEvent) error {
	if j.fail {
		return errors.New("journal down")
	}
	j.issued = append(j.issued, ev)
	return nil
}

func (j *recordingJournal) RecordReturned(_ context.Context, ev LoanReturnedEvent) error {
	if j.fail {
		return errors.New("journal down")
	}
	j.returned = append(j.returned, ev)
	return nil
}

type serviceFixture struct {
	svc     Service
	ledger  *InventoryLedger
	catalog *stubCatalog
	members *stubMembers
	journal *recordingJournal
}

func newServiceFixture(now time.Time) *serviceFixture {
	ledger := NewInventoryLedger()
	store := NewLoanStore()
	engine := NewEngine(ledger, store, EngineConfig{Clock: fixedClock(now)})
	catalog := &stubCatalog{totals: make(map[uuid.UUID]int)}
	members := &stubMembers{active: make(map[uuid.UUID]bool), suspended: make(map[uuid.UUID]bool)}
	journal := &recordingJournal{}

	svc := NewService(ServiceParams{
		Engine:  engine,
		Ledger:  ledger,
		Scanner: NewOverdueScanner(store),
		Loans:   store,
		Catalog: catalog,
		Members: members,
		Journal: journal,
	})
	return &serviceFixture{svc: svc, ledger: ledger, catalog: catalog, members: members, journal: journal}
}

func TestServiceIssueSyncsLedgerFromCatalog(t *testing.T) {
	fx := newServiceFixture(date(2025, 4, 1))
	ctx := context.Background()
	item, member := uuid.New(), uuid.New()
	fx.catalog.totals[item] = 2
	fx.members.active[member] = true

	rec, err := fx.svc.Issue(ctx, member, item)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 4, 8), rec.DueDate)
	assert.Equal(t, 1, fx.ledger.AvailableCopies(item))
	assert.Equal(t, 2, fx.ledger.TotalCopies(item))

	require.Len(t, fx.journal.issued, 1)
	assert.Equal(t, rec.ID, fx.journal.issued[0].LoanID)
}

func TestServiceIssueRejectsUnknownMember(t *testing.T) {
	fx := newServiceFixture(date(2025, 4, 1))
	item := uuid.New()
	fx.catalog.totals[item] = 1

	_, err := fx.svc.Issue(context.Background(), uuid.New(), item)
	require.ErrorIs(t, err, ErrUnknownMember)
}

func TestServiceIssueRejectsSuspendedMember(t *testing.T) {
	fx := newServiceFixture(date(2025, 4, 1))
	item, member := uuid.New(), uuid.New()
	fx.catalog.totals[item] = 1
	fx.members.suspended[member] = true

	_, err := fx.svc.Issue(context.Background(), member, item)
	require.ErrorIs(t, err, ErrMemberIneligible)
}

func TestServiceIssueRejectsUnknownItem(t *testing.T) {
	fx := newServiceFixture(date(2025, 4, 1))
	member := uuid.New()
	fx.members.active[member] = true

	_, err := fx.svc.Issue(context.Background(), member, uuid.New())
	require.ErrorIs(t, err, ErrUnknownItem)
}

func TestServiceReturnRecordsJournalEvent(t *testing.T) {
	fx := newServiceFixture(date(2025, 4, 1))
	ctx := context.Background()
	item, member := uuid.New(), uuid.New()
	fx.catalog.totals[item] = 1
	fx.members.active[member] = true

	_, err := fx.svc.Issue(ctx, member, item)
	require.NoError(t, err)

	closed, err := fx.svc.Return(ctx, member, item, date(2025, 4, 11))
	require.NoError(t, err)
	assert.Equal(t, 3.0, closed.Fine)

	require.Len(t, fx.journal.returned, 1)
	assert.Equal(t, closed.ID, fx.journal.returned[0].LoanID)
	assert.Equal(t, 3.0, fx.journal.returned[0].Fine)
}

func TestServiceSurvivesJournalFailure(t *testing.T) {
	fx := newServiceFixture(date(2025, 4, 1))
	ctx := context.Background()
	item, member := uuid.New(), uuid.New()
	fx.catalog.totals[item] = 1
	fx.members.active[member] = true
	fx.journal.fail = true

	rec, err := fx.svc.Issue(ctx, member, item)
	require.NoError(t, err, "journal failures must not block circulation")

	_, err = fx.svc.Return(ctx, member, item, rec.DueDate)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.ledger.AvailableCopies(item))
}

func TestServiceOverdueReport(t *testing.T) {
	fx := newServiceFixture(date(2025, 4, 1))
	ctx := context.Background()
	item, member := uuid.New(), uuid.New()
	fx.catalog.totals[item] = 1
	fx.members.active[member] = true

	rec, err := fx.svc.Issue(ctx, member, item)
	require.NoError(t, err)

	overdue, err := fx.svc.Overdue(ctx, rec.DueDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, rec.ID, overdue[0].ID)

	onTime, err := fx.svc.Overdue(ctx, rec.DueDate)
	require.NoError(t, err)
	assert.Empty(t, onTime)
}

func TestServiceAvailableCopies(t *testing.T) {
	fx := newServiceFixture(date(2025, 4, 1))
	ctx := context.Background()
	item, member := uuid.New(), uuid.New()
	fx.catalog.totals[item] = 3
	fx.members.active[member] = true

	available, total, err := fx.svc.AvailableCopies(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, 3, available)
	assert.Equal(t, 3, total)

	_, err = fx.svc.Issue(ctx, member, item)
	require.NoError(t, err)

	available, _, err = fx.svc.AvailableCopies(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, 2, available)
}

func TestServiceOpenLoansFor(t *testing.T) {
	fx := newServiceFixture(date(2025, 4, 1))
	ctx := context.Background()
	itemA, itemB, member := uuid.New(), uuid.New(), uuid.New()
	fx.catalog.totals[itemA] = 1
	fx.catalog.totals[itemB] = 1
	fx.members.active[member] = true

	first, err := fx.svc.Issue(ctx, member, itemA)
	require.NoError(t, err)
	second, err := fx.svc.Issue(ctx, member, itemB)
	require.NoError(t, err)

	loans, err := fx.svc.OpenLoansFor(ctx, member)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, first.ID, loans[0].ID)
	assert.Equal(t, second.ID, loans[1].ID)
}
