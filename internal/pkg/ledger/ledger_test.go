package ledger

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetport/fleetport/app/models"
)

// fakeRepository is an in-memory Repository. Transaction runs the callback
// against the same store; the idempotency guarantees under test come from
// CreatePaymentIfAbsent semantics, which the fake mirrors faithfully.
type fakeRepository struct {
	contracts map[uint]*models.Contract
	payments  map[uint]*models.Payment
	nextID    uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		contracts: make(map[uint]*models.Contract),
		payments:  make(map[uint]*models.Payment),
	}
}

func (f *fakeRepository) putContract(ct *models.Contract) *models.Contract {
	f.contracts[ct.ID] = ct
	return ct
}

func (f *fakeRepository) Transaction(fn func(Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) GetPayment(id uint) (*models.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepository) GetContract(id uint) (*models.Contract, error) {
	ct, ok := f.contracts[id]
	if !ok {
		return nil, ErrContractNotFound
	}
	cp := *ct
	return &cp, nil
}

func (f *fakeRepository) CountPaymentsByContract(contractID uint) (int64, error) {
	var count int64
	for _, p := range f.payments {
		if p.ContractID == contractID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) CountPaymentsDueAfter(contractID uint, after time.Time) (int64, error) {
	var count int64
	for _, p := range f.payments {
		if p.ContractID == contractID && p.DueDate.After(after) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) LatestPaymentByContract(contractID uint) (*models.Payment, error) {
	var latest *models.Payment
	for _, p := range f.payments {
		if p.ContractID != contractID {
			continue
		}
		if latest == nil || p.DueDate.After(latest.DueDate) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeRepository) CreatePaymentIfAbsent(payment *models.Payment) (bool, error) {
	for _, p := range f.payments {
		if p.ContractID == payment.ContractID && p.DueDate.Equal(payment.DueDate) {
			return false, nil
		}
	}
	f.nextID++
	payment.ID = f.nextID
	cp := *payment
	f.payments[payment.ID] = &cp
	return true, nil
}

func (f *fakeRepository) SavePayment(payment *models.Payment) error {
	cp := *payment
	f.payments[payment.ID] = &cp
	return nil
}

func (f *fakeRepository) ListActiveContracts() ([]models.Contract, error) {
	var out []models.Contract
	for _, ct := range f.contracts {
		if ct.State == models.ContractStateActive {
			out = append(out, *ct)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepository) MarkOverdueBefore(cutoff time.Time) (int64, error) {
	var n int64
	for _, p := range f.payments {
		if p.Status == models.PaymentStatusPending && p.DueDate.Before(cutoff) {
			p.Status = models.PaymentStatusOverdue
			n++
		}
	}
	return n, nil
}

func (f *fakeRepository) paymentsByContract(contractID uint) []models.Payment {
	var out []models.Payment
	for _, p := range f.payments {
		if p.ContractID == contractID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intp(v int) *int { return &v }

func weeklyContract(id uint, weekday int, start time.Time) *models.Contract {
	return &models.Contract{
		ID:            id,
		DriverID:      1,
		VehicleID:     1,
		FeeMinorUnits: 25000,
		Frequency:     models.BillingFrequencyWeekly,
		WeekdayAnchor: intp(weekday),
		StartDate:     start,
		State:         models.ContractStateActive,
	}
}

func monthlyContract(id uint, day int, start time.Time) *models.Contract {
	return &models.Contract{
		ID:               id,
		DriverID:         1,
		VehicleID:        1,
		FeeMinorUnits:    90000,
		Frequency:        models.BillingFrequencyMonthly,
		DayOfMonthAnchor: intp(day),
		StartDate:        start,
		State:            models.ContractStateActive,
	}
}

func TestCreateFirstPaymentWeekly(t *testing.T) {
	repo := newFakeRepository()
	// Start on a Thursday with a Monday anchor: the first due date is the
	// following Monday, not the start date and not two Mondays out.
	repo.putContract(weeklyContract(1, 1, date(2025, time.June, 5)))
	svc := NewService(repo, DefaultConfig())

	p, err := svc.CreateFirstPayment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.June, 9), p.DueDate)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Equal(t, int64(25000), p.AmountMinorUnits)

	// A second first-payment call is a programming error and fails loudly.
	_, err = svc.CreateFirstPayment(context.Background(), 1)
	require.ErrorIs(t, err, ErrPaymentsExist)
	assert.Len(t, repo.paymentsByContract(1), 1)
}

func TestCreateFirstPaymentRequiresAnchor(t *testing.T) {
	repo := newFakeRepository()
	ct := weeklyContract(1, 1, date(2025, time.June, 5))
	ct.WeekdayAnchor = nil
	repo.putContract(ct)
	svc := NewService(repo, DefaultConfig())

	_, err := svc.CreateFirstPayment(context.Background(), 1)
	var anchorErr *AnchorError
	require.ErrorAs(t, err, &anchorErr)
	assert.Empty(t, repo.paymentsByContract(1))
}

func TestApplySettlementCreatesNextFromDueDate(t *testing.T) {
	repo := newFakeRepository()
	repo.putContract(weeklyContract(1, 1, date(2025, time.June, 5)))
	svc := NewService(repo, DefaultConfig())

	first, err := svc.CreateFirstPayment(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, date(2025, time.June, 9), first.DueDate)

	// Settlement happens days late, on a Thursday. The next due date still
	// derives from the schedule: exactly one week after the settled due
	// date, not a week after the settlement.
	settledAt := time.Date(2025, time.June, 12, 15, 30, 0, 0, time.UTC)
	paid, applied, err := svc.ApplySettlement(context.Background(), first.ID, settledAt)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.PaymentStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	payments := repo.paymentsByContract(1)
	require.Len(t, payments, 2)
	assert.Equal(t, date(2025, time.June, 16), payments[1].DueDate)
	assert.Equal(t, models.PaymentStatusPending, payments[1].Status)
}

func TestApplySettlementTwiceIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	repo.putContract(weeklyContract(1, 1, date(2025, time.June, 5)))
	svc := NewService(repo, DefaultConfig())

	first, err := svc.CreateFirstPayment(context.Background(), 1)
	require.NoError(t, err)

	now := date(2025, time.June, 9)
	_, applied, err := svc.ApplySettlement(context.Background(), first.ID, now)
	require.NoError(t, err)
	assert.True(t, applied)

	// Duplicate webhook delivery: no second transition, no third payment.
	_, applied, err = svc.ApplySettlement(context.Background(), first.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, applied)

	payments := repo.paymentsByContract(1)
	require.Len(t, payments, 2)
	assert.Equal(t, models.PaymentStatusPaid, payments[0].Status)
	assert.Equal(t, models.PaymentStatusPending, payments[1].Status)
}

func TestApplySettlementPausedContractGeneratesNothing(t *testing.T) {
	repo := newFakeRepository()
	ct := repo.putContract(weeklyContract(1, 1, date(2025, time.June, 5)))
	svc := NewService(repo, DefaultConfig())

	first, err := svc.CreateFirstPayment(context.Background(), 1)
	require.NoError(t, err)

	ct.State = models.ContractStatePaused
	_, applied, err := svc.ApplySettlement(context.Background(), first.ID, date(2025, time.June, 9))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Len(t, repo.paymentsByContract(1), 1)
}

func TestApplySettlementRespectsAutoGenerateToggle(t *testing.T) {
	repo := newFakeRepository()
	repo.putContract(weeklyContract(1, 1, date(2025, time.June, 5)))
	cfg := DefaultConfig()
	cfg.AutoGenerateNext = false
	svc := NewService(repo, cfg)

	first, err := svc.CreateFirstPayment(context.Background(), 1)
	require.NoError(t, err)

	_, applied, err := svc.ApplySettlement(context.Background(), first.ID, date(2025, time.June, 9))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Len(t, repo.paymentsByContract(1), 1)
}

func TestApplySettlementUnknownPayment(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, DefaultConfig())

	_, _, err := svc.ApplySettlement(context.Background(), 42, time.Now())
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestBackfillProvisionsLookaheadCycles(t *testing.T) {
	repo := newFakeRepository()
	repo.putContract(weeklyContract(1, 1, date(2025, time.June, 5)))
	cfg := DefaultConfig()
	cfg.LookaheadCycles = 3
	svc := NewService(repo, cfg)

	_, err := svc.CreateFirstPayment(context.Background(), 1)
	require.NoError(t, err)

	now := date(2025, time.June, 6)
	created, err := svc.Backfill(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, created) // first due Jun 9 already counts as a future cycle

	payments := repo.paymentsByContract(1)
	require.Len(t, payments, 3)
	assert.Equal(t, date(2025, time.June, 9), payments[0].DueDate)
	assert.Equal(t, date(2025, time.June, 16), payments[1].DueDate)
	assert.Equal(t, date(2025, time.June, 23), payments[2].DueDate)

	// Second run with no intervening settlement creates nothing.
	created, err = svc.Backfill(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Len(t, repo.paymentsByContract(1), 3)
}

func TestBackfillCatchesUpMissedCycles(t *testing.T) {
	repo := newFakeRepository()
	repo.putContract(weeklyContract(1, 1, date(2025, time.June, 5)))
	cfg := DefaultConfig()
	cfg.LookaheadCycles = 2
	svc := NewService(repo, cfg)

	first, err := svc.CreateFirstPayment(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, date(2025, time.June, 9), first.DueDate)

	// Three weeks pass without settlement. Backfill fills the missed cycle
	// dates as well as the forward window.
	now := date(2025, time.June, 30)
	_, err = svc.Backfill(context.Background(), now)
	require.NoError(t, err)

	payments := repo.paymentsByContract(1)
	var dues []time.Time
	for _, p := range payments {
		dues = append(dues, p.DueDate)
	}
	assert.Equal(t, []time.Time{
		date(2025, time.June, 9),
		date(2025, time.June, 16),
		date(2025, time.June, 23),
		date(2025, time.June, 30),
		date(2025, time.July, 7),
		date(2025, time.July, 14),
	}, dues)
}

func TestBackfillSkipsInactiveContracts(t *testing.T) {
	repo := newFakeRepository()
	ct := repo.putContract(weeklyContract(1, 1, date(2025, time.June, 5)))
	ct.State = models.ContractStatePaused
	svc := NewService(repo, DefaultConfig())

	created, err := svc.Backfill(context.Background(), date(2025, time.June, 6))
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Empty(t, repo.paymentsByContract(1))
}

func TestSweepOverdue(t *testing.T) {
	repo := newFakeRepository()
	repo.putContract(weeklyContract(1, 1, date(2025, time.June, 5)))
	cfg := DefaultConfig()
	cfg.GraceDays = 0
	svc := NewService(repo, cfg)

	paidAt := date(2025, time.May, 26)
	repo.nextID++
	repo.payments[repo.nextID] = &models.Payment{
		ID: repo.nextID, ContractID: 1, AmountMinorUnits: 25000,
		DueDate: date(2025, time.May, 26), Status: models.PaymentStatusPaid, PaidAt: &paidAt,
	}
	repo.nextID++
	repo.payments[repo.nextID] = &models.Payment{
		ID: repo.nextID, ContractID: 1, AmountMinorUnits: 25000,
		DueDate: date(2025, time.June, 2), Status: models.PaymentStatusPending,
	}
	repo.nextID++
	repo.payments[repo.nextID] = &models.Payment{
		ID: repo.nextID, ContractID: 1, AmountMinorUnits: 25000,
		DueDate: date(2025, time.June, 9), Status: models.PaymentStatusPending,
	}

	n, err := svc.SweepOverdue(context.Background(), date(2025, time.June, 9))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	payments := repo.paymentsByContract(1)
	assert.Equal(t, models.PaymentStatusPaid, payments[0].Status) // paid stays paid
	assert.Equal(t, models.PaymentStatusOverdue, payments[1].Status)
	assert.Equal(t, models.PaymentStatusPending, payments[2].Status) // due today, not yet overdue

	// Sweeping again finds nothing new.
	n, err = svc.SweepOverdue(context.Background(), date(2025, time.June, 9))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepOverdueHonorsGracePeriod(t *testing.T) {
	repo := newFakeRepository()
	cfg := DefaultConfig()
	cfg.GraceDays = 3
	svc := NewService(repo, cfg)

	repo.nextID++
	repo.payments[repo.nextID] = &models.Payment{
		ID: repo.nextID, ContractID: 1, AmountMinorUnits: 100,
		DueDate: date(2025, time.June, 2), Status: models.PaymentStatusPending,
	}

	// Two days past due: still inside the grace window.
	n, err := svc.SweepOverdue(context.Background(), date(2025, time.June, 4))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.SweepOverdue(context.Background(), date(2025, time.June, 6))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMonthlyContractEndToEnd(t *testing.T) {
	repo := newFakeRepository()
	// Anchor day 31 on a contract starting Feb 10, 2025 (non-leap): the
	// anchor clamps to 28, so the first due date is Feb 28 and the next
	// lands on Mar 28.
	repo.putContract(monthlyContract(1, 31, date(2025, time.February, 10)))
	svc := NewService(repo, DefaultConfig())

	first, err := svc.CreateFirstPayment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.February, 28), first.DueDate)

	_, applied, err := svc.ApplySettlement(context.Background(), first.ID, date(2025, time.March, 1))
	require.NoError(t, err)
	assert.True(t, applied)

	payments := repo.paymentsByContract(1)
	require.Len(t, payments, 2)
	assert.Equal(t, date(2025, time.March, 28), payments[1].DueDate)
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(nil)
	assert.Equal(t, DefaultConfig(), cfg)

	s := &models.AppSettings{
		SiteTitle:               "FleetPort",
		AutoGeneratePayments:    false,
		OverdueGraceDays:        2,
		BackfillLookaheadCycles: 6,
		SweepIntervalMinutes:    30,
	}
	cfg = ConfigFromSettings(s)
	assert.False(t, cfg.AutoGenerateNext)
	assert.Equal(t, 2, cfg.GraceDays)
	assert.Equal(t, 6, cfg.LookaheadCycles)
}
