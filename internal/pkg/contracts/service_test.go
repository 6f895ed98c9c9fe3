package contracts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetport/fleetport/app/models"
	"github.com/fleetport/fleetport/internal/pkg/ledger"
)

// fakeStore is an in-memory Repository (plus the ledger.Repository view it
// hands out for activation).
type fakeStore struct {
	drivers   map[uint]*models.Driver
	vehicles  map[uint]*models.Vehicle
	contracts map[uint]*models.Contract
	payments  map[uint]*models.Payment
	nextID    uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		drivers:   make(map[uint]*models.Driver),
		vehicles:  make(map[uint]*models.Vehicle),
		contracts: make(map[uint]*models.Contract),
		payments:  make(map[uint]*models.Payment),
	}
}

func (f *fakeStore) Transaction(fn func(Repository) error) error { return fn(f) }

func (f *fakeStore) GetContract(id uint) (*models.Contract, error) {
	ct, ok := f.contracts[id]
	if !ok {
		return nil, ErrContractNotFound
	}
	cp := *ct
	return &cp, nil
}

func (f *fakeStore) CreateContract(ct *models.Contract) error {
	f.nextID++
	ct.ID = f.nextID
	cp := *ct
	f.contracts[ct.ID] = &cp
	return nil
}

func (f *fakeStore) SaveContract(ct *models.Contract) error {
	cp := *ct
	f.contracts[ct.ID] = &cp
	return nil
}

func (f *fakeStore) GetDriver(id uint) (*models.Driver, error) {
	d, ok := f.drivers[id]
	if !ok {
		return nil, ErrContractNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeStore) GetVehicle(id uint) (*models.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, ErrContractNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeStore) SaveVehicle(v *models.Vehicle) error {
	cp := *v
	f.vehicles[v.ID] = &cp
	return nil
}

func (f *fakeStore) HasOtherActiveContractForVehicle(vehicleID, excludeContractID uint) (bool, error) {
	for _, ct := range f.contracts {
		if ct.VehicleID == vehicleID && ct.State == models.ContractStateActive && ct.ID != excludeContractID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Payments() ledger.Repository { return &fakeLedgerStore{f} }

// fakeLedgerStore adapts fakeStore to the ledger repository interface.
type fakeLedgerStore struct {
	s *fakeStore
}

func (f *fakeLedgerStore) Transaction(fn func(ledger.Repository) error) error { return fn(f) }

func (f *fakeLedgerStore) GetPayment(id uint) (*models.Payment, error) {
	p, ok := f.s.payments[id]
	if !ok {
		return nil, ledger.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeLedgerStore) GetContract(id uint) (*models.Contract, error) {
	return f.s.GetContract(id)
}

func (f *fakeLedgerStore) CountPaymentsByContract(contractID uint) (int64, error) {
	var count int64
	for _, p := range f.s.payments {
		if p.ContractID == contractID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedgerStore) CountPaymentsDueAfter(contractID uint, after time.Time) (int64, error) {
	var count int64
	for _, p := range f.s.payments {
		if p.ContractID == contractID && p.DueDate.After(after) {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedgerStore) LatestPaymentByContract(contractID uint) (*models.Payment, error) {
	var latest *models.Payment
	for _, p := range f.s.payments {
		if p.ContractID == contractID && (latest == nil || p.DueDate.After(latest.DueDate)) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeLedgerStore) CreatePaymentIfAbsent(payment *models.Payment) (bool, error) {
	for _, p := range f.s.payments {
		if p.ContractID == payment.ContractID && p.DueDate.Equal(payment.DueDate) {
			return false, nil
		}
	}
	f.s.nextID++
	payment.ID = f.s.nextID
	cp := *payment
	f.s.payments[payment.ID] = &cp
	return true, nil
}

func (f *fakeLedgerStore) SavePayment(payment *models.Payment) error {
	cp := *payment
	f.s.payments[payment.ID] = &cp
	return nil
}

func (f *fakeLedgerStore) ListActiveContracts() ([]models.Contract, error) {
	var out []models.Contract
	for _, ct := range f.s.contracts {
		if ct.State == models.ContractStateActive {
			out = append(out, *ct)
		}
	}
	return out, nil
}

func (f *fakeLedgerStore) MarkOverdueBefore(cutoff time.Time) (int64, error) {
	var n int64
	for _, p := range f.s.payments {
		if p.Status == models.PaymentStatusPending && p.DueDate.Before(cutoff) {
			p.Status = models.PaymentStatusOverdue
			n++
		}
	}
	return n, nil
}

func intp(v int) *int { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedStore() *fakeStore {
	f := newFakeStore()
	f.drivers[1] = &models.Driver{ID: 1, UserID: 1, LicenceNumber: "DL-123", VerificationStatus: models.DriverVerificationVerified}
	f.drivers[2] = &models.Driver{ID: 2, UserID: 2, LicenceNumber: "DL-456", VerificationStatus: models.DriverVerificationPending}
	f.vehicles[1] = &models.Vehicle{ID: 1, PlateNumber: "B-FP-100", Make: "VW", Model: "Caddy", Status: models.VehicleStatusAvailable}
	f.vehicles[2] = &models.Vehicle{ID: 2, PlateNumber: "B-FP-200", Make: "VW", Model: "ID.4", Status: models.VehicleStatusInService}
	return f
}

func weeklyInput() CreateInput {
	return CreateInput{
		DriverID:      1,
		VehicleID:     1,
		FeeMinorUnits: 25000,
		Frequency:     models.BillingFrequencyWeekly,
		WeekdayAnchor: intp(1), // Monday
		StartDate:     date(2025, time.June, 5),
		Terms:         "weekly lease terms",
	}
}

func TestCreateRequiresVerifiedDriver(t *testing.T) {
	f := seedStore()
	svc := NewService(f)

	in := weeklyInput()
	in.DriverID = 2
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrDriverNotVerified)
}

func TestCreateRequiresAvailableVehicle(t *testing.T) {
	f := seedStore()
	svc := NewService(f)

	in := weeklyInput()
	in.VehicleID = 2
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrVehicleNotAvailable)
}

func TestCreateValidatesAnchors(t *testing.T) {
	f := seedStore()
	svc := NewService(f)

	in := weeklyInput()
	in.WeekdayAnchor = nil
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)

	in = weeklyInput()
	in.Frequency = models.BillingFrequencyMonthly
	in.WeekdayAnchor = nil
	_, err = svc.Create(context.Background(), in)
	require.Error(t, err) // monthly without day-of-month anchor
}

func TestLifecycleHappyPath(t *testing.T) {
	f := seedStore()
	svc := NewService(f)
	ctx := context.Background()

	ct, err := svc.Create(ctx, weeklyInput())
	require.NoError(t, err)
	assert.Equal(t, models.ContractStateDraft, ct.State)
	assert.NotEmpty(t, ct.ContractNumber)

	ct, err = svc.SendToDriver(ctx, ct.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStateSentToDriver, ct.State)
	assert.NotNil(t, ct.TermsLockedAt)
	assert.Equal(t, models.VehicleStatusAssigned, f.vehicles[1].Status)

	ct, err = svc.MarkSigned(ctx, ct.ID, "signatures/ct-1.png")
	require.NoError(t, err)
	assert.Equal(t, models.ContractStateDriverSigned, ct.State)
	assert.NotNil(t, ct.SignedAt)
	assert.Equal(t, "signatures/ct-1.png", ct.SignatureKey)

	ct, err = svc.Activate(ctx, ct.ID, "contracts/ct-1-signed.pdf")
	require.NoError(t, err)
	assert.Equal(t, models.ContractStateActive, ct.State)
	assert.Equal(t, "contracts/ct-1-signed.pdf", ct.SignedDocumentKey)

	// Exactly one pending obligation, due the Monday after the Thursday
	// start date.
	require.Len(t, f.payments, 1)
	for _, p := range f.payments {
		assert.Equal(t, ct.ID, p.ContractID)
		assert.Equal(t, date(2025, time.June, 9), p.DueDate)
		assert.Equal(t, models.PaymentStatusPending, p.Status)
		assert.Equal(t, int64(25000), p.AmountMinorUnits)
	}
}

func TestTransitionsRejectWrongState(t *testing.T) {
	f := seedStore()
	svc := NewService(f)
	ctx := context.Background()

	ct, err := svc.Create(ctx, weeklyInput())
	require.NoError(t, err)

	// Draft contracts cannot be signed or activated.
	_, err = svc.MarkSigned(ctx, ct.ID, "sig")
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.ContractStateDraft, stateErr.Actual)
	assert.Contains(t, stateErr.Error(), "must be sent_to_driver, was draft")

	_, err = svc.Activate(ctx, ct.ID, "")
	require.ErrorAs(t, err, &stateErr)
	assert.Contains(t, stateErr.Error(), "must be driver_signed, was draft")
	assert.Empty(t, f.payments)

	// Sending twice fails the second time.
	_, err = svc.SendToDriver(ctx, ct.ID)
	require.NoError(t, err)
	_, err = svc.SendToDriver(ctx, ct.ID)
	require.ErrorAs(t, err, &stateErr)
}

func TestActivateEnforcesVehicleExclusivity(t *testing.T) {
	f := seedStore()
	svc := NewService(f)
	ctx := context.Background()

	// An existing active contract holds vehicle 1.
	f.contracts[99] = &models.Contract{ID: 99, DriverID: 1, VehicleID: 1, State: models.ContractStateActive}

	ct, err := svc.Create(ctx, weeklyInput())
	require.NoError(t, err)
	_, err = svc.SendToDriver(ctx, ct.ID)
	require.NoError(t, err)
	_, err = svc.MarkSigned(ctx, ct.ID, "sig")
	require.NoError(t, err)

	_, err = svc.Activate(ctx, ct.ID, "")
	require.ErrorIs(t, err, ErrVehicleBusy)

	// The conflict must leave no payment behind.
	assert.Empty(t, f.payments)
	assert.Equal(t, models.ContractStateDriverSigned, f.contracts[ct.ID].State)
}

func TestCancelReleasesReservedVehicle(t *testing.T) {
	f := seedStore()
	svc := NewService(f)
	ctx := context.Background()

	ct, err := svc.Create(ctx, weeklyInput())
	require.NoError(t, err)
	_, err = svc.SendToDriver(ctx, ct.ID)
	require.NoError(t, err)
	require.Equal(t, models.VehicleStatusAssigned, f.vehicles[1].Status)

	ct, err = svc.Cancel(ctx, ct.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStateCancelled, ct.State)
	assert.Equal(t, models.VehicleStatusAvailable, f.vehicles[1].Status)
}

func TestCancelRejectedAfterActivation(t *testing.T) {
	f := seedStore()
	svc := NewService(f)
	ctx := context.Background()

	ct, err := svc.Create(ctx, weeklyInput())
	require.NoError(t, err)
	_, err = svc.SendToDriver(ctx, ct.ID)
	require.NoError(t, err)
	_, err = svc.MarkSigned(ctx, ct.ID, "sig")
	require.NoError(t, err)
	_, err = svc.Activate(ctx, ct.ID, "")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, ct.ID)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.ContractStateActive, stateErr.Actual)
}

func TestPauseResumeAndEnd(t *testing.T) {
	f := seedStore()
	svc := NewService(f)
	ctx := context.Background()

	ct, err := svc.Create(ctx, weeklyInput())
	require.NoError(t, err)
	_, err = svc.SendToDriver(ctx, ct.ID)
	require.NoError(t, err)
	_, err = svc.MarkSigned(ctx, ct.ID, "sig")
	require.NoError(t, err)
	_, err = svc.Activate(ctx, ct.ID, "")
	require.NoError(t, err)

	ct, err = svc.Pause(ctx, ct.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatePaused, ct.State)

	_, err = svc.Pause(ctx, ct.ID)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)

	ct, err = svc.Resume(ctx, ct.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStateActive, ct.State)

	endDate := date(2025, time.August, 1)
	ct, err = svc.End(ctx, ct.ID, endDate)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStateEnded, ct.State)
	require.NotNil(t, ct.EndDate)
	assert.True(t, ct.EndDate.Equal(endDate))
	assert.Equal(t, models.VehicleStatusAvailable, f.vehicles[1].Status)

	// Terminal contracts accept no further transitions.
	_, err = svc.Resume(ctx, ct.ID)
	require.ErrorAs(t, err, &stateErr)
	_, err = svc.End(ctx, ct.ID, endDate)
	require.ErrorAs(t, err, &stateErr)
}
