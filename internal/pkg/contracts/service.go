// Package contracts enforces the rental contract lifecycle:
//
//	draft -> sent_to_driver -> driver_signed -> active -> {paused, ended}
//
// with cancellation possible from any pre-active state. Each transition runs
// in one transaction together with its side effects, so a contract can never
// end up half-transitioned.
package contracts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetport/fleetport/app/models"
	"github.com/fleetport/fleetport/internal/pkg/ledger"
)

// Service runs lifecycle transitions against an injected repository.
type Service struct {
	repo Repository
}

// NewService creates a contract lifecycle service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a contract lifecycle service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// CreateInput is the admin-provided shape for a new draft contract.
type CreateInput struct {
	DriverID         uint
	VehicleID        uint
	FeeMinorUnits    int64
	Frequency        string
	WeekdayAnchor    *int
	DayOfMonthAnchor *int
	StartDate        time.Time
	Terms            string
}

// Create validates the input and creates a draft contract. The driver must
// be verified and the vehicle available; the vehicle is not yet reserved at
// this point.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Contract, error) {
	_ = ctx
	var created *models.Contract
	err := s.repo.Transaction(func(tx Repository) error {
		driver, err := tx.GetDriver(in.DriverID)
		if err != nil {
			return err
		}
		if !driver.IsVerified() {
			return ErrDriverNotVerified
		}

		vehicle, err := tx.GetVehicle(in.VehicleID)
		if err != nil {
			return err
		}
		if !vehicle.IsAvailable() {
			return ErrVehicleNotAvailable
		}

		ct := &models.Contract{
			ContractNumber:   "CT-" + uuid.NewString(),
			DriverID:         in.DriverID,
			VehicleID:        in.VehicleID,
			FeeMinorUnits:    in.FeeMinorUnits,
			Frequency:        in.Frequency,
			WeekdayAnchor:    in.WeekdayAnchor,
			DayOfMonthAnchor: in.DayOfMonthAnchor,
			StartDate:        in.StartDate,
			State:            models.ContractStateDraft,
			Terms:            in.Terms,
		}
		if err := ct.Validate(); err != nil {
			return err
		}
		if err := tx.CreateContract(ct); err != nil {
			return err
		}
		created = ct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SendToDriver moves a draft contract to sent_to_driver, locks the terms
// from further editing and reserves the vehicle.
func (s *Service) SendToDriver(ctx context.Context, contractID uint) (*models.Contract, error) {
	_ = ctx
	var result *models.Contract
	err := s.repo.Transaction(func(tx Repository) error {
		ct, err := tx.GetContract(contractID)
		if err != nil {
			return err
		}
		if ct.State != models.ContractStateDraft {
			return newStateError(ct.ID, ct.State, models.ContractStateDraft)
		}

		now := time.Now()
		ct.State = models.ContractStateSentToDriver
		ct.TermsLockedAt = &now
		ct.SentAt = &now
		if err := tx.SaveContract(ct); err != nil {
			return err
		}

		vehicle, err := tx.GetVehicle(ct.VehicleID)
		if err != nil {
			return err
		}
		vehicle.Status = models.VehicleStatusAssigned
		if err := tx.SaveVehicle(vehicle); err != nil {
			return err
		}

		result = ct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkSigned records the driver's signature on a sent contract.
func (s *Service) MarkSigned(ctx context.Context, contractID uint, signatureKey string) (*models.Contract, error) {
	_ = ctx
	var result *models.Contract
	err := s.repo.Transaction(func(tx Repository) error {
		ct, err := tx.GetContract(contractID)
		if err != nil {
			return err
		}
		if ct.State != models.ContractStateSentToDriver {
			return newStateError(ct.ID, ct.State, models.ContractStateSentToDriver)
		}

		now := time.Now()
		ct.State = models.ContractStateDriverSigned
		ct.SignedAt = &now
		ct.SignatureKey = signatureKey
		if err := tx.SaveContract(ct); err != nil {
			return err
		}
		result = ct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Activate moves a signed contract to active. The vehicle-exclusivity check
// and the first payment creation run inside the same transaction as the
// state change: either the contract activates with exactly one pending
// obligation, or nothing happens.
func (s *Service) Activate(ctx context.Context, contractID uint, signedDocumentKey string) (*models.Contract, error) {
	_ = ctx
	var result *models.Contract
	err := s.repo.Transaction(func(tx Repository) error {
		ct, err := tx.GetContract(contractID)
		if err != nil {
			return err
		}
		if ct.State != models.ContractStateDriverSigned {
			return newStateError(ct.ID, ct.State, models.ContractStateDriverSigned)
		}

		busy, err := tx.HasOtherActiveContractForVehicle(ct.VehicleID, ct.ID)
		if err != nil {
			return err
		}
		if busy {
			return ErrVehicleBusy
		}

		now := time.Now()
		ct.State = models.ContractStateActive
		ct.ActivatedAt = &now
		if signedDocumentKey != "" {
			ct.SignedDocumentKey = signedDocumentKey
		}
		if err := tx.SaveContract(ct); err != nil {
			return err
		}

		if _, err := ledger.CreateFirstPaymentIn(tx.Payments(), ct); err != nil {
			return err
		}

		result = ct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel aborts a contract that has not yet been activated and releases the
// vehicle if it had been reserved.
func (s *Service) Cancel(ctx context.Context, contractID uint) (*models.Contract, error) {
	_ = ctx
	var result *models.Contract
	err := s.repo.Transaction(func(tx Repository) error {
		ct, err := tx.GetContract(contractID)
		if err != nil {
			return err
		}
		if !ct.IsPreActive() {
			return newStateError(ct.ID, ct.State,
				models.ContractStateDraft, models.ContractStateSentToDriver, models.ContractStateDriverSigned)
		}

		reserved := ct.State != models.ContractStateDraft
		ct.State = models.ContractStateCancelled
		if err := tx.SaveContract(ct); err != nil {
			return err
		}

		if reserved {
			vehicle, err := tx.GetVehicle(ct.VehicleID)
			if err != nil {
				return err
			}
			vehicle.Status = models.VehicleStatusAvailable
			if err := tx.SaveVehicle(vehicle); err != nil {
				return err
			}
		}

		result = ct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Pause suspends an active contract. No payments are generated while paused.
func (s *Service) Pause(ctx context.Context, contractID uint) (*models.Contract, error) {
	_ = ctx
	return s.transition(contractID, models.ContractStatePaused, models.ContractStateActive)
}

// Resume returns a paused contract to active.
func (s *Service) Resume(ctx context.Context, contractID uint) (*models.Contract, error) {
	_ = ctx
	return s.transition(contractID, models.ContractStateActive, models.ContractStatePaused)
}

// End terminates an active or paused contract and releases the vehicle.
func (s *Service) End(ctx context.Context, contractID uint, endDate time.Time) (*models.Contract, error) {
	_ = ctx
	var result *models.Contract
	err := s.repo.Transaction(func(tx Repository) error {
		ct, err := tx.GetContract(contractID)
		if err != nil {
			return err
		}
		if ct.State != models.ContractStateActive && ct.State != models.ContractStatePaused {
			return newStateError(ct.ID, ct.State, models.ContractStateActive, models.ContractStatePaused)
		}

		ct.State = models.ContractStateEnded
		ct.EndDate = &endDate
		if err := tx.SaveContract(ct); err != nil {
			return err
		}

		vehicle, err := tx.GetVehicle(ct.VehicleID)
		if err != nil {
			return err
		}
		vehicle.Status = models.VehicleStatusAvailable
		if err := tx.SaveVehicle(vehicle); err != nil {
			return err
		}

		result = ct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) transition(contractID uint, to string, from string) (*models.Contract, error) {
	var result *models.Contract
	err := s.repo.Transaction(func(tx Repository) error {
		ct, err := tx.GetContract(contractID)
		if err != nil {
			return err
		}
		if ct.State != from {
			return newStateError(ct.ID, ct.State, from)
		}
		ct.State = to
		if err := tx.SaveContract(ct); err != nil {
			return err
		}
		result = ct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
