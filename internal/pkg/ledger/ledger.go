// Package ledger maintains the forward-looking set of payment obligations
// for rental contracts: the first obligation at activation, the next one on
// settlement, and periodic backfill and overdue sweeps. Every generation
// path is idempotent through the (contract, due date) uniqueness guard, so
// duplicate webhook deliveries and concurrent sweeps can never produce a
// duplicate obligation.
package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fleetport/fleetport/app/models"
	"github.com/fleetport/fleetport/internal/pkg/schedule"
)

// Config carries the ledger knobs as explicit inputs. Callers build it from
// the stored application settings; the ledger itself never reads ambient
// global state.
type Config struct {
	// AutoGenerateNext controls whether settling a payment creates the next
	// obligation in the cycle.
	AutoGenerateNext bool
	// GraceDays is how many days past the due date a pending payment stays
	// pending before the overdue sweep picks it up.
	GraceDays int
	// LookaheadCycles is how many upcoming occurrences the backfill sweep
	// keeps provisioned per contract. Expressing the horizon in occurrences
	// rather than calendar days keeps daily, weekly and monthly contracts
	// provisioned evenly.
	LookaheadCycles int
}

// DefaultConfig returns the ledger defaults used when no settings are loaded.
func DefaultConfig() Config {
	return Config{
		AutoGenerateNext: true,
		GraceDays:        1,
		LookaheadCycles:  4,
	}
}

// ConfigFromSettings converts the stored application settings into an
// explicit ledger configuration.
func ConfigFromSettings(s *models.AppSettings) Config {
	if s == nil {
		return DefaultConfig()
	}
	return Config{
		AutoGenerateNext: s.IsAutoGeneratePaymentsEnabled(),
		GraceDays:        s.GetOverdueGraceDays(),
		LookaheadCycles:  s.GetBackfillLookaheadCycles(),
	}
}

// Service runs ledger operations against an injected repository.
type Service struct {
	repo Repository
	cfg  Config
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository, cfg Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, cfg Config) *Service {
	return NewService(NewRepository(db), cfg)
}

// nextDueDate computes the contract's next due date strictly after from.
func nextDueDate(ct *models.Contract, from time.Time) (time.Time, error) {
	freq, err := schedule.ParseFrequency(ct.Frequency)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.NextDueDate(freq, from, ct.WeekdayAnchor, ct.DayOfMonthAnchor)
}

// validateAnchors rejects contracts whose anchors do not match their
// frequency before any payment is generated from them.
func validateAnchors(ct *models.Contract) error {
	switch ct.Frequency {
	case models.BillingFrequencyWeekly:
		if ct.WeekdayAnchor == nil {
			return &AnchorError{ContractID: ct.ID, Frequency: ct.Frequency, Reason: "weekday anchor required"}
		}
		if *ct.WeekdayAnchor < 0 || *ct.WeekdayAnchor > 6 {
			return &AnchorError{ContractID: ct.ID, Frequency: ct.Frequency, Reason: "weekday anchor out of range 0..6"}
		}
	case models.BillingFrequencyMonthly:
		if ct.DayOfMonthAnchor == nil {
			return &AnchorError{ContractID: ct.ID, Frequency: ct.Frequency, Reason: "day-of-month anchor required"}
		}
	}
	return nil
}

// CreateFirstPaymentIn creates the initial obligation for a freshly
// activated contract using the given repository, which is expected to be
// scoped to the caller's transaction. The contract lifecycle calls this from
// inside its activation transaction so the state change and the first
// payment commit together.
func CreateFirstPaymentIn(repo Repository, ct *models.Contract) (*models.Payment, error) {
	if err := validateAnchors(ct); err != nil {
		return nil, err
	}

	count, err := repo.CountPaymentsByContract(ct.ID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrPaymentsExist
	}

	due, err := nextDueDate(ct, ct.StartDate)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ContractID:       ct.ID,
		AmountMinorUnits: ct.FeeMinorUnits,
		DueDate:          due,
		Status:           models.PaymentStatusPending,
	}
	created, err := repo.CreatePaymentIfAbsent(payment)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrDuplicateDueDate
	}
	return payment, nil
}

// CreateFirstPayment creates the initial obligation in its own transaction.
func (s *Service) CreateFirstPayment(ctx context.Context, contractID uint) (*models.Payment, error) {
	_ = ctx
	var payment *models.Payment
	err := s.repo.Transaction(func(tx Repository) error {
		ct, err := tx.GetContract(contractID)
		if err != nil {
			return err
		}
		payment, err = CreateFirstPaymentIn(tx, ct)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ApplySettlement marks a payment obligation as paid and, when the owning
// contract is still active and auto-generation is on, creates the next
// obligation in the same transaction. The next due date is computed from the
// settled payment's due date, not from the settlement time: cadence is
// anchored to the schedule, not to when the money arrived.
//
// The call is safe under at-least-once delivery: settling an already-paid
// payment changes nothing and the conditional insert cannot duplicate the
// next obligation. The boolean result reports whether this invocation
// actually transitioned the payment.
func (s *Service) ApplySettlement(ctx context.Context, paymentID uint, now time.Time) (*models.Payment, bool, error) {
	_ = ctx
	var (
		payment *models.Payment
		applied bool
	)
	err := s.repo.Transaction(func(tx Repository) error {
		var err error
		payment, err = tx.GetPayment(paymentID)
		if err != nil {
			return err
		}
		if payment.IsPaid() {
			// Duplicate delivery; nothing to do.
			return nil
		}

		paidAt := now
		payment.Status = models.PaymentStatusPaid
		payment.PaidAt = &paidAt
		if err := tx.SavePayment(payment); err != nil {
			return err
		}
		applied = true

		ct, err := tx.GetContract(payment.ContractID)
		if err != nil {
			return err
		}
		if ct.State != models.ContractStateActive || !s.cfg.AutoGenerateNext {
			// Paused or ended contracts accrue no further obligations.
			return nil
		}
		if err := validateAnchors(ct); err != nil {
			return err
		}

		due, err := nextDueDate(ct, payment.DueDate)
		if err != nil {
			return err
		}
		next := &models.Payment{
			ContractID:       ct.ID,
			AmountMinorUnits: ct.FeeMinorUnits,
			DueDate:          due,
			Status:           models.PaymentStatusPending,
		}
		// Already existing next obligation (e.g. backfill got there first)
		// is fine; the guard keeps due dates unique per contract.
		_, err = tx.CreatePaymentIfAbsent(next)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return payment, applied, nil
}

// Backfill provisions upcoming obligations for every active contract until
// each has LookaheadCycles occurrences due strictly after now. Missed cycle
// dates in the past are filled in too, so a contract that fell behind
// schedule catches up and the overdue sweep can act on it. Running the sweep
// twice in a row creates nothing the second time.
func (s *Service) Backfill(ctx context.Context, now time.Time) (int, error) {
	_ = ctx
	contracts, err := s.repo.ListActiveContracts()
	if err != nil {
		return 0, err
	}

	today := schedule.DateOf(now)
	createdTotal := 0
	for i := range contracts {
		ct := contracts[i]
		err := s.repo.Transaction(func(tx Repository) error {
			created, err := backfillContract(tx, &ct, today, s.cfg.LookaheadCycles)
			createdTotal += created
			return err
		})
		if err != nil {
			return createdTotal, err
		}
	}
	return createdTotal, nil
}

func backfillContract(tx Repository, ct *models.Contract, today time.Time, lookaheadCycles int) (int, error) {
	if err := validateAnchors(ct); err != nil {
		return 0, err
	}

	from := schedule.DateOf(ct.StartDate)
	if latest, err := tx.LatestPaymentByContract(ct.ID); err != nil {
		return 0, err
	} else if latest != nil {
		from = schedule.DateOf(latest.DueDate)
	}

	future, err := tx.CountPaymentsDueAfter(ct.ID, today)
	if err != nil {
		return 0, err
	}

	created := 0
	for int(future) < lookaheadCycles {
		due, err := nextDueDate(ct, from)
		if err != nil {
			return created, err
		}
		payment := &models.Payment{
			ContractID:       ct.ID,
			AmountMinorUnits: ct.FeeMinorUnits,
			DueDate:          due,
			Status:           models.PaymentStatusPending,
		}
		inserted, err := tx.CreatePaymentIfAbsent(payment)
		if err != nil {
			return created, err
		}
		if inserted {
			created++
			if due.After(today) {
				future++
			}
		}
		// An existing payment for this due date already counted toward
		// future when it lies past today.
		from = due
	}
	return created, nil
}

// SweepOverdue transitions every pending payment whose due date plus grace
// period lies strictly before now to overdue. Paid payments are never
// touched and nothing is created.
func (s *Service) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	_ = ctx
	cutoff := schedule.DateOf(now).AddDate(0, 0, -s.cfg.GraceDays)
	return s.repo.MarkOverdueBefore(cutoff)
}
