package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	BillingFrequencyDaily   = "daily"
	BillingFrequencyWeekly  = "weekly"
	BillingFrequencyMonthly = "monthly"
)

const (
	ContractStateDraft        = "draft"
	ContractStateSentToDriver = "sent_to_driver"
	ContractStateDriverSigned = "driver_signed"
	ContractStateActive       = "active"
	ContractStatePaused       = "paused"
	ContractStateEnded        = "ended"
	ContractStateCancelled    = "cancelled"
)

// MaxComputationDayOfMonth caps the monthly anchor so every configured day
// exists in every month (February has 28 days in non-leap years).
const MaxComputationDayOfMonth = 28

// Contract is one driver's lease of one vehicle. The contract is the
// aggregate root for its payments: payment rows are only ever created and
// mutated through the ledger in reference to their contract.
type Contract struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ContractNumber string         `gorm:"type:varchar(40);not null;uniqueIndex" json:"contract_number"`
	DriverID       uint           `gorm:"not null;index" json:"driver_id"`
	Driver         *Driver        `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	VehicleID      uint           `gorm:"not null;index" json:"vehicle_id"`
	Vehicle        *Vehicle       `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	FeeMinorUnits  int64          `gorm:"not null" json:"fee_minor_units" validate:"required,gt=0"`
	Frequency      string         `gorm:"type:varchar(10);not null" json:"frequency" validate:"oneof=daily weekly monthly"`
	// WeekdayAnchor pins weekly due dates to a weekday (0 = Sunday ... 6 =
	// Saturday). Only meaningful when Frequency is weekly.
	WeekdayAnchor *int `gorm:"default:null" json:"weekday_anchor,omitempty" validate:"omitempty,min=0,max=6"`
	// DayOfMonthAnchor pins monthly due dates to a day of month (1-31 as
	// configured; clamped to 28 for computation). Only meaningful when
	// Frequency is monthly.
	DayOfMonthAnchor *int           `gorm:"default:null" json:"day_of_month_anchor,omitempty" validate:"omitempty,min=1,max=31"`
	StartDate        time.Time      `gorm:"not null" json:"start_date"`
	EndDate          *time.Time     `gorm:"default:null" json:"end_date,omitempty"`
	State            string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"state" validate:"oneof=draft sent_to_driver driver_signed active paused ended cancelled"`
	Terms            string         `gorm:"type:longtext" json:"terms"`
	TermsLockedAt    *time.Time     `gorm:"type:timestamp;default:null" json:"terms_locked_at,omitempty"`
	SentAt           *time.Time     `gorm:"type:timestamp;default:null" json:"sent_at,omitempty"`
	SignedAt         *time.Time     `gorm:"type:timestamp;default:null" json:"signed_at,omitempty"`
	// SignatureKey references the captured signature artifact in the
	// document store; SignedDocumentKey the finalized signed contract.
	SignatureKey      string    `gorm:"type:varchar(255)" json:"signature_key,omitempty"`
	SignedDocumentKey string    `gorm:"type:varchar(255)" json:"signed_document_key,omitempty"`
	ActivatedAt       *time.Time `gorm:"type:timestamp;default:null" json:"activated_at,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// Validate checks field constraints plus the frequency/anchor pairing: a
// weekly contract needs a weekday anchor and a monthly contract needs a
// day-of-month anchor before any payment can be generated from it.
func (ct *Contract) Validate() error {
	if err := validator.New().Struct(ct); err != nil {
		return err
	}
	switch ct.Frequency {
	case BillingFrequencyWeekly:
		if ct.WeekdayAnchor == nil {
			return errors.New("weekly contract requires a weekday anchor")
		}
	case BillingFrequencyMonthly:
		if ct.DayOfMonthAnchor == nil {
			return errors.New("monthly contract requires a day-of-month anchor")
		}
	}
	return nil
}

// IsTerminal reports whether the contract reached an immutable end state.
func (ct *Contract) IsTerminal() bool {
	return ct.State == ContractStateEnded || ct.State == ContractStateCancelled
}

// IsPreActive reports whether the contract has not yet been activated.
func (ct *Contract) IsPreActive() bool {
	switch ct.State {
	case ContractStateDraft, ContractStateSentToDriver, ContractStateDriverSigned:
		return true
	}
	return false
}

// ComputationDayAnchor returns the day-of-month anchor clamped to the safe
// 1..28 range, defaulting to 1 when unset.
func (ct *Contract) ComputationDayAnchor() int {
	if ct.DayOfMonthAnchor == nil {
		return 1
	}
	day := *ct.DayOfMonthAnchor
	if day < 1 {
		return 1
	}
	if day > MaxComputationDayOfMonth {
		return MaxComputationDayOfMonth
	}
	return day
}
