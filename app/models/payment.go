package models

import "time"

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusOverdue = "overdue"
)

// Payment is one billing obligation under a contract. The amount is copied
// from the contract fee at creation time and never re-derived. Payments are
// financial records: they are never deleted, only moved pending -> paid or
// pending -> overdue.
//
// The unique (contract_id, due_date) index is the idempotency guard for
// payment generation: a conditional insert against it can never produce two
// obligations for the same cycle, no matter how often settlement webhooks or
// backfill sweeps are retried.
type Payment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ContractID       uint       `gorm:"not null;index:ux_payments_contract_due,unique,priority:1" json:"contract_id"`
	Contract         *Contract  `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	AmountMinorUnits int64      `gorm:"not null" json:"amount_minor_units"`
	DueDate          time.Time  `gorm:"not null;index:ux_payments_contract_due,unique,priority:2;index" json:"due_date"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaidAt           *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsPaid reports whether the obligation has been settled.
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// IsOpen reports whether the obligation still awaits settlement.
func (p *Payment) IsOpen() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusOverdue
}
