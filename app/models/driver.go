package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	DriverVerificationPending  = "pending"
	DriverVerificationVerified = "verified"
	DriverVerificationRejected = "rejected"
)

// Driver is the rental profile belonging to a portal user. A driver must be
// verified by an admin before any contract can be created for them.
type Driver struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	User               *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Phone              string         `gorm:"type:varchar(30)" json:"phone" validate:"max=30"`
	Address            string         `gorm:"type:varchar(255)" json:"address" validate:"max=255"`
	LicenceNumber      string         `gorm:"type:varchar(50);index" json:"licence_number" validate:"required,min=3,max=50"`
	LicenceExpiresAt   *time.Time     `gorm:"type:timestamp;default:null" json:"licence_expires_at"`
	VerificationStatus string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"verification_status" validate:"oneof=pending verified rejected"`
	VerifiedAt         *time.Time     `gorm:"type:timestamp;default:null" json:"verified_at,omitempty"`
	RejectionReason    string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *Driver) Validate() error {
	v := validator.New()

	return v.Struct(d)
}

// IsVerified reports whether an admin has approved the driver.
func (d *Driver) IsVerified() bool {
	return d.VerificationStatus == DriverVerificationVerified
}

// MarkVerified sets the verified status and timestamp.
func (d *Driver) MarkVerified() {
	now := time.Now()
	d.VerificationStatus = DriverVerificationVerified
	d.VerifiedAt = &now
	d.RejectionReason = ""
}

// MarkRejected sets the rejected status with a reason for the driver.
func (d *Driver) MarkRejected(reason string) {
	d.VerificationStatus = DriverVerificationRejected
	d.VerifiedAt = nil
	d.RejectionReason = reason
}
