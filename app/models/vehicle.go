package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	VehicleStatusAvailable = "available"
	VehicleStatusAssigned  = "assigned"
	VehicleStatusInService = "in_service"
	VehicleStatusRetired   = "retired"
)

// Vehicle is one unit of the rental fleet. Status tracks assignment:
// available vehicles may enter a new contract, assigned vehicles are
// reserved by (or active under) exactly one contract.
type Vehicle struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	PlateNumber  string         `gorm:"type:varchar(20);not null;uniqueIndex" json:"plate_number" validate:"required,min=2,max=20"`
	VIN          string         `gorm:"type:varchar(64);index" json:"vin" validate:"max=64"`
	Make         string         `gorm:"type:varchar(60)" json:"make" validate:"required,max=60"`
	Model        string         `gorm:"type:varchar(60)" json:"model" validate:"required,max=60"`
	Year         int            `json:"year" validate:"omitempty,min=1980,max=2100"`
	Status       string         `gorm:"type:varchar(20);not null;default:'available';index" json:"status" validate:"oneof=available assigned in_service retired"`
	Odometer     int64          `json:"odometer"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Vehicle) Validate() error {
	return validator.New().Struct(v)
}

// IsAvailable reports whether the vehicle can enter a new contract.
func (v *Vehicle) IsAvailable() bool {
	return v.Status == VehicleStatusAvailable
}
