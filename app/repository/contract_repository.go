package repository

import (
	"github.com/fleetport/fleetport/app/models"
	"gorm.io/gorm"
)

// contractRepository implements the ContractRepository interface
type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository instance
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

// GetByID retrieves a contract with driver and vehicle by its ID
func (r *contractRepository) GetByID(id uint) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.Preload("Driver").Preload("Driver.User").Preload("Vehicle").First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetByContractNumber retrieves a contract by its public number
func (r *contractRepository) GetByContractNumber(number string) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.Preload("Driver").Preload("Driver.User").Preload("Vehicle").
		Where("contract_number = ?", number).First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// List retrieves a paginated list of contracts
func (r *contractRepository) List(offset, limit int) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.Preload("Driver").Preload("Driver.User").Preload("Vehicle").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&contracts).Error
	return contracts, err
}

// ListByState retrieves contracts filtered by lifecycle state
func (r *contractRepository) ListByState(state string, offset, limit int) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.Preload("Driver").Preload("Driver.User").Preload("Vehicle").
		Where("state = ?", state).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&contracts).Error
	return contracts, err
}

// ListByDriverID retrieves all contracts belonging to a driver
func (r *contractRepository) ListByDriverID(driverID uint) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.Preload("Vehicle").Where("driver_id = ?", driverID).
		Order("created_at DESC").Find(&contracts).Error
	return contracts, err
}

// ListByVehicleID retrieves all contracts referencing a vehicle
func (r *contractRepository) ListByVehicleID(vehicleID uint) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.Preload("Driver").Preload("Driver.User").Where("vehicle_id = ?", vehicleID).
		Order("created_at DESC").Find(&contracts).Error
	return contracts, err
}

// Count returns the total number of contracts
func (r *contractRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Contract{}).Count(&count).Error
	return count, err
}

// CountByState returns the number of contracts in a lifecycle state
func (r *contractRepository) CountByState(state string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Contract{}).Where("state = ?", state).Count(&count).Error
	return count, err
}
