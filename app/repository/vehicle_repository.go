package repository

import (
	"strings"

	"github.com/fleetport/fleetport/app/models"
	"gorm.io/gorm"
)

// vehicleRepository implements the VehicleRepository interface
type vehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository creates a new vehicle repository instance
func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

// Create creates a new vehicle in the database
func (r *vehicleRepository) Create(vehicle *models.Vehicle) error {
	return r.db.Create(vehicle).Error
}

// GetByID retrieves a vehicle by its ID
func (r *vehicleRepository) GetByID(id uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.First(&vehicle, id).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// GetByPlateNumber retrieves a vehicle by its plate number
func (r *vehicleRepository) GetByPlateNumber(plate string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.Where("plate_number = ?", plate).First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// Update updates an existing vehicle
func (r *vehicleRepository) Update(vehicle *models.Vehicle) error {
	return r.db.Save(vehicle).Error
}

// Delete soft deletes a vehicle by its ID
func (r *vehicleRepository) Delete(id uint) error {
	return r.db.Delete(&models.Vehicle{}, id).Error
}

// List retrieves a paginated list of vehicles
func (r *vehicleRepository) List(offset, limit int) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&vehicles).Error
	return vehicles, err
}

// ListByStatus retrieves vehicles filtered by fleet status
func (r *vehicleRepository) ListByStatus(status string, offset, limit int) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.Where("status = ?", status).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&vehicles).Error
	return vehicles, err
}

// Count returns the total number of vehicles
func (r *vehicleRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Vehicle{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of vehicles in a fleet status
func (r *vehicleRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Vehicle{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Search searches for vehicles by plate number, VIN, make or model
func (r *vehicleRepository) Search(query string) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("plate_number LIKE ? OR vin LIKE ? OR make LIKE ? OR model LIKE ?",
		searchPattern, searchPattern, searchPattern, searchPattern).Find(&vehicles).Error
	return vehicles, err
}
