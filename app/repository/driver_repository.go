package repository

import (
	"strings"

	"github.com/fleetport/fleetport/app/models"
	"gorm.io/gorm"
)

// driverRepository implements the DriverRepository interface
type driverRepository struct {
	db *gorm.DB
}

// NewDriverRepository creates a new driver repository instance
func NewDriverRepository(db *gorm.DB) DriverRepository {
	return &driverRepository{db: db}
}

// Create creates a new driver profile in the database
func (r *driverRepository) Create(driver *models.Driver) error {
	return r.db.Create(driver).Error
}

// GetByID retrieves a driver with their portal account by ID
func (r *driverRepository) GetByID(id uint) (*models.Driver, error) {
	var driver models.Driver
	err := r.db.Preload("User").First(&driver, id).Error
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

// GetByUserID retrieves the driver profile belonging to a portal account
func (r *driverRepository) GetByUserID(userID uint) (*models.Driver, error) {
	var driver models.Driver
	err := r.db.Preload("User").Where("user_id = ?", userID).First(&driver).Error
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

// Update updates an existing driver profile
func (r *driverRepository) Update(driver *models.Driver) error {
	return r.db.Save(driver).Error
}

// List retrieves a paginated list of drivers
func (r *driverRepository) List(offset, limit int) ([]models.Driver, error) {
	var drivers []models.Driver
	err := r.db.Preload("User").Order("created_at DESC").Offset(offset).Limit(limit).Find(&drivers).Error
	return drivers, err
}

// ListByVerificationStatus retrieves drivers filtered by verification status
func (r *driverRepository) ListByVerificationStatus(status string, offset, limit int) ([]models.Driver, error) {
	var drivers []models.Driver
	err := r.db.Preload("User").Where("verification_status = ?", status).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&drivers).Error
	return drivers, err
}

// Count returns the total number of drivers
func (r *driverRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Driver{}).Count(&count).Error
	return count, err
}

// CountByVerificationStatus returns the number of drivers in a verification status
func (r *driverRepository) CountByVerificationStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Driver{}).Where("verification_status = ?", status).Count(&count).Error
	return count, err
}

// Search searches for drivers by licence number or account name/email
func (r *driverRepository) Search(query string) ([]models.Driver, error) {
	var drivers []models.Driver
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Preload("User").
		Joins("JOIN users ON users.id = drivers.user_id").
		Where("drivers.licence_number LIKE ? OR users.name LIKE ? OR users.email LIKE ?",
			searchPattern, searchPattern, searchPattern).
		Find(&drivers).Error
	return drivers, err
}
