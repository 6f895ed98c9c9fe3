package repository

import (
	"github.com/fleetport/fleetport/app/models"
	"gorm.io/gorm"
)

// driverDocumentRepository implements the DriverDocumentRepository interface
type driverDocumentRepository struct {
	db *gorm.DB
}

// NewDriverDocumentRepository creates a new driver document repository instance
func NewDriverDocumentRepository(db *gorm.DB) DriverDocumentRepository {
	return &driverDocumentRepository{db: db}
}

// Create creates a new document reference in the database
func (r *driverDocumentRepository) Create(doc *models.DriverDocument) error {
	return r.db.Create(doc).Error
}

// GetByID retrieves a document reference by its ID
func (r *driverDocumentRepository) GetByID(id uint) (*models.DriverDocument, error) {
	var doc models.DriverDocument
	err := r.db.First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByDriverID retrieves all document references for a driver
func (r *driverDocumentRepository) GetByDriverID(driverID uint) ([]models.DriverDocument, error) {
	var docs []models.DriverDocument
	err := r.db.Where("driver_id = ?", driverID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

// Update updates an existing document reference
func (r *driverDocumentRepository) Update(doc *models.DriverDocument) error {
	return r.db.Save(doc).Error
}

// Delete removes a document reference. The blob itself is deleted separately
// through the document store.
func (r *driverDocumentRepository) Delete(id uint) error {
	return r.db.Delete(&models.DriverDocument{}, id).Error
}

// CountPendingReview returns the number of documents awaiting admin review
func (r *driverDocumentRepository) CountPendingReview() (int64, error) {
	var count int64
	err := r.db.Model(&models.DriverDocument{}).
		Where("review_status = ?", models.DocumentReviewPending).Count(&count).Error
	return count, err
}
