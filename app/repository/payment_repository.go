package repository

import (
	"github.com/fleetport/fleetport/app/models"
	"gorm.io/gorm"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// GetByID retrieves a payment with its contract by ID
func (r *paymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Preload("Contract").First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByContractID retrieves all payments of a contract ordered by due date
func (r *paymentRepository) ListByContractID(contractID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("contract_id = ?", contractID).Order("due_date ASC").Find(&payments).Error
	return payments, err
}

// ListByDriverID retrieves all payments across a driver's contracts
func (r *paymentRepository) ListByDriverID(driverID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Preload("Contract").
		Joins("JOIN contracts ON contracts.id = payments.contract_id").
		Where("contracts.driver_id = ?", driverID).
		Order("payments.due_date DESC").Find(&payments).Error
	return payments, err
}

// ListByStatus retrieves payments filtered by status
func (r *paymentRepository) ListByStatus(status string, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Preload("Contract").Where("status = ?", status).
		Order("due_date ASC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

// Count returns the total number of payments
func (r *paymentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of payments in a status
func (r *paymentRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// SumOpenByContractID returns the total unsettled amount on a contract
func (r *paymentRepository) SumOpenByContractID(contractID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Payment{}).
		Where("contract_id = ? AND status IN ?", contractID,
			[]string{models.PaymentStatusPending, models.PaymentStatusOverdue}).
		Select("COALESCE(SUM(amount_minor_units), 0)").Row().Scan(&total)
	return total, err
}
