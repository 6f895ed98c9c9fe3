package ledger

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fleetport/fleetport/app/models"
)

// Repository provides the DB operations used by the payment ledger. The
// Transaction method yields a repository bound to one transaction so every
// multi-step ledger operation commits or rolls back as a unit.
type Repository interface {
	Transaction(fn func(Repository) error) error
	GetPayment(id uint) (*models.Payment, error)
	GetContract(id uint) (*models.Contract, error)
	CountPaymentsByContract(contractID uint) (int64, error)
	CountPaymentsDueAfter(contractID uint, after time.Time) (int64, error)
	LatestPaymentByContract(contractID uint) (*models.Payment, error)
	CreatePaymentIfAbsent(payment *models.Payment) (bool, error)
	SavePayment(payment *models.Payment) error
	ListActiveContracts() ([]models.Contract, error)
	MarkOverdueBefore(cutoff time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) GetPayment(id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetContract(id uint) (*models.Contract, error) {
	var ct models.Contract
	if err := r.db.First(&ct, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}
	return &ct, nil
}

func (r *gormRepository) CountPaymentsByContract(contractID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Where("contract_id = ?", contractID).Count(&count).Error
	return count, err
}

func (r *gormRepository) CountPaymentsDueAfter(contractID uint, after time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("contract_id = ? AND due_date > ?", contractID, after).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) LatestPaymentByContract(contractID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("contract_id = ?", contractID).Order("due_date DESC").First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// CreatePaymentIfAbsent inserts the payment unless one already exists for
// the same (contract_id, due_date). The conditional insert closes the race
// window between existence check and write under concurrent retries.
func (r *gormRepository) CreatePaymentIfAbsent(payment *models.Payment) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "contract_id"},
			{Name: "due_date"},
		},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) SavePayment(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

func (r *gormRepository) ListActiveContracts() ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.Where("state = ?", models.ContractStateActive).Find(&contracts).Error
	return contracts, err
}

func (r *gormRepository) MarkOverdueBefore(cutoff time.Time) (int64, error) {
	tx := r.db.Model(&models.Payment{}).
		Where("status = ? AND due_date < ?", models.PaymentStatusPending, cutoff).
		Update("status", models.PaymentStatusOverdue)
	return tx.RowsAffected, tx.Error
}
