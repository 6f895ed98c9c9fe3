package contracts

import (
	"errors"

	"gorm.io/gorm"

	"github.com/fleetport/fleetport/app/models"
	"github.com/fleetport/fleetport/internal/pkg/ledger"
)

// Repository provides the DB operations used by the contract lifecycle.
// Transaction yields a repository bound to one transaction; Payments exposes
// a ledger repository on the same handle so activation can create the first
// obligation inside the activation transaction.
type Repository interface {
	Transaction(fn func(Repository) error) error
	GetContract(id uint) (*models.Contract, error)
	CreateContract(ct *models.Contract) error
	SaveContract(ct *models.Contract) error
	GetDriver(id uint) (*models.Driver, error)
	GetVehicle(id uint) (*models.Vehicle, error)
	SaveVehicle(v *models.Vehicle) error
	HasOtherActiveContractForVehicle(vehicleID, excludeContractID uint) (bool, error)
	Payments() ledger.Repository
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a contract lifecycle repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
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

func (r *gormRepository) CreateContract(ct *models.Contract) error {
	return r.db.Create(ct).Error
}

func (r *gormRepository) SaveContract(ct *models.Contract) error {
	return r.db.Save(ct).Error
}

func (r *gormRepository) GetDriver(id uint) (*models.Driver, error) {
	var d models.Driver
	if err := r.db.Preload("User").First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *gormRepository) GetVehicle(id uint) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := r.db.First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *gormRepository) SaveVehicle(v *models.Vehicle) error {
	return r.db.Save(v).Error
}

func (r *gormRepository) HasOtherActiveContractForVehicle(vehicleID, excludeContractID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Contract{}).
		Where("vehicle_id = ? AND state = ? AND id <> ?", vehicleID, models.ContractStateActive, excludeContractID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) Payments() ledger.Repository {
	return ledger.NewRepository(r.db)
}
