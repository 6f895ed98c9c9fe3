package repository

import (
	"github.com/fleetport/fleetport/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// DriverRepository defines the interface for driver profile operations
type DriverRepository interface {
	Create(driver *models.Driver) error
	GetByID(id uint) (*models.Driver, error)
	GetByUserID(userID uint) (*models.Driver, error)
	Update(driver *models.Driver) error
	List(offset, limit int) ([]models.Driver, error)
	ListByVerificationStatus(status string, offset, limit int) ([]models.Driver, error)
	Count() (int64, error)
	CountByVerificationStatus(status string) (int64, error)
	Search(query string) ([]models.Driver, error)
}

// DriverDocumentRepository defines the interface for uploaded driver documents
type DriverDocumentRepository interface {
	Create(doc *models.DriverDocument) error
	GetByID(id uint) (*models.DriverDocument, error)
	GetByDriverID(driverID uint) ([]models.DriverDocument, error)
	Update(doc *models.DriverDocument) error
	Delete(id uint) error
	CountPendingReview() (int64, error)
}

// VehicleRepository defines the interface for fleet vehicle operations
type VehicleRepository interface {
	Create(vehicle *models.Vehicle) error
	GetByID(id uint) (*models.Vehicle, error)
	GetByPlateNumber(plate string) (*models.Vehicle, error)
	Update(vehicle *models.Vehicle) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Vehicle, error)
	ListByStatus(status string, offset, limit int) ([]models.Vehicle, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
	Search(query string) ([]models.Vehicle, error)
}

// ContractRepository defines the read-side interface for contracts. All state
// transitions go through the contracts service; this interface only serves
// listing and detail views.
type ContractRepository interface {
	GetByID(id uint) (*models.Contract, error)
	GetByContractNumber(number string) (*models.Contract, error)
	List(offset, limit int) ([]models.Contract, error)
	ListByState(state string, offset, limit int) ([]models.Contract, error)
	ListByDriverID(driverID uint) ([]models.Contract, error)
	ListByVehicleID(vehicleID uint) ([]models.Contract, error)
	Count() (int64, error)
	CountByState(state string) (int64, error)
}

// PaymentRepository defines the read-side interface for the payment ledger.
// Payment creation and settlement go through the ledger service.
type PaymentRepository interface {
	GetByID(id uint) (*models.Payment, error)
	ListByContractID(contractID uint) ([]models.Payment, error)
	ListByDriverID(driverID uint) ([]models.Payment, error)
	ListByStatus(status string, offset, limit int) ([]models.Payment, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
	SumOpenByContractID(contractID uint) (int64, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User           UserRepository
	Driver         DriverRepository
	DriverDocument DriverDocumentRepository
	Vehicle        VehicleRepository
	Contract       ContractRepository
	Payment        PaymentRepository
	Setting        SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:           NewUserRepository(db),
		Driver:         NewDriverRepository(db),
		DriverDocument: NewDriverDocumentRepository(db),
		Vehicle:        NewVehicleRepository(db),
		Contract:       NewContractRepository(db),
		Payment:        NewPaymentRepository(db),
		Setting:        NewSettingRepository(db),
	}
}
