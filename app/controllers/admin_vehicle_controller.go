package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/fleetport/fleetport/app/models"
	"github.com/fleetport/fleetport/app/repository"
)

type vehicleRequest struct {
	PlateNumber string `json:"plate_number"`
	VIN         string `json:"vin"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	Odometer    int64  `json:"odometer"`
}

// HandleAdminVehicleList lists fleet vehicles, optionally filtered by status
func HandleAdminVehicleList(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	offset, limit := paginationParams(c)

	var (
		vehicles []models.Vehicle
		total    int64
		err      error
	)
	if query := c.Query("q"); query != "" {
		vehicles, err = repos.Vehicle.Search(query)
		total = int64(len(vehicles))
	} else if status := c.Query("status"); status != "" {
		vehicles, err = repos.Vehicle.ListByStatus(status, offset, limit)
		if err == nil {
			total, err = repos.Vehicle.CountByStatus(status)
		}
	} else {
		vehicles, err = repos.Vehicle.List(offset, limit)
		if err == nil {
			total, err = repos.Vehicle.Count()
		}
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load vehicles")
	}

	return c.JSON(fiber.Map{"vehicles": vehicles, "total": total})
}

// HandleAdminVehicleCreate adds a vehicle to the fleet
func HandleAdminVehicleCreate(c *fiber.Ctx) error {
	var req vehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Malformed request body")
	}

	vehicle := &models.Vehicle{
		PlateNumber: req.PlateNumber,
		VIN:         req.VIN,
		Make:        req.Make,
		Model:       req.Model,
		Year:        req.Year,
		Odometer:    req.Odometer,
		Status:      models.VehicleStatusAvailable,
	}
	if err := vehicle.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	if err := repository.GetGlobalFactory().GetVehicleRepository().Create(vehicle); err != nil {
		return jsonError(c, fiber.StatusConflict, "create_failed", "Vehicle could not be created")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"vehicle": vehicle})
}

// HandleAdminVehicleDetail returns one vehicle with its contract history
func HandleAdminVehicleDetail(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	repos := repository.GetGlobalRepositories()
	vehicle, err := repos.Vehicle.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Vehicle not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load vehicle")
	}

	contracts, err := repos.Contract.ListByVehicleID(id)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load contracts")
	}

	return c.JSON(fiber.Map{"vehicle": vehicle, "contracts": contracts})
}

// HandleAdminVehicleUpdate updates vehicle master data
func HandleAdminVehicleUpdate(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req vehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Malformed request body")
	}

	repo := repository.GetGlobalFactory().GetVehicleRepository()
	vehicle, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Vehicle not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load vehicle")
	}

	vehicle.PlateNumber = req.PlateNumber
	vehicle.VIN = req.VIN
	vehicle.Make = req.Make
	vehicle.Model = req.Model
	vehicle.Year = req.Year
	vehicle.Odometer = req.Odometer
	if err := vehicle.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}
	if err := repo.Update(vehicle); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update vehicle")
	}
	return c.JSON(fiber.Map{"vehicle": vehicle})
}

// HandleAdminVehicleSetStatus changes the fleet status of a vehicle. Assigned
// status is managed by the contract lifecycle and cannot be set manually.
func HandleAdminVehicleSetStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Malformed request body")
	}
	switch req.Status {
	case models.VehicleStatusAvailable, models.VehicleStatusInService, models.VehicleStatusRetired:
	default:
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Status must be available, in_service or retired")
	}

	repo := repository.GetGlobalFactory().GetVehicleRepository()
	vehicle, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Vehicle not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load vehicle")
	}
	if vehicle.Status == models.VehicleStatusAssigned {
		return jsonError(c, fiber.StatusConflict, "vehicle_assigned", "Vehicle is reserved by a contract; end or cancel the contract first")
	}

	vehicle.Status = req.Status
	if err := repo.Update(vehicle); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update vehicle")
	}
	return c.JSON(fiber.Map{"vehicle": vehicle})
}

// HandleAdminVehicleDelete removes a vehicle that never entered a contract
func HandleAdminVehicleDelete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	repos := repository.GetGlobalRepositories()
	contracts, err := repos.Contract.ListByVehicleID(id)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check contracts")
	}
	if len(contracts) > 0 {
		return jsonError(c, fiber.StatusConflict, "vehicle_in_use", "Vehicle has contract history and cannot be deleted")
	}

	if err := repos.Vehicle.Delete(id); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete vehicle")
	}
	return c.JSON(fiber.Map{"ok": true})
}
