package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/fleetport/fleetport/app/models"
	"github.com/fleetport/fleetport/app/repository"
	"github.com/fleetport/fleetport/internal/pkg/contracts"
	"github.com/fleetport/fleetport/internal/pkg/database"
)

type contractCreateRequest struct {
	DriverID         uint   `json:"driver_id"`
	VehicleID        uint   `json:"vehicle_id"`
	FeeMinorUnits    int64  `json:"fee_minor_units"`
	Frequency        string `json:"frequency"`
	WeekdayAnchor    *int   `json:"weekday_anchor"`
	DayOfMonthAnchor *int   `json:"day_of_month_anchor"`
	StartDate        string `json:"start_date"`
	Terms            string `json:"terms"`
}

// contractError maps lifecycle errors onto HTTP responses
func contractError(c *fiber.Ctx, err error) error {
	var stateErr *contracts.StateError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, contracts.ErrContractNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "Contract not found")
	case errors.Is(err, contracts.ErrDriverNotVerified):
		return jsonError(c, fiber.StatusUnprocessableEntity, "driver_not_verified", err.Error())
	case errors.Is(err, contracts.ErrVehicleNotAvailable):
		return jsonError(c, fiber.StatusUnprocessableEntity, "vehicle_not_available", err.Error())
	case errors.Is(err, contracts.ErrVehicleBusy):
		return jsonError(c, fiber.StatusConflict, "vehicle_busy", err.Error())
	case errors.As(err, &stateErr):
		return jsonError(c, fiber.StatusConflict, "invalid_state", stateErr.Error())
	default:
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Contract operation failed")
	}
}

// HandleAdminContractList lists contracts, optionally filtered by state
func HandleAdminContractList(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	offset, limit := paginationParams(c)

	var (
		list  []models.Contract
		total int64
		err   error
	)
	if state := c.Query("state"); state != "" {
		list, err = repos.Contract.ListByState(state, offset, limit)
		if err == nil {
			total, err = repos.Contract.CountByState(state)
		}
	} else {
		list, err = repos.Contract.List(offset, limit)
		if err == nil {
			total, err = repos.Contract.Count()
		}
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load contracts")
	}

	return c.JSON(fiber.Map{"contracts": list, "total": total})
}

// HandleAdminContractDetail returns one contract with its payment ledger
func HandleAdminContractDetail(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	repos := repository.GetGlobalRepositories()
	contract, err := repos.Contract.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Contract not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load contract")
	}

	payments, err := repos.Payment.ListByContractID(id)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load payments")
	}
	openAmount, err := repos.Payment.SumOpenByContractID(id)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load open amount")
	}

	return c.JSON(fiber.Map{
		"contract":         contract,
		"payments":         payments,
		"open_minor_units": openAmount,
	})
}

// HandleAdminContractCreate creates a draft contract
func HandleAdminContractCreate(c *fiber.Ctx) error {
	var req contractCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Malformed request body")
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "start_date must be YYYY-MM-DD")
	}

	svc := contracts.NewServiceFromDB(database.GetDB())
	contract, err := svc.Create(c.Context(), contracts.CreateInput{
		DriverID:         req.DriverID,
		VehicleID:        req.VehicleID,
		FeeMinorUnits:    req.FeeMinorUnits,
		Frequency:        req.Frequency,
		WeekdayAnchor:    req.WeekdayAnchor,
		DayOfMonthAnchor: req.DayOfMonthAnchor,
		StartDate:        startDate,
		Terms:            req.Terms,
	})
	if err != nil {
		if errors.Is(err, contracts.ErrDriverNotVerified) || errors.Is(err, contracts.ErrVehicleNotAvailable) {
			return contractError(c, err)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Driver or vehicle not found")
		}
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"contract": contract})
}

// HandleAdminContractSend locks the terms and sends the contract to the driver
func HandleAdminContractSend(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	svc := contracts.NewServiceFromDB(database.GetDB())
	contract, err := svc.SendToDriver(c.Context(), id)
	if err != nil {
		return contractError(c, err)
	}

	notifyContractDriver(contract.DriverID, func(name, email string) {
		sendContractSentMail(email, name, contract.ContractNumber)
	})

	return c.JSON(fiber.Map{"contract": contract})
}

// HandleAdminContractActivate activates a signed contract. The first payment
// is created in the same transaction as the state change.
func HandleAdminContractActivate(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		SignedDocumentKey string `json:"signed_document_key"`
	}
	_ = c.BodyParser(&req)

	svc := contracts.NewServiceFromDB(database.GetDB())
	contract, err := svc.Activate(c.Context(), id, req.SignedDocumentKey)
	if err != nil {
		return contractError(c, err)
	}

	notifyContractDriver(contract.DriverID, func(name, email string) {
		sendContractActivatedMail(email, name, contract.ContractNumber)
	})

	return c.JSON(fiber.Map{"contract": contract})
}

// HandleAdminContractCancel cancels a pre-active contract
func HandleAdminContractCancel(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	svc := contracts.NewServiceFromDB(database.GetDB())
	contract, err := svc.Cancel(c.Context(), id)
	if err != nil {
		return contractError(c, err)
	}
	return c.JSON(fiber.Map{"contract": contract})
}

// HandleAdminContractPause pauses an active contract
func HandleAdminContractPause(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	svc := contracts.NewServiceFromDB(database.GetDB())
	contract, err := svc.Pause(c.Context(), id)
	if err != nil {
		return contractError(c, err)
	}
	return c.JSON(fiber.Map{"contract": contract})
}

// HandleAdminContractResume resumes a paused contract
func HandleAdminContractResume(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	svc := contracts.NewServiceFromDB(database.GetDB())
	contract, err := svc.Resume(c.Context(), id)
	if err != nil {
		return contractError(c, err)
	}
	return c.JSON(fiber.Map{"contract": contract})
}

// HandleAdminContractEnd ends an active or paused contract
func HandleAdminContractEnd(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		EndDate string `json:"end_date"`
	}
	_ = c.BodyParser(&req)

	endDate := time.Now()
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "end_date must be YYYY-MM-DD")
		}
		endDate = parsed
	}

	svc := contracts.NewServiceFromDB(database.GetDB())
	contract, err := svc.End(c.Context(), id, endDate)
	if err != nil {
		return contractError(c, err)
	}
	return c.JSON(fiber.Map{"contract": contract})
}

// notifyContractDriver loads the driver's account and fires a best-effort
// notification in the background.
func notifyContractDriver(driverID uint, send func(name, email string)) {
	go func() {
		driver, err := repository.GetGlobalFactory().GetDriverRepository().GetByID(driverID)
		if err != nil || driver.User == nil {
			return
		}
		send(driver.User.Name, driver.User.Email)
	}()
}
