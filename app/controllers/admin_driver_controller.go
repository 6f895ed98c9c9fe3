package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/fleetport/fleetport/app/models"
	"github.com/fleetport/fleetport/app/repository"
)

// HandleAdminDriverList lists drivers, optionally filtered by verification status
func HandleAdminDriverList(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	offset, limit := paginationParams(c)

	var (
		drivers []models.Driver
		total   int64
		err     error
	)
	if query := c.Query("q"); query != "" {
		drivers, err = repos.Driver.Search(query)
		total = int64(len(drivers))
	} else if status := c.Query("status"); status != "" {
		drivers, err = repos.Driver.ListByVerificationStatus(status, offset, limit)
		if err == nil {
			total, err = repos.Driver.CountByVerificationStatus(status)
		}
	} else {
		drivers, err = repos.Driver.List(offset, limit)
		if err == nil {
			total, err = repos.Driver.Count()
		}
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load drivers")
	}

	return c.JSON(fiber.Map{"drivers": drivers, "total": total})
}

// HandleAdminDriverDetail returns one driver with documents and contracts
func HandleAdminDriverDetail(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	repos := repository.GetGlobalRepositories()
	driver, err := repos.Driver.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Driver not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load driver")
	}

	docs, err := repos.DriverDocument.GetByDriverID(id)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load documents")
	}
	contracts, err := repos.Contract.ListByDriverID(id)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load contracts")
	}

	return c.JSON(fiber.Map{
		"driver":    driver,
		"documents": docs,
		"contracts": contracts,
	})
}

// HandleAdminDriverVerify approves a driver for contract creation
func HandleAdminDriverVerify(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	repo := repository.GetGlobalFactory().GetDriverRepository()
	driver, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Driver not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load driver")
	}

	driver.MarkVerified()
	if err := repo.Update(driver); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update driver")
	}
	return c.JSON(fiber.Map{"driver": driver})
}

// HandleAdminDriverReject rejects a driver's verification with a reason
func HandleAdminDriverReject(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Malformed request body")
	}
	if req.Reason == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "A rejection reason is required")
	}

	repo := repository.GetGlobalFactory().GetDriverRepository()
	driver, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Driver not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load driver")
	}

	driver.MarkRejected(req.Reason)
	if err := repo.Update(driver); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update driver")
	}
	return c.JSON(fiber.Map{"driver": driver})
}

// HandleAdminDocumentReview approves or rejects an uploaded driver document
func HandleAdminDocumentReview(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Malformed request body")
	}
	if req.Status != models.DocumentReviewApproved && req.Status != models.DocumentReviewRejected {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Status must be approved or rejected")
	}

	repo := repository.GetGlobalFactory().GetDriverDocumentRepository()
	doc, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Document not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load document")
	}

	now := time.Now()
	doc.ReviewStatus = req.Status
	doc.ReviewNote = req.Note
	doc.ReviewedAt = &now
	if err := repo.Update(doc); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update document")
	}
	return c.JSON(fiber.Map{"document": doc})
}
