package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fleetport/fleetport/app/models"
	"github.com/fleetport/fleetport/app/repository"
	"github.com/fleetport/fleetport/internal/pkg/database"
	"github.com/fleetport/fleetport/internal/pkg/ledger"
	"github.com/fleetport/fleetport/internal/pkg/sweeper"
)

// ledgerService builds a ledger service configured from the current settings
func ledgerService() *ledger.Service {
	cfg := ledger.DefaultConfig()
	if settings := models.GetAppSettings(); settings != nil {
		cfg = ledger.ConfigFromSettings(settings)
	}
	return ledger.NewServiceFromDB(database.GetDB(), cfg)
}

// HandleAdminPaymentList lists payments, optionally filtered by status
func HandleAdminPaymentList(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	offset, limit := paginationParams(c)

	status := c.Query("status")
	if status == "" {
		status = models.PaymentStatusPending
	}

	payments, err := repos.Payment.ListByStatus(status, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load payments")
	}
	total, err := repos.Payment.CountByStatus(status)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to count payments")
	}

	return c.JSON(fiber.Map{"payments": payments, "total": total, "status": status})
}

// HandleAdminPaymentSettle marks a payment as paid on behalf of an offline
// settlement (cash, bank transfer). Settling twice is a no-op.
func HandleAdminPaymentSettle(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	payment, applied, err := ledgerService().ApplySettlement(c.Context(), id, time.Now())
	if err != nil {
		if errors.Is(err, ledger.ErrPaymentNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Payment not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Settlement failed")
	}

	return c.JSON(fiber.Map{"payment": payment, "applied": applied})
}

// HandleAdminLedgerSweep triggers one backfill + overdue pass immediately
func HandleAdminLedgerSweep(c *fiber.Ctx) error {
	mgr := sweeper.GetManager(database.GetDB())
	if err := mgr.RunSweepOnce(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Ledger sweep failed")
	}
	return c.JSON(fiber.Map{"ok": true})
}
