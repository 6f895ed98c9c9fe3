package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fleetport/fleetport/app/models"
	"github.com/fleetport/fleetport/app/repository"
)

type settingsRequest struct {
	SiteTitle               string `json:"site_title"`
	AutoGeneratePayments    bool   `json:"auto_generate_payments"`
	OverdueGraceDays        int    `json:"overdue_grace_days"`
	BackfillLookaheadCycles int    `json:"backfill_lookahead_cycles"`
	SweepIntervalMinutes    int    `json:"sweep_interval_minutes"`
}

// HandleAdminSettingsGet returns the current application settings
func HandleAdminSettingsGet(c *fiber.Ctx) error {
	settings, err := repository.GetGlobalFactory().GetSettingRepository().Get()
	if err != nil || settings == nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Settings not loaded")
	}
	return c.JSON(fiber.Map{
		"site_title":                settings.GetSiteTitle(),
		"auto_generate_payments":    settings.IsAutoGeneratePaymentsEnabled(),
		"overdue_grace_days":        settings.GetOverdueGraceDays(),
		"backfill_lookahead_cycles": settings.GetBackfillLookaheadCycles(),
		"sweep_interval_minutes":    settings.GetSweepIntervalMinutes(),
	})
}

// HandleAdminSettingsUpdate validates and persists new application settings
func HandleAdminSettingsUpdate(c *fiber.Ctx) error {
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Malformed request body")
	}

	settings := &models.AppSettings{
		SiteTitle:               req.SiteTitle,
		AutoGeneratePayments:    req.AutoGeneratePayments,
		OverdueGraceDays:        req.OverdueGraceDays,
		BackfillLookaheadCycles: req.BackfillLookaheadCycles,
		SweepIntervalMinutes:    req.SweepIntervalMinutes,
	}
	if err := repository.GetGlobalFactory().GetSettingRepository().Save(settings); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	return c.JSON(fiber.Map{"ok": true})
}
