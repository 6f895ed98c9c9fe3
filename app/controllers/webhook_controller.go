package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/fleetport/fleetport/internal/pkg/database"
	"github.com/fleetport/fleetport/internal/pkg/env"
	"github.com/fleetport/fleetport/internal/pkg/gateway"
	"github.com/fleetport/fleetport/internal/pkg/ledger"
)

// HandleSettlementWebhook receives settlement notifications from the payment
// gateway. Delivery is at-least-once: every delivery is recorded first, and a
// replayed event id is acknowledged without touching the ledger again.
func HandleSettlementWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	provider := strings.TrimSpace(c.Params("provider"))
	eventID := strings.TrimSpace(c.Get("X-Gateway-Event-ID"))
	eventType := strings.TrimSpace(c.Get("X-Gateway-Event"))
	signature := strings.TrimSpace(c.Get("X-Gateway-Signature"))
	secret := env.GetEnv("GATEWAY_WEBHOOK_SECRET", "")

	svc := gateway.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	signatureValid := gateway.VerifyWebhookSignature(rawBody, signature, secret)

	var payload gateway.SettlementPayload
	parseErr := json.Unmarshal(rawBody, &payload)
	if parseErr == nil {
		parseErr = validator.New().Struct(&payload)
	}

	created, stored, err := svc.RecordEvent(ctx, gateway.EventInput{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       eventType,
		PaymentID:       payload.PaymentID,
		PayloadJSON:     string(rawBody),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if !signatureValid {
		_ = svc.MarkProcessed(ctx, stored.ID, errors.New("invalid webhook signature"))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}
	if !isSettlementEvent(eventType) {
		_ = svc.MarkProcessed(ctx, stored.ID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}
	if parseErr != nil {
		_ = svc.MarkProcessed(ctx, stored.ID, parseErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	payment, applied, settleErr := ledgerService().ApplySettlement(ctx, payload.PaymentID, time.Now())
	if settleErr != nil {
		_ = svc.MarkProcessed(ctx, stored.ID, settleErr)
		if errors.Is(settleErr, ledger.ErrPaymentNotFound) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "settlement_failed"})
	}

	_ = svc.MarkProcessed(ctx, stored.ID, nil)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":         true,
		"applied":    applied,
		"payment_id": payment.ID,
	})
}

func isSettlementEvent(eventType string) bool {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "payment.captured", "payment.settled", "charge.succeeded":
		return true
	default:
		return false
	}
}
