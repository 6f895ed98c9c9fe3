package controllers

import (
	"fmt"

	"github.com/fleetport/fleetport/internal/pkg/env"
	"github.com/fleetport/fleetport/internal/pkg/mail"
)

// Notification mails are best-effort: a mail failure must never fail the
// operation that triggered it, so all senders run in goroutines and only log.

func sendActivationMail(to, name, activationURL string) {
	subject := "Confirm your account"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>please confirm your account:</p><p><a href=\"%s\">%s</a></p>",
		name, activationURL, activationURL,
	)
	_ = mail.SendMail(to, subject, body)
}

func sendContractSentMail(to, name, contractNumber string) {
	subject := fmt.Sprintf("Contract %s is ready for your signature", contractNumber)
	portal := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:3000")
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>your rental contract %s is ready. Please review and sign it in the driver portal:</p><p><a href=\"%s\">%s</a></p>",
		name, contractNumber, portal, portal,
	)
	_ = mail.SendMail(to, subject, body)
}

func sendContractActivatedMail(to, name, contractNumber string) {
	subject := fmt.Sprintf("Contract %s is now active", contractNumber)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>your rental contract %s has been activated. Your first payment is available in the driver portal.</p>",
		name, contractNumber,
	)
	_ = mail.SendMail(to, subject, body)
}
