package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrPaymentNotFound is returned when a settlement references an unknown
	// payment obligation.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrContractNotFound is returned when a payment's owning contract is
	// missing.
	ErrContractNotFound = errors.New("contract not found")

	// ErrPaymentsExist is returned when first-payment creation is attempted
	// on a contract that already has obligations. This is a programming
	// error at the call site and must fail loudly.
	ErrPaymentsExist = errors.New("contract already has payments")

	// ErrDuplicateDueDate is returned when an insert would violate the
	// per-contract due-date uniqueness invariant.
	ErrDuplicateDueDate = errors.New("payment for due date already exists")
)

// AnchorError reports a contract whose billing anchors are inconsistent with
// its frequency. Payments must never be generated from such a contract.
type AnchorError struct {
	ContractID uint
	Frequency  string
	Reason     string
}

func (e *AnchorError) Error() string {
	return fmt.Sprintf("contract %d (%s): %s", e.ContractID, e.Frequency, e.Reason)
}
