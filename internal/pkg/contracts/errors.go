package contracts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrContractNotFound is returned when a lifecycle operation references
	// an unknown contract.
	ErrContractNotFound = errors.New("contract not found")

	// ErrDriverNotVerified is returned when a contract is created for a
	// driver that has not passed verification.
	ErrDriverNotVerified = errors.New("driver is not verified")

	// ErrVehicleNotAvailable is returned when a contract is created for a
	// vehicle that is not available.
	ErrVehicleNotAvailable = errors.New("vehicle is not available")

	// ErrVehicleBusy is the conflict raised when activation would give a
	// vehicle a second active contract.
	ErrVehicleBusy = errors.New("vehicle already has an active contract")
)

// StateError reports a transition attempted from a state that does not
// permit it. It names expected versus actual so the caller can re-fetch and
// decide; transitions never silently no-op.
type StateError struct {
	ContractID uint
	Expected   []string
	Actual     string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("contract %d must be %s, was %s",
		e.ContractID, strings.Join(e.Expected, " or "), e.Actual)
}

func newStateError(contractID uint, actual string, expected ...string) *StateError {
	return &StateError{ContractID: contractID, Expected: expected, Actual: actual}
}
