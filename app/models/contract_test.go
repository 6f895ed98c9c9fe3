package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func validWeeklyContract() *Contract {
	return &Contract{
		ContractNumber: "CT-test",
		DriverID:       1,
		VehicleID:      1,
		FeeMinorUnits:  15000,
		Frequency:      BillingFrequencyWeekly,
		WeekdayAnchor:  intPtr(1),
		StartDate:      time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestContractValidateAnchorPairing(t *testing.T) {
	ct := validWeeklyContract()
	require.NoError(t, ct.Validate())

	ct.WeekdayAnchor = nil
	require.Error(t, ct.Validate())

	monthly := validWeeklyContract()
	monthly.Frequency = BillingFrequencyMonthly
	monthly.WeekdayAnchor = nil
	require.Error(t, monthly.Validate())
	monthly.DayOfMonthAnchor = intPtr(15)
	require.NoError(t, monthly.Validate())

	daily := validWeeklyContract()
	daily.Frequency = BillingFrequencyDaily
	daily.WeekdayAnchor = nil
	require.NoError(t, daily.Validate())
}

func TestContractValidateRejectsBadValues(t *testing.T) {
	ct := validWeeklyContract()
	ct.FeeMinorUnits = 0
	assert.Error(t, ct.Validate())

	ct = validWeeklyContract()
	ct.WeekdayAnchor = intPtr(7)
	assert.Error(t, ct.Validate())

	ct = validWeeklyContract()
	ct.Frequency = "fortnightly"
	assert.Error(t, ct.Validate())
}

func TestComputationDayAnchorClamps(t *testing.T) {
	ct := &Contract{Frequency: BillingFrequencyMonthly}
	assert.Equal(t, 1, ct.ComputationDayAnchor())

	ct.DayOfMonthAnchor = intPtr(15)
	assert.Equal(t, 15, ct.ComputationDayAnchor())

	ct.DayOfMonthAnchor = intPtr(31)
	assert.Equal(t, MaxComputationDayOfMonth, ct.ComputationDayAnchor())
}

func TestContractStateHelpers(t *testing.T) {
	ct := &Contract{State: ContractStateDraft}
	assert.True(t, ct.IsPreActive())
	assert.False(t, ct.IsTerminal())

	ct.State = ContractStateActive
	assert.False(t, ct.IsPreActive())
	assert.False(t, ct.IsTerminal())

	ct.State = ContractStateEnded
	assert.True(t, ct.IsTerminal())

	ct.State = ContractStateCancelled
	assert.True(t, ct.IsTerminal())
}
