package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserStartsInactiveDriver(t *testing.T) {
	user, err := CreateUser("Jo Driver", "jo@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, ROLE_DRIVER, user.Role)
	assert.Equal(t, STATUS_INACTIVE, user.Status)
	assert.NotEqual(t, "secret123", user.Password)
	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("Jo", "not-an-email", "secret123")
	require.Error(t, err)

	_, err = CreateUser("Jo Driver", "jo@example.com", "short")
	require.Error(t, err)
}

func TestGenerateActivationToken(t *testing.T) {
	user := &User{}
	require.NoError(t, user.GenerateActivationToken())

	assert.Len(t, user.ActivationToken, 32)
	assert.NotNil(t, user.ActivationSentAt)

	first := user.ActivationToken
	require.NoError(t, user.GenerateActivationToken())
	assert.NotEqual(t, first, user.ActivationToken)
}
