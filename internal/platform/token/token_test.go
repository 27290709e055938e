package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "valido/pkg/domain-errors"
)

var tokenService = NewService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)

const (
	subject   = "submitter-42"
	scope     = "files:validate"
	expiresIn = time.Hour
)

func Test_GenerateAndValidate(t *testing.T) {
	tok, err := tokenService.Generate(subject, scope, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := tokenService.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
	assert.Equal(t, scope, claims.Scope)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_Validate_InvalidToken(t *testing.T) {
	_, err := tokenService.Validate("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Validate_ExpiredToken(t *testing.T) {
	tok, err := tokenService.Generate(subject, scope, -time.Hour)
	require.NoError(t, err)

	_, err = tokenService.Validate(tok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func Test_Validate_WrongAudience(t *testing.T) {
	other := NewService("test-signing-key", "test-issuer", "other-audience")
	tok, err := other.Generate(subject, scope, expiresIn)
	require.NoError(t, err)

	_, err = tokenService.Validate(tok)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Validate_WrongKey(t *testing.T) {
	other := NewService("another-key", "test-issuer", "test-audience")
	tok, err := other.Generate(subject, scope, expiresIn)
	require.NoError(t, err)

	_, err = tokenService.Validate(tok)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Validate_MissingSubject(t *testing.T) {
	tok, err := tokenService.Generate("", scope, expiresIn)
	require.NoError(t, err)

	_, err = tokenService.Validate(tok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no subject")
}
