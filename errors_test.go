package auth_test

import (
	"errors"
	"testing"

	"github.com/blogtype/auth"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      auth.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      auth.ErrIdentityNotFound,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auth.IsTokenExpiredError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured malformed error",
			err:      auth.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "Legacy malformed error (string match)",
			err:      errors.New("token is malformed"),
			expected: true,
		},
		{
			name:     "Legacy missing JWT error (string match)",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      auth.ErrTokenExpired,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auth.IsMalformedError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestStructuredErrorProperties(t *testing.T) {
	t.Run("ErrUsernameTaken", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, auth.ErrUsernameTaken.Category)
		assert.Equal(t, auth.TextCodeUsernameTaken, auth.ErrUsernameTaken.TextCode)
	})

	t.Run("ErrEmailTaken", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, auth.ErrEmailTaken.Category)
		assert.Equal(t, auth.TextCodeEmailTaken, auth.ErrEmailTaken.TextCode)
	})

	t.Run("ErrMissingToken", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryBadInput, auth.ErrMissingToken.Category)
		assert.Equal(t, auth.TextCodeMissingToken, auth.ErrMissingToken.TextCode)
	})

	t.Run("ErrTokenExpired", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrTokenExpired.Category)
		assert.Equal(t, auth.TextCodeTokenExpired, auth.ErrTokenExpired.TextCode)
	})

	t.Run("ErrTokenMalformed", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrTokenMalformed.Category)
		assert.Equal(t, auth.TextCodeInvalidToken, auth.ErrTokenMalformed.TextCode)
	})

	t.Run("ErrInvalidPayload", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryBadInput, auth.ErrInvalidPayload.Category)
		assert.Equal(t, auth.TextCodeInvalidPayload, auth.ErrInvalidPayload.TextCode)
	})

	t.Run("ErrMismatchedHashAndPassword", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrMismatchedHashAndPassword.Category)
		assert.Equal(t, auth.TextCodeInvalidCreds, auth.ErrMismatchedHashAndPassword.TextCode)
		assert.Equal(t, "the credentials provided are invalid", auth.ErrMismatchedHashAndPassword.Message)
	})

	t.Run("ErrIdentityNotFound", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryNotFound, auth.ErrIdentityNotFound.Category)
		assert.Equal(t, "identity not found", auth.ErrIdentityNotFound.Message)
	})

	t.Run("ErrTooManyLoginAttempts", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryRateLimit, auth.ErrTooManyLoginAttempts.Category)
		assert.Equal(t, auth.TextCodeTooManyAttempts, auth.ErrTooManyLoginAttempts.TextCode)
	})
}

func TestWrapValidationErrors(t *testing.T) {
	verrs := validation.Errors{
		"email":    errors.New("must be a valid email address"),
		"password": errors.New("cannot be blank"),
	}

	wrapped := auth.WrapValidationErrors(verrs)

	assert.Equal(t, goerrors.CategoryValidation, wrapped.Category)
	assert.Equal(t, auth.TextCodeValidationFailed, wrapped.TextCode)

	fields, ok := wrapped.Metadata["fields"].(map[string]string)
	assert.True(t, ok)
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "cannot be blank", fields["password"])
}

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Run("nested errors join with dots", func(t *testing.T) {
		verrs := validation.Errors{
			"profile": validation.Errors{
				"email": errors.New("must be a valid email address"),
			},
		}

		fields := auth.FormatValidationErrorToMap(verrs)
		assert.Equal(t, "must be a valid email address", fields["profile.email"])
	})

	t.Run("non validation error yields empty map", func(t *testing.T) {
		fields := auth.FormatValidationErrorToMap(errors.New("boom"))
		assert.Empty(t, fields)
	})
}
