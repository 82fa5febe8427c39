package auth_test

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogtype/auth"
)

func validSignup() auth.SignupPayload {
	return auth.SignupPayload{
		FullName:        "Ada Lovelace",
		Username:        "ada.lovelace",
		Email:           "ada@example.com",
		Password:        "Sup3r$ecret",
		ConfirmPassword: "Sup3r$ecret",
	}
}

func fieldKeys(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	verrs, ok := err.(validation.Errors)
	require.True(t, ok, "expected validation.Errors, got %T", err)
	return auth.FormatValidationErrorToMap(verrs)
}

func TestSignupPayloadValidate(t *testing.T) {
	t.Run("valid traditional signup", func(t *testing.T) {
		payload := validSignup()
		assert.NoError(t, payload.Validate())
	})

	t.Run("valid oauth signup", func(t *testing.T) {
		payload := auth.SignupPayload{
			FullName:      "Ada Lovelace",
			Username:      "ada",
			OAuthProvider: "github",
			OAuthID:       "gh-123",
		}
		assert.NoError(t, payload.Validate())
	})

	t.Run("username too short", func(t *testing.T) {
		payload := validSignup()
		payload.Username = "a"
		errs := fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "username")
	})

	t.Run("username bad charset", func(t *testing.T) {
		payload := validSignup()
		payload.Username = "ada lovelace!"
		errs := fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "username")
	})

	t.Run("invalid email", func(t *testing.T) {
		payload := validSignup()
		payload.Email = "not-an-email"
		errs := fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "email")
	})

	t.Run("weak passwords", func(t *testing.T) {
		weak := []string{
			"alllowercase",
			"ALLUPPERCASE1$",
			"NoDigits!!",
			"NoSymbols123",
			"Ab1$",
		}

		for _, pwd := range weak {
			payload := validSignup()
			payload.Password = pwd
			payload.ConfirmPassword = pwd
			errs := fieldKeys(t, payload.Validate())
			assert.Contains(t, errs, "password", "password %q should be rejected", pwd)
		}
	})

	t.Run("confirm password mismatch errors on confirmPassword", func(t *testing.T) {
		payload := validSignup()
		payload.ConfirmPassword = "Different1$"
		errs := fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "confirmPassword")
		assert.NotContains(t, errs, "password")
	})

	t.Run("missing traditional fields collected in one pass", func(t *testing.T) {
		payload := auth.SignupPayload{}
		errs := fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "fullName")
		assert.Contains(t, errs, "username")
		assert.Contains(t, errs, "email")
		assert.Contains(t, errs, "password")
	})

	t.Run("password alongside oauth errors on password", func(t *testing.T) {
		payload := auth.SignupPayload{
			FullName:      "Ada Lovelace",
			Username:      "ada",
			Password:      "Sup3r$ecret",
			OAuthProvider: "github",
			OAuthID:       "gh-123",
		}
		errs := fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "password")
	})

	t.Run("email alongside oauth errors on email", func(t *testing.T) {
		payload := auth.SignupPayload{
			FullName:      "Ada Lovelace",
			Username:      "ada",
			Email:         "ada@example.com",
			OAuthProvider: "github",
			OAuthID:       "gh-123",
		}
		errs := fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "email")
	})

	t.Run("partial oauth pair errors on the missing half", func(t *testing.T) {
		payload := validSignup()
		payload.OAuthProvider = "github"
		errs := fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "oauthId")

		payload = validSignup()
		payload.OAuthID = "gh-123"
		errs = fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "oauthProvider")
	})

	t.Run("normalize trims identity fields", func(t *testing.T) {
		payload := auth.SignupPayload{
			FullName: "  Ada Lovelace  ",
			Username: " ada ",
			Email:    " ada@example.com ",
		}
		payload.Normalize()
		assert.Equal(t, "Ada Lovelace", payload.FullName)
		assert.Equal(t, "ada", payload.Username)
		assert.Equal(t, "ada@example.com", payload.Email)
	})
}

func TestLoginPayloadValidate(t *testing.T) {
	t.Run("username plus password", func(t *testing.T) {
		payload := auth.LoginPayload{Username: "ada", Password: "whatever"}
		assert.NoError(t, payload.Validate())
		assert.Equal(t, "ada", payload.Identifier())
	})

	t.Run("email plus password", func(t *testing.T) {
		payload := auth.LoginPayload{Email: "ada@example.com", Password: "whatever"}
		assert.NoError(t, payload.Validate())
		assert.Equal(t, "ada@example.com", payload.Identifier())
	})

	t.Run("oauth pair only", func(t *testing.T) {
		payload := auth.LoginPayload{OAuthProvider: "github", OAuthID: "gh-123"}
		assert.NoError(t, payload.Validate())
		assert.True(t, payload.IsOAuth())
	})

	t.Run("no identifier", func(t *testing.T) {
		payload := auth.LoginPayload{Password: "whatever"}
		errs := fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "email")
	})

	t.Run("no password without oauth", func(t *testing.T) {
		payload := auth.LoginPayload{Username: "ada"}
		errs := fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "password")
	})

	t.Run("mixing modes errors on the traditional fields", func(t *testing.T) {
		payload := auth.LoginPayload{
			Username:      "ada",
			Password:      "whatever",
			OAuthProvider: "github",
			OAuthID:       "gh-123",
		}
		errs := fieldKeys(t, payload.Validate())
		assert.Contains(t, errs, "password")
		assert.Contains(t, errs, "username")
	})
}
