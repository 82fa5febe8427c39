package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

// Credentials is the discriminated representation of how an account
// authenticates. Exactly one concrete variant applies to a given user.
type Credentials interface {
	credentialMode() string
}

// PasswordCredentials is the traditional signup variant.
type PasswordCredentials struct {
	Email        string
	PasswordHash string
}

func (PasswordCredentials) credentialMode() string { return "password" }

// OAuthCredentials is the delegated identity variant; no local secret
// is stored for these accounts.
type OAuthCredentials struct {
	Provider string
	OAuthID  string
}

func (OAuthCredentials) credentialMode() string { return "oauth" }

// ErrAmbiguousCredentials is returned when a record carries both
// password and OAuth credentials, or neither.
var ErrAmbiguousCredentials = goerrors.New("account must have either password or oauth credentials", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidCredentialMode).
	WithCode(goerrors.CodeBadRequest)

// Credentials returns the active credential variant for the user, or an
// error when the record violates the exclusivity invariant.
func (u *User) Credentials() (Credentials, error) {
	if err := ValidateCredentials(u); err != nil {
		return nil, err
	}

	if u.OAuthProvider != "" {
		return OAuthCredentials{Provider: u.OAuthProvider, OAuthID: u.OAuthID}, nil
	}

	return PasswordCredentials{Email: u.Email, PasswordHash: u.PasswordHash}, nil
}

// ValidateCredentials enforces the credential exclusivity invariant on a
// record before it reaches the store: password hash and email together,
// or provider and oauth id together, never both sets and never neither.
func ValidateCredentials(u *User) error {
	if u == nil {
		return ErrAmbiguousCredentials
	}

	hasOAuth := u.OAuthProvider != "" && u.OAuthID != ""
	partialOAuth := (u.OAuthProvider != "") != (u.OAuthID != "")
	hasPassword := u.PasswordHash != "" && u.Email != ""

	if partialOAuth {
		return ErrAmbiguousCredentials.Clone().
			WithMetadata(map[string]any{"reason": "oauth provider and id must be set together"})
	}

	if hasOAuth == hasPassword {
		return ErrAmbiguousCredentials
	}

	if hasOAuth && (u.PasswordHash != "" || u.Email != "") {
		return ErrAmbiguousCredentials.Clone().
			WithMetadata(map[string]any{"reason": "oauth accounts must not carry password credentials"})
	}

	return nil
}
