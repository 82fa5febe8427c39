package auth

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var usernameFormat = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// SignupPayload is the raw registration submission. Validation is
// all-or-nothing: either the payload normalizes cleanly or the caller
// gets every field error collected in one pass.
type SignupPayload struct {
	FullName        string `json:"fullName" form:"fullName"`
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	OAuthProvider   string `json:"oauthProvider" form:"oauthProvider"`
	OAuthID         string `json:"oauthId" form:"oauthId"`
}

// Normalize trims surrounding whitespace from the identity fields.
// Passwords are taken as submitted.
func (p *SignupPayload) Normalize() {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)
	p.OAuthProvider = strings.TrimSpace(p.OAuthProvider)
	p.OAuthID = strings.TrimSpace(p.OAuthID)
}

// IsOAuth reports whether the submission selects the OAuth mode, which
// requires both provider and id.
func (p SignupPayload) IsOAuth() bool {
	return p.OAuthProvider != "" && p.OAuthID != ""
}

// Validate will validate the payload
func (p SignupPayload) Validate() error {
	errs := validation.Errors{}

	err := validation.ValidateStruct(&p,
		validation.Field(&p.FullName, validation.Required, validation.Length(2, 100)),
		validation.Field(
			&p.Username,
			validation.Required,
			validation.Length(2, 32),
			validation.Match(usernameFormat).Error("must contain only letters, numbers, dots, and underscores"),
		),
		validation.Field(
			&p.Email,
			validation.When(!p.IsOAuth(), validation.Required, is.Email),
		),
		validation.Field(
			&p.Password,
			validation.When(!p.IsOAuth(), validation.Required, validation.By(ValidatePasswordStrength)),
		),
		validation.Field(
			&p.ConfirmPassword,
			validation.When(!p.IsOAuth(),
				validation.Required,
				validation.By(ValidateStringEquals(p.Password)),
			),
		),
	)
	mergeFieldErrors(errs, err)

	p.validateMode(errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateMode enforces that exactly one authentication mode is
// selected. Errors attach to the field a client can act on.
func (p SignupPayload) validateMode(errs validation.Errors) {
	hasProvider := p.OAuthProvider != ""
	hasID := p.OAuthID != ""

	if hasProvider != hasID {
		if !hasProvider {
			setFieldError(errs, "oauthProvider", "must be provided together with oauthId")
		} else {
			setFieldError(errs, "oauthId", "must be provided together with oauthProvider")
		}
		return
	}

	if !p.IsOAuth() {
		return
	}

	if p.Password != "" {
		setFieldError(errs, "password", "must be blank for oauth signups")
	}
	if p.ConfirmPassword != "" {
		setFieldError(errs, "confirmPassword", "must be blank for oauth signups")
	}
	if p.Email != "" {
		setFieldError(errs, "email", "must be blank for oauth signups")
	}
}

// LoginPayload is the raw login submission. Traditional logins carry a
// password plus at least one identifier; OAuth logins carry only the
// provider pair.
type LoginPayload struct {
	Username      string `json:"username" form:"username"`
	Email         string `json:"email" form:"email"`
	Password      string `json:"password" form:"password"`
	OAuthProvider string `json:"oauthProvider" form:"oauthProvider"`
	OAuthID       string `json:"oauthId" form:"oauthId"`
}

// Normalize trims surrounding whitespace from the identity fields.
func (p *LoginPayload) Normalize() {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)
	p.OAuthProvider = strings.TrimSpace(p.OAuthProvider)
	p.OAuthID = strings.TrimSpace(p.OAuthID)
}

// IsOAuth reports whether the submission selects the OAuth mode.
func (p LoginPayload) IsOAuth() bool {
	return p.OAuthProvider != "" && p.OAuthID != ""
}

// Identifier returns the identifier used to resolve the account,
// preferring username over email.
func (p LoginPayload) Identifier() string {
	if p.Username != "" {
		return p.Username
	}
	return p.Email
}

// Validate will validate the payload
func (p LoginPayload) Validate() error {
	errs := validation.Errors{}

	err := validation.ValidateStruct(&p,
		validation.Field(
			&p.Email,
			validation.When(p.Email != "", is.Email),
		),
		validation.Field(
			&p.Password,
			validation.When(!p.IsOAuth(), validation.Required),
		),
	)
	mergeFieldErrors(errs, err)

	hasProvider := p.OAuthProvider != ""
	hasID := p.OAuthID != ""

	switch {
	case hasProvider != hasID:
		if !hasProvider {
			setFieldError(errs, "oauthProvider", "must be provided together with oauthId")
		} else {
			setFieldError(errs, "oauthId", "must be provided together with oauthProvider")
		}
	case p.IsOAuth():
		if p.Password != "" {
			setFieldError(errs, "password", "must be blank for oauth logins")
		}
		if p.Username != "" {
			setFieldError(errs, "username", "must be blank for oauth logins")
		}
		if p.Email != "" {
			setFieldError(errs, "email", "must be blank for oauth logins")
		}
	default:
		if p.Username == "" && p.Email == "" {
			setFieldError(errs, "email", "either username or email is required")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidatePasswordStrength requires at least 8 characters with at
// least one lowercase letter, one uppercase letter, one digit, and one
// symbol.
func ValidatePasswordStrength(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	if len([]rune(s)) < 8 {
		return errors.New("must be at least 8 characters")
	}

	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	if !lower || !upper || !digit || !symbol {
		return errors.New("must contain a lowercase letter, an uppercase letter, a digit, and a symbol")
	}

	return nil
}

// ValidateStringEquals builds a rule asserting the value matches str.
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

func mergeFieldErrors(dst validation.Errors, err error) {
	if err == nil {
		return
	}
	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			dst[field] = ferr
		}
		return
	}
	dst["_"] = err
}

func setFieldError(errs validation.Errors, field, msg string) {
	if _, taken := errs[field]; !taken {
		errs[field] = errors.New(msg)
	}
}
