package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// VerificationTokenTTL is the validity window for account verification
// links. Tokens are single purpose and never persisted, expiry is the
// only revocation mechanism.
const VerificationTokenTTL = 10 * time.Minute

// ScopeVerifyAccount marks a token as usable only for account verification.
const ScopeVerifyAccount = "account:verify"

// ScopedTokenOptions controls how MintVerificationToken issues short-lived tokens.
type ScopedTokenOptions struct {
	// TTL overrides the default verification expiration.
	TTL time.Duration
	// Issuer overrides the default issuer if provided.
	Issuer string
	// Audience overrides the default audience if provided.
	Audience []string
	// IssuedAt overrides the issuance time. Zero uses time.Now().
	IssuedAt time.Time
}

type tokenDefaults struct {
	issuer   string
	audience jwt.ClaimStrings
	ttl      time.Duration
}

type tokenDefaultsProvider interface {
	tokenDefaults() tokenDefaults
}

// MintVerificationToken mints a short-lived JWT bound to a single
// account id and scoped to account verification.
func MintVerificationToken(tokenService TokenService, accountID uuid.UUID, opts ScopedTokenOptions) (string, time.Time, error) {
	if tokenService == nil {
		return "", time.Time{}, goerrors.New("token service is required", goerrors.CategoryBadInput)
	}
	if accountID == uuid.Nil {
		return "", time.Time{}, goerrors.New("account id is required", goerrors.CategoryBadInput)
	}

	issuer := opts.Issuer
	audience := opts.Audience
	ttl := opts.TTL

	if defaultsProvider, ok := tokenService.(tokenDefaultsProvider); ok {
		defaults := defaultsProvider.tokenDefaults()
		if issuer == "" {
			issuer = defaults.issuer
		}
		if len(audience) == 0 {
			audience = defaults.audience
		}
	}

	if ttl == 0 {
		ttl = VerificationTokenTTL
	}
	if ttl < 0 {
		return "", time.Time{}, goerrors.New("token TTL must be non-negative", goerrors.CategoryBadInput)
	}

	issuedAt := opts.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	expiresAt := issuedAt.Add(ttl)

	var aud jwt.ClaimStrings
	if len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID.String(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:    accountID.String(),
		Scopes: []string{ScopeVerifyAccount},
	}

	ensureTokenID(&claims.RegisteredClaims)

	token, err := tokenService.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// ParseVerificationToken validates a verification token and resolves
// the bound account id. Expiry and signature failures keep their
// specific errors, any structurally valid token that is not a scoped
// verification token fails with an invalid payload error.
func ParseVerificationToken(tokenService TokenService, token string) (uuid.UUID, error) {
	claims, err := tokenService.Validate(token)
	if err != nil {
		return uuid.Nil, err
	}

	if !claims.HasScope(ScopeVerifyAccount) {
		return uuid.Nil, ErrInvalidPayload
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return uuid.Nil, ErrInvalidPayload
	}

	return id, nil
}
