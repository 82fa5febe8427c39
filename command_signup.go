package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type SignupMessage struct {
	SignupPayload
}

func (e SignupMessage) Type() string { return "auth.signup" }

type SignupHandler struct {
	repo      RepositoryManager
	tokens    TokenService
	mailer    Mailer
	logger    Logger
	baseURL   string
	tokenOpts ScopedTokenOptions
}

type SignupOption func(*SignupHandler)

func WithSignupLogger(logger Logger) SignupOption {
	return func(h *SignupHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithVerificationBaseURL sets the public URL prefix used to build
// verification links, e.g. https://example.com.
func WithVerificationBaseURL(baseURL string) SignupOption {
	return func(h *SignupHandler) {
		h.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithVerificationTokenOptions(opts ScopedTokenOptions) SignupOption {
	return func(h *SignupHandler) {
		h.tokenOpts = opts
	}
}

func NewSignupHandler(repo RepositoryManager, tokens TokenService, mailer Mailer, opts ...SignupOption) *SignupHandler {
	h := &SignupHandler{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	payload := event.SignupPayload
	payload.Normalize()

	if err := payload.Validate(); err != nil {
		return WrapValidationErrors(err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if payload.IsOAuth() {
		return h.registerOAuth(ctx, payload)
	}

	return h.registerTraditional(ctx, payload)
}

func (h *SignupHandler) registerTraditional(ctx context.Context, payload SignupPayload) error {
	byUsername, byEmail, err := h.findClaims(ctx, payload.Username, payload.Email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing accounts")
	}

	// A verified holder blocks registration outright. Username wins
	// when both identifiers clash, only one conflict is reported.
	if byUsername != nil && byUsername.IsVerified {
		return ErrUsernameTaken
	}
	if byEmail != nil && byEmail.IsVerified {
		return ErrEmailTaken
	}

	// Plaintext never reaches storage, hash before any write.
	hash, err := HashPassword(payload.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// An unverified holder has not finalized its claim, the new
		// attempt overwrites it in place.
		existing := byUsername
		if existing == nil {
			existing = byEmail
		}

		if existing != nil {
			existing.FullName = payload.FullName
			existing.Username = payload.Username
			existing.Email = payload.Email
			existing.PasswordHash = hash
			existing.OAuthProvider = ""
			existing.OAuthID = ""

			if err := ValidateCredentials(existing); err != nil {
				return err
			}

			record, err := h.repo.Users().UpdateTx(ctx, tx, existing, repository.UpdateByID(existing.ID.String()))
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryConflict, "could not overwrite unverified account")
			}

			user = record
			return nil
		}

		record, err := h.repo.Users().RegisterTx(ctx, tx, &User{
			FullName:     payload.FullName,
			Username:     payload.Username,
			Email:        payload.Email,
			PasswordHash: hash,
		})
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		user = record
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "signup transaction failed")
	}

	h.dispatchVerification(ctx, user)

	return nil
}

// registerOAuth provisions an account from a federated identity. The
// provider already vouched for the subject so the account is created
// verified and no mail goes out. Replays of the same provider pair
// succeed without a second write.
func (h *SignupHandler) registerOAuth(ctx context.Context, payload SignupPayload) error {
	existing, err := h.repo.Users().GetByOAuth(ctx, payload.OAuthProvider, payload.OAuthID)
	if err != nil && !repository.IsRecordNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing accounts")
	}

	if existing != nil {
		return nil
	}

	byUsername, err := h.lookupUser(ctx, payload.Username, h.repo.Users().GetByUsername)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing accounts")
	}

	if byUsername != nil && byUsername.IsVerified {
		return ErrUsernameTaken
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if byUsername != nil {
			byUsername.FullName = payload.FullName
			byUsername.Username = payload.Username
			byUsername.Email = ""
			byUsername.PasswordHash = ""
			byUsername.OAuthProvider = payload.OAuthProvider
			byUsername.OAuthID = payload.OAuthID
			byUsername.IsVerified = true

			if err := ValidateCredentials(byUsername); err != nil {
				return err
			}

			_, err := h.repo.Users().UpdateTx(ctx, tx, byUsername, repository.UpdateByID(byUsername.ID.String()))
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryConflict, "could not overwrite unverified account")
			}
			return nil
		}

		_, err := h.repo.Users().RegisterTx(ctx, tx, &User{
			FullName:      payload.FullName,
			Username:      payload.Username,
			OAuthProvider: payload.OAuthProvider,
			OAuthID:       payload.OAuthID,
			IsVerified:    true,
		})
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "signup transaction failed")
	}

	return nil
}

// findClaims runs the username and email lookups concurrently. The two
// reads are independent, no cross-consistency is required between them.
func (h *SignupHandler) findClaims(ctx context.Context, username, email string) (*User, *User, error) {
	var (
		wg          sync.WaitGroup
		byUsername  *User
		byEmail     *User
		errUsername error
		errEmail    error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		byUsername, errUsername = h.lookupUser(ctx, username, h.repo.Users().GetByUsername)
	}()

	go func() {
		defer wg.Done()
		byEmail, errEmail = h.lookupUser(ctx, email, h.repo.Users().GetByEmail)
	}()

	wg.Wait()

	if errUsername != nil {
		return nil, nil, errUsername
	}
	if errEmail != nil {
		return nil, nil, errEmail
	}

	return byUsername, byEmail, nil
}

func (h *SignupHandler) lookupUser(ctx context.Context, value string, find func(context.Context, string) (*User, error)) (*User, error) {
	user, err := find(ctx, value)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// dispatchVerification mints the verification token and hands the link
// to the mailer. Delivery failure after a successful account write is
// logged and swallowed, the account stays unverified until the user
// registers again.
func (h *SignupHandler) dispatchVerification(ctx context.Context, user *User) {
	token, _, err := MintVerificationToken(h.tokens, user.ID, h.tokenOpts)
	if err != nil {
		h.logger.Error("signup could not mint verification token", "error", err, "user_id", user.ID.String())
		return
	}

	link := h.baseURL + "/verify/" + token

	if err := h.mailer.SendVerificationLink(ctx, user.Email, link, user.DisplayName()); err != nil {
		h.logger.Error("signup could not deliver verification mail", "error", err, "user_id", user.ID.String())
	}
}
