package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyAccountMessage struct {
	Token      string `json:"token"`
	OnResponse func(r *VerifyAccountResponse)
}

func (e VerifyAccountMessage) Type() string { return "auth.verify" }

type VerifyAccountResponse struct {
	// Applied reports whether this request flipped the flag. A replayed
	// link leaves it false while the operation still succeeds.
	Applied bool `json:"applied"`
}

type VerifyAccountHandler struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

type VerifyAccountOption func(*VerifyAccountHandler)

func WithVerifyLogger(logger Logger) VerifyAccountOption {
	return func(h *VerifyAccountHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewVerifyAccountHandler(repo RepositoryManager, tokens TokenService, opts ...VerifyAccountOption) *VerifyAccountHandler {
	h := &VerifyAccountHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

func (h *VerifyAccountHandler) Execute(ctx context.Context, event VerifyAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyAccountHandler) execute(ctx context.Context, event VerifyAccountMessage) error {
	if event.Token == "" {
		return ErrMissingToken
	}

	accountID, err := ParseVerificationToken(h.tokens, event.Token)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	applied, err := h.repo.Users().MarkVerified(ctx, accountID)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update verification state")
	}

	if !applied {
		// Already verified or never registered, revisiting a link is
		// not an error.
		h.logger.Debug("verification was a no-op", "account_id", accountID.String())
	}

	if event.OnResponse != nil {
		event.OnResponse(&VerifyAccountResponse{Applied: applied})
	}

	return nil
}
