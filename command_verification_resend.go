package expense

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

type ResendVerificationMessage struct {
	UserID     uuid.UUID `json:"user_id"`
	OnResponse func(resp *ResendVerificationResponse)
}

func (r ResendVerificationMessage) Type() string { return "user.resend_verification" }

type ResendVerificationResponse struct {
	Success bool
}

// ResendVerificationHandler issues a fresh verification token for the
// signed in account, superseding any outstanding one. Already verified
// accounts are rejected.
type ResendVerificationHandler struct {
	repo   RepositoryManager
	mailer Mailer
	config Config
	logger Logger
}

func NewResendVerificationHandler(repo RepositoryManager, mailer Mailer, config Config) *ResendVerificationHandler {
	return &ResendVerificationHandler{
		repo:   repo,
		mailer: mailer,
		config: config,
		logger: defLogger{},
	}
}

func (h *ResendVerificationHandler) WithLogger(logger Logger) *ResendVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.UserID == uuid.Nil {
		return ErrUnauthenticated
	}

	user, err := h.repo.Users().GetByID(ctx, event.UserID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUnauthenticated
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for verification resend")
	}

	if user.EmailValidated {
		return ErrAlreadyVerified
	}

	token, err := GenerateSingleUseToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification token")
	}
	expires := TokenExpiration(time.Now(), h.config.GetSingleUseTokenTTL())

	if err := h.repo.Users().SetVerificationToken(ctx, user.ID, token, expires); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store verification token")
	}

	if h.mailer != nil {
		err := h.mailer.Send(ctx, user.Email, "account_verification", map[string]any{
			"name": user.DisplayName(),
			"link": verificationLink(h.config.GetClientURL(), token),
		})
		if err != nil {
			h.logger.Warn("failed to deliver verification email to %s: %v", user.Email, err)
		}
	}

	if event.OnResponse != nil {
		event.OnResponse(&ResendVerificationResponse{Success: true})
	}

	return nil
}
