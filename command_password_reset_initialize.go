package expense

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// ResetRequestReceived is the message returned for every reset request,
// whether or not the email maps to an account.
const ResetRequestReceived = "If that email is registered you will receive reset instructions shortly."

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	Message string
	Success bool
}

// InitializePasswordResetHandler issues a fresh reset token for a known
// account. Unknown emails get the exact same response so the endpoint
// cannot be used to probe which addresses are registered.
type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	mailer Mailer
	config Config
	logger Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, mailer Mailer, config Config) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:   repo,
		mailer: mailer,
		config: config,
		logger: defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	resp := &InitializePasswordResetResponse{
		Message: ResetRequestReceived,
	}

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// same response as the happy path
			resp.Success = true
			if event.OnResponse != nil {
				event.OnResponse(resp)
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	token, err := GenerateSingleUseToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset token")
	}
	expires := TokenExpiration(time.Now(), h.config.GetSingleUseTokenTTL())

	// a new request supersedes any previous outstanding token
	if err := h.repo.Users().SetResetToken(ctx, user.ID, token, expires); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
	}

	if h.mailer != nil {
		err := h.mailer.Send(ctx, user.Email, "password_reset", map[string]any{
			"name": user.DisplayName(),
			"link": passwordResetLink(h.config.GetClientURL(), token),
		})
		if err != nil {
			h.logger.Warn("failed to deliver reset email to %s: %v", user.Email, err)
		}
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
