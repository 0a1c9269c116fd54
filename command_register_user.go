package expense

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	UseHashid  bool
	OnResponse func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	User         *User
	SessionToken string
	ExpiresAt    time.Time
	Success      bool
}

// RegisterUserHandler creates a new account with a hashed password and
// a pending email verification token, then signs the account in.
type RegisterUserHandler struct {
	repo   RepositoryManager
	tokens TokenService
	mailer Mailer
	config Config
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager, tokens TokenService, mailer Mailer, config Config) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		config: config,
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	verifyToken := ""

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if existing, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err == nil && existing != nil {
			return ErrAccountExists
		} else if err != nil && !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}

		hash, err := HashPasswordCost(event.Password, h.config.GetBcryptCost())
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		verifyToken, err = GenerateSingleUseToken()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification token")
		}
		expires := TokenExpiration(time.Now(), h.config.GetSingleUseTokenTTL())

		user.PasswordHash = hash
		user.Email = event.Email
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.VerifyToken = &verifyToken
		user.VerifyExpires = &expires
		if event.UseHashid {
			if id, err := hashid.NewUUID(NormalizeEmail(event.Email)); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	session, expiresAt, err := h.tokens.Issue(user.ID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	h.sendVerificationEmail(ctx, user, verifyToken)

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{
			User:         user,
			SessionToken: session,
			ExpiresAt:    expiresAt,
			Success:      true,
		})
	}

	return nil
}

func (h *RegisterUserHandler) sendVerificationEmail(ctx context.Context, user *User, token string) {
	if h.mailer == nil {
		return
	}

	err := h.mailer.Send(ctx, user.Email, "account_verification", map[string]any{
		"name": user.DisplayName(),
		"link": verificationLink(h.config.GetClientURL(), token),
	})
	if err != nil {
		h.logger.Warn("failed to deliver verification email to %s: %v", user.Email, err)
	}
}

func verificationLink(base, token string) string {
	return base + "/verify-email/" + token
}

func passwordResetLink(base, token string) string {
	return base + "/password-reset/" + token
}
