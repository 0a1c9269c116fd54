package expense

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

type ApiControllerRoutes struct {
	Register           string
	Login              string
	PasswordReset      string
	VerifyEmail        string
	ResendVerification string
	Categories         string
	Expenses           string
}

type ApiController struct {
	Debug   bool
	Logger  Logger
	Repo    RepositoryManager
	Auther  *Auther
	Records *Records
	Mailer  Mailer
	Config  Config
	Routes  *ApiControllerRoutes
}

type ApiControllerOption func(*ApiController) *ApiController

func WithControllerLogger(logger Logger) ApiControllerOption {
	return func(c *ApiController) *ApiController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) ApiControllerOption {
	return func(c *ApiController) *ApiController {
		c.Debug = debug
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) ApiControllerOption {
	return func(c *ApiController) *ApiController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *Auther) ApiControllerOption {
	return func(c *ApiController) *ApiController {
		c.Auther = auther
		return c
	}
}

func WithControllerMailer(mailer Mailer) ApiControllerOption {
	return func(c *ApiController) *ApiController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerConfig(cfg Config) ApiControllerOption {
	return func(c *ApiController) *ApiController {
		c.Config = cfg
		return c
	}
}

func NewApiController(opts ...ApiControllerOption) *ApiController {
	c := &ApiController{
		Logger: defLogger{},
		Routes: &ApiControllerRoutes{
			Register:           "/register",
			Login:              "/login",
			PasswordReset:      "/password-reset",
			VerifyEmail:        "/verify-email",
			ResendVerification: "/resend-verification",
			Categories:         "/categories",
			Expenses:           "/expenses",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in api controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in api controller...")
	}

	if c.Config == nil {
		panic("Missing Config in api controller...")
	}

	if c.Records == nil {
		c.Records = NewRecords(c.Repo).WithLogger(c.Logger)
	}

	return c
}

func RegisterApiRoutes[T any](app router.Router[T], opts ...ApiControllerOption) {

	controller := NewApiController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("register.post")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("login.post")

	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost).
		SetName("pwd-reset.post")
	app.Post(fmt.Sprintf("%s/:token", controller.Routes.PasswordReset), controller.PasswordResetExecute).
		SetName("pwd-reset-do.post")

	app.Get(fmt.Sprintf("%s/:token", controller.Routes.VerifyEmail), controller.VerifyEmailGet).
		SetName("verify-email.get")
	app.Post(controller.Routes.ResendVerification, controller.ResendVerificationPost).
		SetName("resend-verification.post")

	app.Get(controller.Routes.Categories, controller.CategoriesGet).
		SetName("categories.get")
	app.Post(controller.Routes.Categories, controller.CategoriesPost).
		SetName("categories.post")

	app.Get(controller.Routes.Expenses, controller.ExpensesGet).
		SetName("expenses.get")
	app.Post(controller.Routes.Expenses, controller.ExpensesPost).
		SetName("expenses.post")
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *ApiController) RegisterPost(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return a.respondError(ctx, badRequest(err))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=======================")
	}

	var res *RegisterUserResponse

	req := RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
		OnResponse: func(resp *RegisterUserResponse) {
			res = resp
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Auther.TokenService(), a.Mailer, a.Config).
		WithLogger(a.Logger)

	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register execute: %v", err)
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, map[string]any{
		"token": res.SessionToken,
		"user":  res.User,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *ApiController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.respondError(ctx, badRequest(err))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	token, user, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *ApiController) PasswordResetPost(ctx router.Context) error {
	payload := new(PasswordResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload: %v", err)
		return a.respondError(ctx, badRequest(err))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	var res *InitializePasswordResetResponse

	req := InitializePasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(resp *InitializePasswordResetResponse) {
			res = resp
		},
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo, a.Mailer, a.Config).
		WithLogger(a.Logger)

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset execute: %v", err)
		return a.respondError(ctx, err)
	}

	if a.Debug {
		fmt.Println("================")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("================")
	}

	return ctx.JSON(fiber.StatusAccepted, map[string]any{
		"message": res.Message,
	})
}

// PasswordResetVerifyPayload holds values for password reset
type PasswordResetVerifyPayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r PasswordResetVerifyPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *ApiController) PasswordResetExecute(ctx router.Context) error {
	token := ctx.Param("token")

	payload := new(PasswordResetVerifyPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset finalize parse payload: %v", err)
		return a.respondError(ctx, badRequest(err))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	input := FinalizePasswordResetMessage{
		Token:    token,
		Password: payload.Password,
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo, a.Config).
		WithLogger(a.Logger)

	if err := finalizePwdReset.Execute(ctx.Context(), input); err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"message": "Password updated. You can now sign in with your new password.",
	})
}

func (a *ApiController) VerifyEmailGet(ctx router.Context) error {
	token := ctx.Param("token")

	var res *VerifyEmailResponse

	input := VerifyEmailMessage{
		Token: token,
		OnResponse: func(resp *VerifyEmailResponse) {
			res = resp
		},
	}

	verify := NewVerifyEmailHandler(a.Repo).WithLogger(a.Logger)

	if err := verify.Execute(ctx.Context(), input); err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"message": "Email verified.",
		"user":    res.User,
	})
}

func (a *ApiController) ResendVerificationPost(ctx router.Context) error {
	identity := RouterIdentity(ctx, a.Config.GetContextKey())
	if !identity.Authenticated {
		return a.respondError(ctx, ErrUnauthenticated)
	}

	subject, err := uuid.Parse(identity.Subject)
	if err != nil {
		return a.respondError(ctx, ErrUnauthenticated)
	}

	input := ResendVerificationMessage{
		UserID: subject,
	}

	resend := NewResendVerificationHandler(a.Repo, a.Mailer, a.Config).
		WithLogger(a.Logger)

	if err := resend.Execute(ctx.Context(), input); err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusAccepted, map[string]any{
		"message": "Verification email sent.",
	})
}

func (a *ApiController) CategoriesGet(ctx router.Context) error {
	identity := RouterIdentity(ctx, a.Config.GetContextKey())

	records, err := a.Records.ListCategories(ctx.Context(), identity)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"categories": records,
	})
}

func (a *ApiController) CategoriesPost(ctx router.Context) error {
	identity := RouterIdentity(ctx, a.Config.GetContextKey())

	payload := new(CreateCategoryPayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("category parse payload: %v", err)
		return a.respondError(ctx, badRequest(err))
	}

	record, err := a.Records.CreateCategory(ctx.Context(), identity, *payload)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, map[string]any{
		"category": record,
	})
}

func (a *ApiController) ExpensesGet(ctx router.Context) error {
	identity := RouterIdentity(ctx, a.Config.GetContextKey())

	var categoryID *uuid.UUID
	if raw := ctx.Query("category_id", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return a.respondError(ctx, badRequest(errors.New("invalid category_id")))
		}
		categoryID = &id
	}

	records, err := a.Records.ListExpenses(ctx.Context(), identity, categoryID)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"expenses": records,
	})
}

func (a *ApiController) ExpensesPost(ctx router.Context) error {
	identity := RouterIdentity(ctx, a.Config.GetContextKey())

	payload := new(CreateExpensePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("expense parse payload: %v", err)
		return a.respondError(ctx, badRequest(err))
	}

	if a.Debug {
		fmt.Println("======= EXPENSE ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("======================")
	}

	record, err := a.Records.CreateExpense(ctx.Context(), identity, *payload)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, map[string]any{
		"expense": record,
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

func (a *ApiController) respondValidation(ctx router.Context, err error) error {
	return ctx.JSON(fiber.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"message":    "Validation failed",
			"code":       "VALIDATION",
			"validation": FormatValidationErrorToMap(err),
		},
	})
}

func (a *ApiController) respondError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = statusForCategory(richErr.Category)
	}

	if status >= fiber.StatusInternalServerError {
		a.Logger.Error("api error: %v", err)
		// internal details stay in the logs
		return ctx.JSON(status, map[string]any{
			"error": map[string]any{
				"message": "An unexpected server error occurred",
				"code":    richErr.TextCode,
			},
		})
	}

	return ctx.JSON(status, map[string]any{
		"error": map[string]any{
			"message": richErr.Message,
			"code":    richErr.TextCode,
		},
	})
}

func statusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func badRequest(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
		WithCode(goerrors.CodeBadRequest)
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
