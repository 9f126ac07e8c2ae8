package accounts

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// APIResponse is the envelope every endpoint returns
type APIResponse struct {
	Success              bool        `json:"success"`
	Message              string      `json:"message,omitempty"`
	User                 *PublicUser `json:"user,omitempty"`
	RequirePasswordSetup bool        `json:"requirePasswordSetup,omitempty"`
}

// StatusFromError maps rich error categories to HTTP statuses. Lookup
// failures and bad credentials share a 400 so responses stay uniform.
func StatusFromError(err *errors.Error) int {
	if err == nil {
		return http.StatusOK
	}

	switch err.Category {
	case errors.CategoryValidation, errors.CategoryBadInput,
		errors.CategoryNotFound, errors.CategoryConflict,
		errors.CategoryAuth:
		return http.StatusBadRequest
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func publicErrorMessage(err *errors.Error, status int) string {
	if status >= http.StatusInternalServerError {
		return "An unexpected server error occurred"
	}
	return err.Message
}

// RegisterAuthRoutes mounts the account endpoints on the given router
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Signup, controller.SignupPost).
		SetName("auth.signup")
	app.Post(controller.Routes.VerifyEmail, controller.VerifyEmailPost).
		SetName("auth.verify-email")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")
	app.Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("auth.logout")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("auth.forgot-password")
	app.Post(fmt.Sprintf("%s/:token", controller.Routes.ResetPassword), controller.ResetPasswordPost).
		SetName("auth.reset-password")
	app.Post(fmt.Sprintf("%s/:token", controller.Routes.SetPassword), controller.SetPasswordPost).
		SetName("auth.set-password")

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeClientRouteAuthErrorHandler(false),
	)
	app.Get(controller.Routes.CheckAuth, controller.CheckAuth, protected).
		SetName("auth.check-auth")
}

type AuthControllerRoutes struct {
	Signup         string
	VerifyEmail    string
	Login          string
	Logout         string
	ForgotPassword string
	ResetPassword  string
	SetPassword    string
	CheckAuth      string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Notifier     Notifier
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	Config       Config
	BaseURL      string
	Activity     ActivitySink
	ErrorHandler func(c router.Context, err error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:   defLogger{},
		Activity: noopActivitySink{},
		Routes: &AuthControllerRoutes{
			Signup:         "/signup",
			VerifyEmail:    "/verifyEmail",
			Login:          "/login",
			Logout:         "/logout",
			ForgotPassword: "/forgot-password",
			ResetPassword:  "/reset-password",
			SetPassword:    "/set-password",
			CheckAuth:      "/check-auth",
		},
	}

	c.ErrorHandler = c.respondError

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Notifier == nil {
		panic("Missing Notifier in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

// WithLogger overrides the controller logger
func (a *AuthController) WithLogger(logger Logger) *AuthController {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

func (a *AuthController) respondError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := StatusFromError(richErr)

	if status >= http.StatusInternalServerError {
		a.Logger.Error("request failed",
			"error", richErr.Message,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
	} else {
		a.Logger.Info("request rejected", "error", richErr.Message, "category", richErr.Category)
	}

	return ctx.JSON(status, APIResponse{
		Success: false,
		Message: publicErrorMessage(richErr, status),
	})
}

func (a *AuthController) bindError(ctx router.Context, err error) error {
	a.Logger.Error("failed to parse payload", "error", err)
	return ctx.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Message: "Unable to parse request body",
	})
}

func (a *AuthController) validationError(ctx router.Context, err error) error {
	a.Logger.Info("payload validation failed", "error", err)
	return ctx.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Message: err.Error(),
	})
}

// SignupRequest payload
type SignupRequest struct {
	Name  string `form:"name" json:"name"`
	Email string `form:"email" json:"email"`
	Phone string `form:"phone_number" json:"phone_number"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Length(7, 20)),
	)
}

func (a *AuthController) SignupPost(ctx router.Context) error {
	payload := new(SignupRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("signup payload", "payload", print.MaybePrettyJSON(payload))
	}

	var res *SignupResponse
	req := SignupMessage{
		Name:  payload.Name,
		Email: payload.Email,
		Phone: payload.Phone,
		OnResponse: func(resp *SignupResponse) {
			res = resp
		},
	}

	signup := NewSignupHandler(a.Repo, a.Notifier).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)

	if err := signup.Execute(ctx.Context(), req); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	// a fresh account gets a session right away, before it has a password
	if err := a.Auther.Impersonate(ctx, res.User.Email); err != nil {
		a.Logger.Error("failed to mint signup session", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "User created successfully",
		User:    NewPublicUser(res.User),
	})
}

// VerifyEmailRequest payload
type VerifyEmailRequest struct {
	Email string `form:"email" json:"email"`
	Code  string `form:"code" json:"code"`
}

// Validate will run validation rules
func (r VerifyEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required, validation.Length(6, 6), is.Digit),
	)
}

func (a *AuthController) VerifyEmailPost(ctx router.Context) error {
	payload := new(VerifyEmailRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	var res *VerifyEmailResponse
	req := VerifyEmailMessage{
		Email: payload.Email,
		Code:  payload.Code,
		OnResponse: func(resp *VerifyEmailResponse) {
			res = resp
		},
	}

	verify := NewVerifyEmailHandler(a.Repo, a.Notifier).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity).
		WithBaseURL(a.BaseURL)

	if err := verify.Execute(ctx.Context(), req); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, APIResponse{
		Success:              true,
		Message:              "Email verified successfully",
		User:                 NewPublicUser(res.User),
		RequirePasswordSetup: res.RequirePasswordSetup,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession will return the remember flag
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("login attempt", "email", payload.Email)
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		if errors.Is(err, ErrTooManyLoginAttempts) {
			return a.ErrorHandler(ctx, err)
		}
		// every other failure looks the same to the caller
		return a.ErrorHandler(ctx, ErrMismatchedHashAndPassword)
	}

	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), payload.Email)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Logged in successfully",
		User:    NewPublicUser(user),
	})
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	var res *InitializePasswordResetResponse
	req := InitializePasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(resp *InitializePasswordResetResponse) {
			res = resp
		},
	}

	initReset := NewInitializePasswordResetHandler(a.Repo, a.Notifier).
		WithLogger(a.Logger).
		WithBaseURL(a.BaseURL)

	if err := initReset.Execute(ctx.Context(), req); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Password reset link sent to your email",
		User:    NewPublicUser(res.User),
	})
}

// NewPasswordRequest is the payload for both token-redeeming password routes
type NewPasswordRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r NewPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	token := ctx.Param("token", "")
	payload := new(NewPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	req := FinalizePasswordResetMessage{
		Email:    payload.Email,
		Token:    token,
		Password: payload.Password,
	}

	finalize := NewFinalizePasswordResetHandler(a.Repo, a.Notifier).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)

	if err := finalize.Execute(ctx.Context(), req); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Password reset successful",
	})
}

func (a *AuthController) SetPasswordPost(ctx router.Context) error {
	token := ctx.Param("token", "")
	payload := new(NewPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	req := SetPasswordMessage{
		Email:    payload.Email,
		Token:    token,
		Password: payload.Password,
	}

	setPwd := NewSetPasswordHandler(a.Repo, a.Notifier).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)

	if err := setPwd.Execute(ctx.Context(), req); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Password set successfully",
	})
}

// CheckAuth reports the logged in user behind the session gate
func (a *AuthController) CheckAuth(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), session.GetUserID())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, APIResponse{
		Success: true,
		User:    NewPublicUser(user),
	})
}
