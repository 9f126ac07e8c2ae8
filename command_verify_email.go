package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	Code       string `json:"code" example:"482913" doc:"6-digit verification code."`
	OnResponse func(resp *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "account.verify_email" }

type VerifyEmailResponse struct {
	User *User
	// SetPasswordToken is installed atomically with verification so the
	// welcome email can carry the first-time password setup link.
	SetPasswordToken     string
	RequirePasswordSetup bool
	Success              bool
}

// VerifyEmailHandler redeems the signup verification code. Success flips
// is_email_verified and installs the set-password token in one update.
type VerifyEmailHandler struct {
	repo     RepositoryManager
	notifier Notifier
	activity ActivitySink
	logger   Logger
	baseURL  string
}

// NewVerifyEmailHandler creates a handler with sane defaults.
func NewVerifyEmailHandler(repo RepositoryManager, notifier Notifier) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:     repo,
		notifier: notifier,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit verification events.
func (h *VerifyEmailHandler) WithActivitySink(sink ActivitySink) *VerifyEmailHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithBaseURL sets the client base URL used to build the set-password link.
func (h *VerifyEmailHandler) WithBaseURL(baseURL string) *VerifyEmailHandler {
	h.baseURL = baseURL
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	user := &User{}
	resp := &VerifyEmailResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	setToken, err := NewLinkToken()
	if err != nil {
		return err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err = h.repo.Users().ConsumeVerificationTokenTx(
			ctx, tx,
			event.Email,
			event.Code,
			setToken,
			TokenExpiry(SetPasswordTokenTTL),
		)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrInvalidOrExpiredToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume verification token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email verification failed")
	}

	setPasswordURL := JoinClientURL(h.baseURL, "/set-password/"+setToken)
	if err := h.notifier.SendWelcomeEmail(ctx, user.Email, user.Name(), setPasswordURL); err != nil {
		h.logger.Error("failed to send welcome email", "error", err, "email", user.Email)
		return err
	}

	h.recordActivity(ctx, user)

	resp.User = user
	resp.SetPasswordToken = setToken
	resp.RequirePasswordSetup = true
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *VerifyEmailHandler) recordActivity(ctx context.Context, user *User) {
	if user == nil {
		return
	}

	event := ActivityEvent{
		EventType: ActivityEventEmailVerified,
		Actor: ActorRef{
			ID:   user.ID.String(),
			Type: "user",
		},
		UserID: user.ID.String(),
		Metadata: map[string]any{
			"email": user.Email,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during email verification: %v", err)
	}
}

// JoinClientURL joins the client base URL and a path without double slashes
func JoinClientURL(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}
