package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type SetPasswordMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	Token      string `json:"token" example:"a3f1..." doc:"Set password token from the welcome email."`
	Password   string `json:"password" example:"some_secret_word" doc:"First password."`
	OnResponse func(resp *SetPasswordResponse)
}

func (p SetPasswordMessage) Type() string { return "account.set_password" }

type SetPasswordResponse struct {
	User    *User
	Success bool
}

// SetPasswordHandler finishes first-time password setup using the token the
// welcome email carried. It shares the one-shot consume semantics with the
// reset flow but works off the set_password slot.
type SetPasswordHandler struct {
	repo     RepositoryManager
	notifier Notifier
	activity ActivitySink
	logger   Logger
}

// NewSetPasswordHandler creates a handler with sane defaults.
func NewSetPasswordHandler(repo RepositoryManager, notifier Notifier) *SetPasswordHandler {
	return &SetPasswordHandler{
		repo:     repo,
		notifier: notifier,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit password setup events.
func (h *SetPasswordHandler) WithActivitySink(sink ActivitySink) *SetPasswordHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *SetPasswordHandler) WithLogger(logger Logger) *SetPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SetPasswordHandler) Execute(ctx context.Context, event SetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password setup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SetPasswordHandler) execute(ctx context.Context, event SetPasswordMessage) error {
	user := &User{}
	resp := &SetPasswordResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	passwordHash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err = h.repo.Users().ConsumeSetPasswordTokenTx(ctx, tx, event.Email, event.Token, passwordHash)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrInvalidOrExpiredToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume set password token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set password")
	}

	if err := h.notifier.SendPasswordSetSuccessEmail(ctx, user.Email); err != nil {
		h.logger.Error("failed to send password set success email", "error", err, "email", user.Email)
		return err
	}

	h.recordActivity(ctx, user)

	resp.User = user
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *SetPasswordHandler) recordActivity(ctx context.Context, user *User) {
	if user == nil {
		return
	}

	event := ActivityEvent{
		EventType: ActivityEventPasswordSetSuccess,
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
		h.logger.Warn("activity sink error during password setup: %v", err)
	}
}
