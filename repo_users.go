package accounts

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// IssueVerificationTokenSQL overwrites the verification slot for a user.
var IssueVerificationTokenSQL = `UPDATE "users" AS "usr"
SET
	"verification_token" = ?,
	"verification_expires_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// IssueResetPasswordTokenSQL overwrites the reset slot for a user.
var IssueResetPasswordTokenSQL = `UPDATE "users" AS "usr"
SET
	"reset_password_token" = ?,
	"reset_password_expires_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// ConsumeVerificationTokenSQL redeems a verification code in one statement:
// it matches email, code, and expiry, flips is_email_verified, clears the
// verification slot, and installs the set-password token. Zero rows back
// means the code was wrong, expired, or already used.
var ConsumeVerificationTokenSQL = `UPDATE "users" AS "usr"
SET
	"is_email_verified" = TRUE,
	"verification_token" = NULL,
	"verification_expires_at" = NULL,
	"set_password_token" = ?,
	"set_password_expires_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."email" = ?
AND "usr"."verification_token" = ?
AND "usr"."verification_expires_at" > ?
RETURNING *;`

// ConsumeSetPasswordTokenSQL redeems a set-password token and writes the
// first password hash in the same conditional update.
var ConsumeSetPasswordTokenSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"set_password_token" = NULL,
	"set_password_expires_at" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."email" = ?
AND "usr"."set_password_token" = ?
AND "usr"."set_password_expires_at" > ?
RETURNING *;`

// ConsumeResetPasswordTokenSQL redeems a reset token and replaces the
// password hash in the same conditional update.
var ConsumeResetPasswordTokenSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"reset_password_token" = NULL,
	"reset_password_expires_at" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."email" = ?
AND "usr"."reset_password_token" = ?
AND "usr"."reset_password_expires_at" > ?
RETURNING *;`

// Users is the store surface the account flows depend on. Command handlers
// and the identity provider only see this interface, the concrete type
// below layers it over repository.Repository[*User].
type Users interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error

	IssueVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiresAt time.Time) (*User, error)
	IssueResetPasswordTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiresAt time.Time) (*User, error)

	ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, email, code, setPasswordToken string, setPasswordExpiresAt time.Time) (*User, error)
	ConsumeSetPasswordTokenTx(ctx context.Context, tx bun.IDB, email, token, passwordHash string) (*User, error)
	ConsumeResetPasswordTokenTx(ctx context.Context, tx bun.IDB, email, token, passwordHash string) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByID(ctx context.Context, id string) (*User, error) {
	return a.Repository.GetByID(ctx, id)
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error) {
	options := resolveUserIdentifier(identifier)

	for _, opt := range options {
		record := &User{}
		err := tx.NewSelect().
			Model(record).
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	// NOTE: Updating using the ORM fails due to a bug, it wont reset
	// login_attempt_at, login_attempts fields.
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(user.ID.String()),
	}

	record := &User{}
	record.ID = user.ID
	record.LoginAttempts = user.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.UpdateTx(ctx, tx, record, criteria...)

	return err
}

func (a *users) IssueVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiresAt time.Time) (*User, error) {
	return a.issueTokenTx(ctx, tx, IssueVerificationTokenSQL, id, token, expiresAt)
}

func (a *users) IssueResetPasswordTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiresAt time.Time) (*User, error) {
	return a.issueTokenTx(ctx, tx, IssueResetPasswordTokenSQL, id, token, expiresAt)
}

func (a *users) issueTokenTx(ctx context.Context, tx bun.IDB, sql string, id uuid.UUID, token string, expiresAt time.Time) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, sql, token, expiresAt, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *users) ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, email, code, setPasswordToken string, setPasswordExpiresAt time.Time) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, ConsumeVerificationTokenSQL,
		setPasswordToken,
		setPasswordExpiresAt,
		email,
		code,
		time.Now(),
	)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"email": email,
			})
	}

	return res[0], nil
}

func (a *users) ConsumeSetPasswordTokenTx(ctx context.Context, tx bun.IDB, email, token, passwordHash string) (*User, error) {
	return a.consumePasswordTokenTx(ctx, tx, ConsumeSetPasswordTokenSQL, email, token, passwordHash)
}

func (a *users) ConsumeResetPasswordTokenTx(ctx context.Context, tx bun.IDB, email, token, passwordHash string) (*User, error) {
	return a.consumePasswordTokenTx(ctx, tx, ConsumeResetPasswordTokenSQL, email, token, passwordHash)
}

func (a *users) consumePasswordTokenTx(ctx context.Context, tx bun.IDB, sql, email, token, passwordHash string) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, sql, passwordHash, email, token, time.Now())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"email": email,
			})
	}

	return res[0], nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleMember
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 2)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	if len(options) == 0 {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
