package accounts_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	mockProvider := new(MockIdentityProvider)

	authenticator := accounts.NewAuthenticator(mockProvider, newMockConfig())

	t.Run("successful login", func(t *testing.T) {
		identity := TestIdentity{
			id:            uuid.New().String(),
			email:         "test@example.com",
			role:          "admin",
			emailVerified: true,
		}

		mockProvider.On("VerifyIdentity", ctx, "test@example.com", "password123").
			Return(identity, nil).Once()

		token, err := authenticator.Login(ctx, "test@example.com", "password123")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		parsedToken, err := jwt.ParseWithClaims(token, &accounts.JWTClaims{}, func(t *jwt.Token) (any, error) {
			return []byte("test-signing-key"), nil
		})

		assert.NoError(t, err)
		assert.True(t, parsedToken.Valid)

		claims, ok := parsedToken.Claims.(*accounts.JWTClaims)
		assert.True(t, ok)
		assert.Equal(t, identity.ID(), claims.Subject())
		assert.Equal(t, "test-issuer", claims.RegisteredClaims.Issuer)
		assert.Equal(t, jwt.ClaimStrings{"test:audience"}, claims.RegisteredClaims.Audience)
		assert.NotEmpty(t, claims.RegisteredClaims.ID)
		assert.Equal(t, "admin", claims.UserRole)
		assert.True(t, claims.EmailValidated)
	})

	t.Run("failed login - invalid credentials", func(t *testing.T) {
		mockProvider.On("VerifyIdentity", ctx, "bad@example.com", "wrongpassword").
			Return(nil, accounts.ErrMismatchedHashAndPassword).Once()

		token, err := authenticator.Login(ctx, "bad@example.com", "wrongpassword")

		assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
		assert.Empty(t, token)
	})

	t.Run("failed login - identity not found", func(t *testing.T) {
		mockProvider.On("VerifyIdentity", ctx, "unknown@example.com", "password123").
			Return(nil, accounts.ErrIdentityNotFound).Once()

		token, err := authenticator.Login(ctx, "unknown@example.com", "password123")

		assert.Error(t, err)
		assert.Empty(t, token)
		assert.Contains(t, err.Error(), "identity not found")
	})
}

func TestImpersonate(t *testing.T) {
	ctx := context.Background()
	mockProvider := new(MockIdentityProvider)

	authenticator := accounts.NewAuthenticator(mockProvider, newMockConfig())

	t.Run("signup session carries the unverified flag", func(t *testing.T) {
		identity := TestIdentity{
			id:    uuid.New().String(),
			email: "fresh@example.com",
			role:  "member",
		}

		mockProvider.On("FindIdentityByIdentifier", ctx, "fresh@example.com").
			Return(identity, nil).Once()

		token, err := authenticator.Impersonate(ctx, "fresh@example.com")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := authenticator.TokenService().Validate(token)
		require.NoError(t, err)
		assert.Equal(t, identity.ID(), claims.UserID())
		assert.False(t, claims.EmailVerified())
	})

	t.Run("failed impersonation - identity not found", func(t *testing.T) {
		mockProvider.On("FindIdentityByIdentifier", ctx, "unknown@example.com").
			Return(nil, accounts.ErrIdentityNotFound).Once()

		token, err := authenticator.Impersonate(ctx, "unknown@example.com")

		assert.Error(t, err)
		assert.Empty(t, token)
	})
}

func TestAuthenticatorEmitsActivity(t *testing.T) {
	ctx := context.Background()
	mockProvider := new(MockIdentityProvider)
	sink := new(MockActivitySink)

	authenticator := accounts.NewAuthenticator(mockProvider, newMockConfig()).
		WithActivitySink(sink)

	identity := TestIdentity{
		id:    uuid.New().String(),
		email: "test@example.com",
		role:  "member",
	}

	mockProvider.On("VerifyIdentity", ctx, identity.email, "password123").
		Return(identity, nil).Once()
	mockProvider.On("VerifyIdentity", ctx, identity.email, "wrong").
		Return(nil, accounts.ErrMismatchedHashAndPassword).Once()
	mockProvider.On("FindIdentityByIdentifier", ctx, identity.email).
		Return(identity, nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt accounts.ActivityEvent) bool {
		return evt.EventType == accounts.ActivityEventLoginSuccess &&
			evt.UserID == identity.ID() &&
			evt.Actor.Type == "user"
	})).Return(nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt accounts.ActivityEvent) bool {
		return evt.EventType == accounts.ActivityEventLoginFailure
	})).Return(nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt accounts.ActivityEvent) bool {
		return evt.EventType == accounts.ActivityEventImpersonationSuccess &&
			evt.Actor.Type == "system"
	})).Return(nil).Once()

	_, err := authenticator.Login(ctx, identity.email, "password123")
	require.NoError(t, err)

	_, err = authenticator.Login(ctx, identity.email, "wrong")
	require.Error(t, err)

	_, err = authenticator.Impersonate(ctx, identity.email)
	require.NoError(t, err)

	sink.AssertExpectations(t)
	mockProvider.AssertExpectations(t)
}

func TestIdentityFromSession(t *testing.T) {
	ctx := context.Background()
	mockProvider := new(MockIdentityProvider)

	authenticator := accounts.NewAuthenticator(mockProvider, newMockConfig())

	identity := TestIdentity{
		id:    uuid.New().String(),
		email: "test@example.com",
		role:  "member",
	}

	session := &accounts.SessionObject{UserID: identity.ID()}

	mockProvider.On("FindIdentityByIdentifier", ctx, identity.ID()).
		Return(identity, nil).Once()

	got, err := authenticator.IdentityFromSession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), got.ID())
}
