package accounts_test

import (
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFromToken(t *testing.T) {
	mockProvider := new(MockIdentityProvider)
	authenticator := accounts.NewAuthenticator(mockProvider, newMockConfig())

	identity := TestIdentity{
		id:            uuid.New().String(),
		email:         "test@example.com",
		role:          "admin",
		emailVerified: true,
	}

	token, err := authenticator.TokenService().Generate(identity)
	require.NoError(t, err)

	session, err := authenticator.SessionFromToken(token)
	require.NoError(t, err)

	assert.Equal(t, identity.ID(), session.GetUserID())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, []string{"test:audience"}, session.GetAudience())
	require.NotNil(t, session.GetIssuedAt())

	uid, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), uid.String())

	data := session.GetData()
	assert.Equal(t, "admin", data["role"])
	assert.Equal(t, true, data["email_verified"])
}

func TestSessionFromTokenRejectsGarbage(t *testing.T) {
	mockProvider := new(MockIdentityProvider)
	authenticator := accounts.NewAuthenticator(mockProvider, newMockConfig())

	_, err := authenticator.SessionFromToken("garbage")
	assert.Error(t, err)
}

func TestSessionObjectAccessors(t *testing.T) {
	t.Run("email verified flag", func(t *testing.T) {
		session := &accounts.SessionObject{
			Data: map[string]any{"email_verified": true},
		}
		assert.True(t, session.EmailVerified())

		session.Data["email_verified"] = false
		assert.False(t, session.EmailVerified())

		empty := &accounts.SessionObject{}
		assert.False(t, empty.EmailVerified())
	})

	t.Run("role defaults to guest", func(t *testing.T) {
		session := &accounts.SessionObject{
			Data: map[string]any{"role": "admin"},
		}
		assert.Equal(t, accounts.RoleAdmin, session.Role())

		session.Data["role"] = "not-a-role"
		assert.Equal(t, accounts.RoleGuest, session.Role())

		empty := &accounts.SessionObject{}
		assert.Equal(t, accounts.RoleGuest, empty.Role())
	})
}
