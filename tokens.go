package accounts

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	// VerificationTokenTTL is the window to redeem a signup verification code
	VerificationTokenTTL = 24 * time.Hour
	// SetPasswordTokenTTL is the window to finish first-time password setup
	SetPasswordTokenTTL = 24 * time.Hour
	// ResetPasswordTokenTTL is the window to redeem a password reset link
	ResetPasswordTokenTTL = time.Hour
)

// linkTokenBytes is the entropy behind hex link tokens, 40 chars on the wire
const linkTokenBytes = 20

// NewVerificationCode generates a 6-digit numeric code from crypto/rand
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate verification code")
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// NewLinkToken generates a hex token for set-password and reset links
func NewLinkToken() (string, error) {
	buf := make([]byte, linkTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate link token")
	}
	return hex.EncodeToString(buf), nil
}

// TokenExpiry returns the expiration timestamp for a TTL anchored at now
func TokenExpiry(ttl time.Duration) time.Time {
	return time.Now().Add(ttl)
}
