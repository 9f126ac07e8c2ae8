// Package accounts provides an email-first account backend: signup with
// email verification, one-time token lifecycles for first-time password
// setup and password resets, and JWT cookie sessions.
//
// Token lifecycle:
//   - Users carry three single-use token slots persisted via Bun: a 6-digit
//     verification code issued at signup, a set-password token installed when
//     verification succeeds, and a reset-password token issued on demand.
//     Issuing overwrites the slot; consumption is a single conditional UPDATE
//     that matches email, token, and expiry in one statement, so a token can
//     never be redeemed twice.
//
// Commands:
//   - Signup, VerifyEmail, InitializePasswordReset, FinalizePasswordReset,
//     and SetPassword handlers run inside RunInTx and report results through
//     OnResponse callbacks. Transactional email delivery happens through the
//     Notifier interface so tests can assert on outbound messages.
//
// Sessions:
//   - TokenService signs HS256 JWTs whose claims carry the user id, role,
//     and email verification state. RouteAuthenticator stores the token in a
//     secure HttpOnly cookie and the jwtware middleware gates protected
//     routes by validating it.
package accounts
