// Package auth implements the identity and session core of EmoTune.
//
// Key Types:
//   - [TokenService] : issues HS256 bearer tokens and checks their persisted revocation state on every call
//   - [ResetAuthority] : one-time password reset codes and the reset state machine
//   - [AccountService] : registration, login, refresh and profile management
//   - [PasswordHasher] : bcrypt hashing with configurable cost
//
// Reset flow states are never taken from the client. [ResetAuthority.State] derives them from the newest
// stored code of a user:
//
//	idle -> code_issued -> code_verified -> completed
//	         \______________\____________-> expired
//
// Expiry is evaluated lazily when a code or token is presented.
package auth
