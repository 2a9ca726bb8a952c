package identity

import (
	"context"
	"fmt"
)

// Gateway defines the operations of the external identity authority.
//
// Contract:
//   - Every operation is single-attempt; no internal retries.
//   - Failed calls return a *Failure whenever the authority reported the
//     error itself; transport-level errors are wrapped into a *Failure with
//     an empty code so the message can still be classified.
//   - Implementations must not be called twice concurrently for the same
//     identifier; the flow controller serializes submits per form.
//   - All methods must honor context cancellation/timeouts.
type Gateway interface {
	// Authenticate checks the credentials and returns a session on success.
	Authenticate(ctx context.Context, identifier, password string) (*Session, error)

	// Register creates an account pending email verification.
	Register(ctx context.Context, identifier, password, email string) error

	// ConfirmRegistration submits the emailed code; on success the account
	// becomes usable for Authenticate.
	ConfirmRegistration(ctx context.Context, identifier, code string) error

	// ResendConfirmationCode asks the authority to email a fresh code.
	ResendConfirmationCode(ctx context.Context, identifier string) error

	// RequestPasswordReset triggers out-of-band delivery of a reset code.
	RequestPasswordReset(ctx context.Context, identifier string) error

	// ConfirmPasswordReset sets a new password using the emailed reset code.
	ConfirmPasswordReset(ctx context.Context, identifier, code, newPassword string) error
}

// Failure is a raw failure descriptor reported by the identity authority.
// Code is the provider error code (e.g. "UserNotConfirmedException") and may
// be empty for transport errors; Message is free text.
type Failure struct {
	Code    string
	Message string
}

func (f *Failure) Error() string {
	if f.Code == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}
