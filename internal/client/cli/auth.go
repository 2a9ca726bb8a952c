package cli

import (
	"context"
	"os"
	"time"

	"github.com/avoskres/taleweaver/internal/client/flow"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login collects credentials and submits the login form. When the authority
// reports the account as unverified, the controller moves the user into the
// verification flow; a hint is printed so they know what to do next.
func (a *App) Login(ctx context.Context) error {
	if a.controller.State().Mode != flow.ModeLogin {
		a.controller.SwitchMode(flow.ModeLogin)
	}

	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}

	a.controller.SetField(flow.FieldIdentifier, userName)
	a.controller.SetField(flow.FieldPassword, password)
	a.controller.Submit(ctx)

	st := a.waitIdle(ctx)
	renderState(st)

	if a.isLoggedIn() {
		printlnFn("Signed in. Type 'tell' to generate a story.")
	} else if st.Mode == flow.ModeVerify {
		printlnFn("Type 'verify' once you have the code.")
	}
	return nil
}

// Signup collects the registration form and submits it. On success the
// controller moves into verification.
func (a *App) Signup(ctx context.Context) error {
	if a.controller.State().Mode != flow.ModeSignup {
		a.controller.SwitchMode(flow.ModeSignup)
	}

	userName, err := getSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter your email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword("Choose a password", os.Stdout)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Repeat the password", os.Stdout)
	if err != nil {
		return err
	}

	a.controller.SetField(flow.FieldIdentifier, userName)
	a.controller.SetField(flow.FieldEmail, email)
	a.controller.SetField(flow.FieldPassword, password)
	a.controller.SetField(flow.FieldPasswordConfirm, confirm)
	a.controller.Submit(ctx)

	st := a.waitIdle(ctx)
	renderState(st)

	if st.Mode == flow.ModeVerify {
		printlnFn("Type 'verify' once you have the code.")
	}
	return nil
}

// Verify submits the emailed confirmation code. The account to confirm comes
// from the pending context when a signup or login left one; otherwise the
// user is asked for the username as well.
func (a *App) Verify(ctx context.Context) error {
	st := a.controller.State()
	if st.Mode != flow.ModeVerify {
		a.controller.SwitchMode(flow.ModeVerify)
		st = a.controller.State()
	}

	if st.PendingIdentifier == "" && st.Fields.Identifier == "" {
		userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
		if err != nil {
			return err
		}
		a.controller.SetField(flow.FieldIdentifier, userName)
	}

	code, err := getSimpleText(a.reader, "Enter the verification code", os.Stdout)
	if err != nil {
		return err
	}
	a.controller.SetField(flow.FieldCode, code)
	a.controller.Submit(ctx)

	renderState(a.waitIdle(ctx))
	return nil
}

// Resend asks for a fresh verification code for the pending account.
func (a *App) Resend(ctx context.Context) error {
	a.controller.Resend(ctx)

	// resend does not use the loading flag; give the result a moment
	select {
	case <-a.changes:
	case <-time.After(a.config.RequestTimeout):
	case <-ctx.Done():
	}
	renderState(a.controller.State())
	return nil
}

// Reset drives the two-phase password reset. The first invocation requests
// a code; once the controller is in the confirmation step, it collects the
// code and the new password in the same sitting.
func (a *App) Reset(ctx context.Context) error {
	st := a.controller.State()
	if st.Mode != flow.ModeResetRequest && st.Mode != flow.ModeResetConfirm {
		a.controller.SwitchMode(flow.ModeResetRequest)
		st = a.controller.State()
	}

	if st.Mode == flow.ModeResetRequest {
		userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
		if err != nil {
			return err
		}
		a.controller.SetField(flow.FieldIdentifier, userName)
		a.controller.Submit(ctx)

		st = a.waitIdle(ctx)
		renderState(st)
		if st.Mode != flow.ModeResetConfirm {
			return nil
		}
	}

	code, err := getSimpleText(a.reader, "Enter the reset code", os.Stdout)
	if err != nil {
		return err
	}
	newPassword, err := getPassword("Choose a new password", os.Stdout)
	if err != nil {
		return err
	}

	a.controller.SetField(flow.FieldCode, code)
	a.controller.SetField(flow.FieldNewPassword, newPassword)
	a.controller.Submit(ctx)

	renderState(a.waitIdle(ctx))
	return nil
}

// Logout drops the in-memory session and returns to the login form.
func (a *App) Logout(ctx context.Context) error {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	a.controller.SwitchMode(flow.ModeLogin)
	printlnFn("Signed out.")
	return nil
}
