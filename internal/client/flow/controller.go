package flow

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/avoskres/taleweaver/internal/client/identity"
	"github.com/avoskres/taleweaver/internal/logging"
)

// Controller sequences every user action: validation first, then a single
// gateway call, then classification and a state transition. One call may be
// in flight per form; the loading flag single-flights submits. Results of a
// call the user has navigated away from are dropped.
//
// Controller is safe for concurrent use.
type Controller struct {
	mu              sync.Mutex
	gw              identity.Gateway
	log             logging.Logger
	onAuthenticated func(*identity.Session)
	onChange        func(State)

	mode        Mode
	fields      Fields
	fieldErrors map[string]string
	errMsg      string
	okMsg       string
	loading     bool
	pending     *pendingContext
	call        uuid.UUID // token of the in-flight submit; uuid.Nil when idle
}

// New creates a controller in the login mode. onAuthenticated is invoked
// exactly once per successful login with the session handle; the caller owns
// the session from then on. The callback runs while the controller holds its
// lock and must not call back into the controller.
func New(gw identity.Gateway, logger logging.Logger, onAuthenticated func(*identity.Session)) *Controller {
	return &Controller{
		gw:              gw,
		log:             logger.With("component", "flow"),
		onAuthenticated: onAuthenticated,
		mode:            ModeLogin,
		fieldErrors:     map[string]string{},
	}
}

// SetOnChange registers a hook receiving a state snapshot after every
// mutation. Must be called before the controller is shared.
func (c *Controller) SetOnChange(fn func(State)) {
	c.onChange = fn
}

// State returns a snapshot of the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	errs := make(map[string]string, len(c.fieldErrors))
	for k, v := range c.fieldErrors {
		errs[k] = v
	}
	st := State{
		Mode:        c.mode,
		Fields:      c.fields,
		FieldErrors: errs,
		Error:       c.errMsg,
		Success:     c.okMsg,
		Loading:     c.loading,
	}
	if c.pending != nil {
		st.PendingIdentifier = c.pending.identifier
	}
	return st
}

func (c *Controller) notify(st State) {
	if c.onChange != nil {
		c.onChange(st)
	}
}

// SetField updates one draft field. Unknown names are ignored.
func (c *Controller) SetField(name, value string) {
	c.mu.Lock()
	switch name {
	case FieldIdentifier:
		c.fields.Identifier = value
	case FieldEmail:
		c.fields.Email = value
	case FieldPassword:
		c.fields.Password = value
	case FieldPasswordConfirm:
		c.fields.PasswordConfirm = value
	case FieldCode:
		c.fields.Code = value
	case FieldNewPassword:
		c.fields.NewPassword = value
	}
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)
}

// SwitchMode navigates to another mode, clearing all transient status and
// password-bearing fields. The identifier does not survive a manual switch;
// it is carried over only by the automatic transitions into verification.
func (c *Controller) SwitchMode(m Mode) {
	c.mu.Lock()
	c.enterModeLocked(m, false)
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)
}

// enterModeLocked performs the bookkeeping every transition into a new mode
// shares: sensitive fields and transient status are wiped, and any
// outstanding call is invalidated so its result will be dropped.
func (c *Controller) enterModeLocked(m Mode, keepIdentifier bool) {
	c.mode = m
	c.fields.clearSensitive()
	if !keepIdentifier {
		c.fields.Identifier = ""
	}
	c.fieldErrors = map[string]string{}
	c.errMsg = ""
	c.okMsg = ""
	c.loading = false
	c.call = uuid.Nil
}

// Submit runs the current mode's action: validate, then call the gateway.
// A submit while a call is in flight is ignored. Validation failures set
// field-scoped errors and never reach the network.
func (c *Controller) Submit(ctx context.Context) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return
	}

	errs := c.mode.Validate(c.fields)
	if len(errs) > 0 {
		c.fieldErrors = errs
		c.errMsg = ""
		c.okMsg = ""
		st := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(st)
		return
	}

	c.fieldErrors = map[string]string{}
	c.errMsg = ""
	c.okMsg = ""
	c.loading = true
	token := uuid.New()
	c.call = token
	mode := c.mode
	fields := c.fields
	var pendingID string
	if c.pending != nil {
		pendingID = c.pending.identifier
	}
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)

	c.log.Debug(ctx, "submitting", "mode", mode.String(), "identifier", fields.Identifier)
	go c.dispatch(ctx, token, mode, fields, pendingID)
}

func (c *Controller) dispatch(ctx context.Context, token uuid.UUID, mode Mode, f Fields, pendingID string) {
	switch mode {
	case ModeLogin:
		sess, err := c.gw.Authenticate(ctx, f.Identifier, f.Password)
		c.completeLogin(ctx, token, f, sess, err)

	case ModeSignup:
		err := c.gw.Register(ctx, f.Identifier, f.Password, f.Email)
		c.completeSignup(ctx, token, f, err)

	case ModeVerify:
		id := pendingID
		if id == "" {
			id = f.Identifier
		}
		err := c.gw.ConfirmRegistration(ctx, id, f.Code)
		c.completeVerify(ctx, token, err)

	case ModeResetRequest:
		err := c.gw.RequestPasswordReset(ctx, f.Identifier)
		c.completeResetRequest(ctx, token, f.Identifier, err)

	case ModeResetConfirm:
		id := pendingID
		if id == "" {
			id = f.Identifier
		}
		err := c.gw.ConfirmPasswordReset(ctx, id, f.Code, f.NewPassword)
		c.completeResetConfirm(ctx, token, err)
	}
}

// complete applies fn under the lock, but only when the submit that produced
// the result is still current: same token, same mode. Reports whether fn ran.
// This is the relevance guard for every async completion.
func (c *Controller) complete(mode Mode, token uuid.UUID, fn func()) bool {
	c.mu.Lock()
	if c.call != token || c.mode != mode {
		c.mu.Unlock()
		return false
	}
	c.call = uuid.Nil
	c.loading = false
	fn()
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)
	return true
}

func (c *Controller) completeLogin(ctx context.Context, token uuid.UUID, f Fields, sess *identity.Session, err error) {
	if err == nil {
		c.complete(ModeLogin, token, func() {
			c.fields.clearSensitive()
			if c.onAuthenticated != nil {
				c.log.Info(ctx, "authenticated", "identifier", f.Identifier)
				c.onAuthenticated(sess)
			}
		})
		return
	}

	cond, msg := identity.Classify(err)
	if cond == identity.CondUnverifiedAccount {
		c.log.Info(ctx, "account unverified, entering verification", "identifier", f.Identifier)
		applied := c.complete(ModeLogin, token, func() {
			c.pending = &pendingContext{identifier: f.Identifier, password: f.Password}
			c.enterModeLocked(ModeVerify, true)
			c.okMsg = "Your account needs verification. We sent a new code to your email."
		})
		if applied {
			c.resendAsync(ctx, f.Identifier, "")
		}
		return
	}

	c.log.Warn(ctx, "authentication failed", "condition", cond.String())
	c.complete(ModeLogin, token, func() { c.errMsg = msg })
}

func (c *Controller) completeSignup(ctx context.Context, token uuid.UUID, f Fields, err error) {
	if err == nil {
		c.complete(ModeSignup, token, func() {
			c.pending = &pendingContext{identifier: f.Identifier}
			c.enterModeLocked(ModeVerify, true)
			c.okMsg = "Account created. Enter the code we emailed to " + f.Email + "."
		})
		return
	}

	cond, msg := identity.Classify(err)
	if cond == identity.CondDuplicateAccount {
		// The name may be taken by an account that never finished
		// verification; push the user into that flow instead of
		// dead-ending the signup.
		c.log.Info(ctx, "duplicate account on signup, entering verification", "identifier", f.Identifier)
		applied := c.complete(ModeSignup, token, func() {
			c.pending = &pendingContext{identifier: f.Identifier}
			c.enterModeLocked(ModeVerify, true)
			c.okMsg = "This account already exists. If it was never verified, enter the code we just sent."
		})
		if applied {
			c.resendAsync(ctx, f.Identifier, "")
		}
		return
	}

	c.log.Warn(ctx, "registration failed", "condition", cond.String())
	c.complete(ModeSignup, token, func() { c.errMsg = msg })
}

func (c *Controller) completeVerify(ctx context.Context, token uuid.UUID, err error) {
	if err == nil {
		c.log.Info(ctx, "verification confirmed")
		c.complete(ModeVerify, token, func() {
			c.pending = nil
			c.enterModeLocked(ModeLogin, false)
			c.okMsg = "Verification complete. You can sign in now."
		})
		return
	}

	_, msg := identity.Classify(err)
	c.complete(ModeVerify, token, func() { c.errMsg = msg })
}

func (c *Controller) completeResetRequest(ctx context.Context, token uuid.UUID, identifier string, err error) {
	if err == nil {
		c.log.Info(ctx, "password reset requested", "identifier", identifier)
		c.complete(ModeResetRequest, token, func() {
			c.pending = &pendingContext{identifier: identifier}
			c.enterModeLocked(ModeResetConfirm, true)
			c.okMsg = "We emailed you a reset code."
		})
		return
	}

	_, msg := identity.Classify(err)
	c.complete(ModeResetRequest, token, func() { c.errMsg = msg })
}

func (c *Controller) completeResetConfirm(ctx context.Context, token uuid.UUID, err error) {
	if err == nil {
		c.log.Info(ctx, "password reset confirmed")
		c.complete(ModeResetConfirm, token, func() {
			c.pending = nil
			c.enterModeLocked(ModeLogin, false)
			c.okMsg = "Password updated. Sign in with your new password."
		})
		return
	}

	_, msg := identity.Classify(err)
	c.complete(ModeResetConfirm, token, func() { c.errMsg = msg })
}

// Resend asks for a fresh verification code for the pending account.
// Only valid in the verify mode with a pending identifier.
func (c *Controller) Resend(ctx context.Context) {
	c.mu.Lock()
	if c.mode != ModeVerify || c.pending == nil {
		c.errMsg = "Nothing to resend. Sign up or log in first."
		c.okMsg = ""
		st := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(st)
		return
	}
	id := c.pending.identifier
	c.mu.Unlock()

	c.resendAsync(ctx, id, "A new code has been sent to your email.")
}

// resendAsync issues a fire-and-forget code resend. Only transient status is
// touched when the result arrives, and only while the user is still
// verifying the same account. An empty successMsg keeps whatever guidance is
// already showing.
func (c *Controller) resendAsync(ctx context.Context, identifier, successMsg string) {
	go func() {
		err := c.gw.ResendConfirmationCode(ctx, identifier)

		c.mu.Lock()
		if c.mode != ModeVerify || c.pending == nil || c.pending.identifier != identifier {
			c.mu.Unlock()
			return
		}
		if err != nil {
			_, msg := identity.Classify(err)
			c.errMsg = msg
			c.okMsg = ""
		} else if successMsg != "" {
			c.okMsg = successMsg
			c.errMsg = ""
		}
		st := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(st)
	}()
}
