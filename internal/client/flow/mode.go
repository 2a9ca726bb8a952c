// Package flow implements the account-lifecycle state machine: which step
// the user is in, the field values being edited, transient status, and the
// sequencing of validation, gateway calls and transitions.
package flow

// Mode is the active step of the account lifecycle.
type Mode uint8

const (
	ModeLogin Mode = iota
	ModeSignup
	ModeVerify
	ModeResetRequest
	ModeResetConfirm
)

func (m Mode) String() string {
	switch m {
	case ModeLogin:
		return "login"
	case ModeSignup:
		return "signup"
	case ModeVerify:
		return "verify"
	case ModeResetRequest:
		return "reset-request"
	case ModeResetConfirm:
		return "reset-confirm"
	default:
		return "unknown"
	}
}

// Field names, used as keys in the per-field error map.
const (
	FieldIdentifier      = "identifier"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldPasswordConfirm = "passwordConfirm"
	FieldCode            = "code"
	FieldNewPassword     = "newPassword"
)

// Fields is the draft of values the user is currently editing. It is mutated
// field by field and selectively cleared on mode transitions: password-bearing
// fields and the code always, the identifier only when the transition does
// not carry it over.
type Fields struct {
	Identifier      string
	Email           string
	Password        string
	PasswordConfirm string
	Code            string
	NewPassword     string
}

// clearSensitive wipes everything that must not survive a mode transition.
func (f *Fields) clearSensitive() {
	f.Password = ""
	f.PasswordConfirm = ""
	f.NewPassword = ""
	f.Code = ""
}

// pendingContext re-identifies the account mid-flow (verification, reset)
// without forcing the user to retype. The password is only present when the
// verification requirement was discovered during a login attempt.
type pendingContext struct {
	identifier string
	password   string
}

// State is an immutable snapshot of the controller, safe to hand to a
// front end.
type State struct {
	Mode              Mode
	Fields            Fields
	FieldErrors       map[string]string
	Error             string
	Success           string
	Loading           bool
	PendingIdentifier string
}
