package flow

import "strings"

// Validation is pure and synchronous: no network, no shared state. It runs
// before every submit and gates the rest of the pipeline.

// passwordPunct is the punctuation set a password must draw from.
const passwordPunct = "!@#$%^&*()_+-=[]{}|;:'\",.<>?/`~\\"

// ValidUsername reports whether s is an acceptable account name: at least
// three characters, restricted to letters, digits and underscore.
func ValidUsername(s string) bool {
	if len(s) < 3 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// ValidEmail reports whether s looks like an email address: a single '@'
// with a non-empty local part and a non-empty domain containing a dot.
func ValidEmail(s string) bool {
	if strings.Count(s, "@") != 1 {
		return false
	}
	at := strings.Index(s, "@")
	local, domain := s[:at], s[at+1:]
	if local == "" || domain == "" {
		return false
	}
	return strings.Contains(domain, ".")
}

// ValidPassword reports whether s satisfies the password policy: at least
// eight characters with at least one lowercase letter, one uppercase letter,
// one digit and one punctuation character from passwordPunct.
func ValidPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var lower, upper, digit, punct bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordPunct, r):
			punct = true
		}
	}
	return lower && upper && digit && punct
}

const (
	msgIdentifierRequired = "Enter your username."
	msgIdentifierInvalid  = "Username must be at least 3 characters: letters, digits and underscore only."
	msgEmailInvalid       = "Enter a valid email address."
	msgPasswordRequired   = "Enter your password."
	msgPasswordPolicy     = "Password must be at least 8 characters with an uppercase letter, a lowercase letter, a digit and a punctuation mark."
	msgPasswordMismatch   = "Passwords do not match."
	msgCodeRequired       = "Enter the verification code."
)

// Validate applies the rule set for mode m and returns a field name to
// message mapping for every failing field. An empty map means the form is
// valid.
func (m Mode) Validate(f Fields) map[string]string {
	errs := map[string]string{}

	switch m {
	case ModeLogin:
		if f.Identifier == "" {
			errs[FieldIdentifier] = msgIdentifierRequired
		}
		if f.Password == "" {
			errs[FieldPassword] = msgPasswordRequired
		}

	case ModeSignup:
		if !ValidUsername(f.Identifier) {
			errs[FieldIdentifier] = msgIdentifierInvalid
		}
		if !ValidEmail(f.Email) {
			errs[FieldEmail] = msgEmailInvalid
		}
		if !ValidPassword(f.Password) {
			errs[FieldPassword] = msgPasswordPolicy
		} else if f.Password != f.PasswordConfirm {
			errs[FieldPasswordConfirm] = msgPasswordMismatch
		}

	case ModeVerify:
		if f.Code == "" {
			errs[FieldCode] = msgCodeRequired
		}

	case ModeResetRequest:
		if !ValidUsername(f.Identifier) {
			errs[FieldIdentifier] = msgIdentifierInvalid
		}

	case ModeResetConfirm:
		if f.Code == "" {
			errs[FieldCode] = msgCodeRequired
		}
		if !ValidPassword(f.NewPassword) {
			errs[FieldNewPassword] = msgPasswordPolicy
		}
	}

	return errs
}
