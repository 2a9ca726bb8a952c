package identity

import (
	"errors"
	"strings"
)

// Condition is a recognized failure category driving flow transitions.
type Condition uint8

const (
	CondUnknown Condition = iota
	CondUnverifiedAccount
	CondDuplicateAccount
	CondInvalidCredentials
	CondInvalidOrExpiredCode
)

func (c Condition) String() string {
	switch c {
	case CondUnverifiedAccount:
		return "unverified_account"
	case CondDuplicateAccount:
		return "duplicate_account"
	case CondInvalidCredentials:
		return "invalid_credentials"
	case CondInvalidOrExpiredCode:
		return "invalid_or_expired_code"
	default:
		return "unknown"
	}
}

// conditionsByCode maps the authority's structured error codes onto
// conditions. Codes are authoritative and win over message matching.
var conditionsByCode = map[string]Condition{
	"UserNotConfirmedException": CondUnverifiedAccount,
	"UsernameExistsException":   CondDuplicateAccount,
	"AliasExistsException":      CondDuplicateAccount,
	"NotAuthorizedException":    CondInvalidCredentials,
	"UserNotFoundException":     CondInvalidCredentials,
	"CodeMismatchException":     CondInvalidOrExpiredCode,
	"ExpiredCodeException":      CondInvalidOrExpiredCode,
}

// messageSubstrings is the fallback for failures that arrive without a code.
// The authority's error contract mixes structured codes with free text
// depending on call type, so both strategies are needed. Matched in order.
var messageSubstrings = []struct {
	substr string
	cond   Condition
}{
	{"not confirmed", CondUnverifiedAccount},
	{"already exists", CondDuplicateAccount},
	{"incorrect username or password", CondInvalidCredentials},
	{"invalid verification code", CondInvalidOrExpiredCode},
	{"invalid code", CondInvalidOrExpiredCode},
	{"expired", CondInvalidOrExpiredCode},
}

// Classify maps a gateway error onto a Condition and a user-facing message.
// Recognized conditions get a canonical message; unmatched failures classify
// as CondUnknown and surface the raw message verbatim.
func Classify(err error) (Condition, string) {
	if err == nil {
		return CondUnknown, ""
	}

	var f *Failure
	if !errors.As(err, &f) {
		return CondUnknown, err.Error()
	}

	cond, ok := conditionsByCode[f.Code]
	if !ok {
		lower := strings.ToLower(f.Message)
		for _, m := range messageSubstrings {
			if strings.Contains(lower, m.substr) {
				cond = m.cond
				break
			}
		}
	}

	switch cond {
	case CondUnverifiedAccount:
		return cond, "This account has not been verified yet."
	case CondDuplicateAccount:
		return cond, "An account with this name already exists."
	case CondInvalidCredentials:
		return cond, "Incorrect username or password."
	case CondInvalidOrExpiredCode:
		return cond, "The code is invalid or has expired. Request a new one."
	default:
		return CondUnknown, f.Message
	}
}
