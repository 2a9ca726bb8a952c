package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_ByCode(t *testing.T) {
	tests := []struct {
		code string
		want Condition
	}{
		{"UserNotConfirmedException", CondUnverifiedAccount},
		{"UsernameExistsException", CondDuplicateAccount},
		{"AliasExistsException", CondDuplicateAccount},
		{"NotAuthorizedException", CondInvalidCredentials},
		{"UserNotFoundException", CondInvalidCredentials},
		{"CodeMismatchException", CondInvalidOrExpiredCode},
		{"ExpiredCodeException", CondInvalidOrExpiredCode},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			cond, msg := Classify(&Failure{Code: tc.code, Message: "raw provider text"})
			assert.Equal(t, tc.want, cond)
			assert.NotEmpty(t, msg)
			assert.NotEqual(t, "raw provider text", msg, "recognized conditions get a canonical message")
		})
	}
}

func TestClassify_ByMessageFallback(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Condition
	}{
		{"unverified", "User is NOT Confirmed.", CondUnverifiedAccount},
		{"duplicate", "An account with the given email already exists", CondDuplicateAccount},
		{"bad credentials", "Incorrect username or password.", CondInvalidCredentials},
		{"bad code", "Invalid verification code provided, please try again.", CondInvalidOrExpiredCode},
		{"expired code", "Code has EXPIRED", CondInvalidOrExpiredCode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cond, _ := Classify(&Failure{Message: tc.message})
			assert.Equal(t, tc.want, cond)
		})
	}
}

func TestClassify_CodeWinsOverMessage(t *testing.T) {
	// the structured code is authoritative even when the message would
	// match a different substring
	cond, _ := Classify(&Failure{
		Code:    "UserNotConfirmedException",
		Message: "account already exists",
	})
	assert.Equal(t, CondUnverifiedAccount, cond)
}

func TestClassify_UnknownSurfacesRawMessage(t *testing.T) {
	cond, msg := Classify(&Failure{Code: "TooManyRequestsException", Message: "Attempt limit exceeded"})
	assert.Equal(t, CondUnknown, cond)
	assert.Equal(t, "Attempt limit exceeded", msg)
}

func TestClassify_PlainError(t *testing.T) {
	cond, msg := Classify(errors.New("connection refused"))
	assert.Equal(t, CondUnknown, cond)
	assert.Equal(t, "connection refused", msg)
}

func TestClassify_Nil(t *testing.T) {
	cond, msg := Classify(nil)
	assert.Equal(t, CondUnknown, cond)
	assert.Empty(t, msg)
}
