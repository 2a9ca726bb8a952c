package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoskres/taleweaver/internal/logging"
)

// fakeCognito captures inputs and returns scripted outputs.
type fakeCognito struct {
	initiateAuthIn  *cognitoidentityprovider.InitiateAuthInput
	initiateAuthOut *cognitoidentityprovider.InitiateAuthOutput
	initiateAuthErr error

	signUpIn  *cognitoidentityprovider.SignUpInput
	signUpErr error

	confirmSignUpIn  *cognitoidentityprovider.ConfirmSignUpInput
	confirmSignUpErr error

	resendIn  *cognitoidentityprovider.ResendConfirmationCodeInput
	resendErr error

	forgotIn  *cognitoidentityprovider.ForgotPasswordInput
	forgotErr error

	confirmForgotIn  *cognitoidentityprovider.ConfirmForgotPasswordInput
	confirmForgotErr error
}

func (f *fakeCognito) InitiateAuth(_ context.Context, in *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	f.initiateAuthIn = in
	return f.initiateAuthOut, f.initiateAuthErr
}

func (f *fakeCognito) SignUp(_ context.Context, in *cognitoidentityprovider.SignUpInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error) {
	f.signUpIn = in
	return &cognitoidentityprovider.SignUpOutput{}, f.signUpErr
}

func (f *fakeCognito) ConfirmSignUp(_ context.Context, in *cognitoidentityprovider.ConfirmSignUpInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error) {
	f.confirmSignUpIn = in
	return &cognitoidentityprovider.ConfirmSignUpOutput{}, f.confirmSignUpErr
}

func (f *fakeCognito) ResendConfirmationCode(_ context.Context, in *cognitoidentityprovider.ResendConfirmationCodeInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ResendConfirmationCodeOutput, error) {
	f.resendIn = in
	return &cognitoidentityprovider.ResendConfirmationCodeOutput{}, f.resendErr
}

func (f *fakeCognito) ForgotPassword(_ context.Context, in *cognitoidentityprovider.ForgotPasswordInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ForgotPasswordOutput, error) {
	f.forgotIn = in
	return &cognitoidentityprovider.ForgotPasswordOutput{}, f.forgotErr
}

func (f *fakeCognito) ConfirmForgotPassword(_ context.Context, in *cognitoidentityprovider.ConfirmForgotPasswordInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error) {
	f.confirmForgotIn = in
	return &cognitoidentityprovider.ConfirmForgotPasswordOutput{}, f.confirmForgotErr
}

func newTestGateway(f *fakeCognito, secret string) *CognitoGateway {
	return &CognitoGateway{
		api:          f,
		clientID:     "client-id",
		clientSecret: secret,
		timeout:      5 * time.Second,
		log:          logging.Discard(),
	}
}

func expectSecretHash(t *testing.T, secret, identifier, clientID string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(identifier + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestAuthenticate_Success(t *testing.T) {
	f := &fakeCognito{
		initiateAuthOut: &cognitoidentityprovider.InitiateAuthOutput{
			AuthenticationResult: &types.AuthenticationResultType{
				AccessToken:  aws.String("access"),
				IdToken:      aws.String("id"),
				RefreshToken: aws.String("refresh"),
				ExpiresIn:    3600,
			},
		},
	}
	g := newTestGateway(f, "")

	sess, err := g.Authenticate(context.Background(), "ann_01", "Strong1!")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "access", sess.AccessToken)
	assert.Equal(t, "refresh", sess.RefreshToken)
	assert.True(t, sess.Valid())

	require.NotNil(t, f.initiateAuthIn)
	assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, f.initiateAuthIn.AuthFlow)
	assert.Equal(t, "ann_01", f.initiateAuthIn.AuthParameters["USERNAME"])
	assert.Equal(t, "Strong1!", f.initiateAuthIn.AuthParameters["PASSWORD"])
	_, hasHash := f.initiateAuthIn.AuthParameters["SECRET_HASH"]
	assert.False(t, hasHash, "no secret configured, no SECRET_HASH")
}

func TestAuthenticate_SecretHash(t *testing.T) {
	f := &fakeCognito{
		initiateAuthOut: &cognitoidentityprovider.InitiateAuthOutput{
			AuthenticationResult: &types.AuthenticationResultType{AccessToken: aws.String("a")},
		},
	}
	g := newTestGateway(f, "sssh")

	_, err := g.Authenticate(context.Background(), "ann_01", "pw")
	require.NoError(t, err)

	want := expectSecretHash(t, "sssh", "ann_01", "client-id")
	assert.Equal(t, want, f.initiateAuthIn.AuthParameters["SECRET_HASH"])
}

func TestAuthenticate_UnsupportedChallenge(t *testing.T) {
	f := &fakeCognito{
		initiateAuthOut: &cognitoidentityprovider.InitiateAuthOutput{
			ChallengeName: types.ChallengeNameTypeSmsMfa,
		},
	}
	g := newTestGateway(f, "")

	_, err := g.Authenticate(context.Background(), "ann_01", "pw")
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "UnsupportedChallenge", failure.Code)
}

func TestAuthenticate_APIErrorBecomesFailure(t *testing.T) {
	f := &fakeCognito{
		initiateAuthErr: &smithy.GenericAPIError{
			Code:    "UserNotConfirmedException",
			Message: "User is not confirmed.",
		},
	}
	g := newTestGateway(f, "")

	_, err := g.Authenticate(context.Background(), "ann_01", "pw")
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "UserNotConfirmedException", failure.Code)
	assert.Equal(t, "User is not confirmed.", failure.Message)

	cond, _ := Classify(err)
	assert.Equal(t, CondUnverifiedAccount, cond)
}

func TestAuthenticate_TransportErrorBecomesFailure(t *testing.T) {
	f := &fakeCognito{initiateAuthErr: errors.New("dial tcp: connection refused")}
	g := newTestGateway(f, "")

	_, err := g.Authenticate(context.Background(), "ann_01", "pw")
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Empty(t, failure.Code)
	assert.Contains(t, failure.Message, "connection refused")
}

func TestRegister_MapsFields(t *testing.T) {
	f := &fakeCognito{}
	g := newTestGateway(f, "sssh")

	err := g.Register(context.Background(), "ann_01", "Strong1!", "ann@example.org")
	require.NoError(t, err)

	require.NotNil(t, f.signUpIn)
	assert.Equal(t, "ann_01", aws.ToString(f.signUpIn.Username))
	assert.Equal(t, "Strong1!", aws.ToString(f.signUpIn.Password))
	require.Len(t, f.signUpIn.UserAttributes, 1)
	assert.Equal(t, "email", aws.ToString(f.signUpIn.UserAttributes[0].Name))
	assert.Equal(t, "ann@example.org", aws.ToString(f.signUpIn.UserAttributes[0].Value))
	assert.Equal(t, expectSecretHash(t, "sssh", "ann_01", "client-id"), aws.ToString(f.signUpIn.SecretHash))
}

func TestConfirmRegistration_MapsFields(t *testing.T) {
	f := &fakeCognito{}
	g := newTestGateway(f, "")

	require.NoError(t, g.ConfirmRegistration(context.Background(), "ann_01", "123456"))
	require.NotNil(t, f.confirmSignUpIn)
	assert.Equal(t, "ann_01", aws.ToString(f.confirmSignUpIn.Username))
	assert.Equal(t, "123456", aws.ToString(f.confirmSignUpIn.ConfirmationCode))
	assert.Nil(t, f.confirmSignUpIn.SecretHash)
}

func TestResendConfirmationCode_MapsFields(t *testing.T) {
	f := &fakeCognito{}
	g := newTestGateway(f, "")

	require.NoError(t, g.ResendConfirmationCode(context.Background(), "ann_01"))
	require.NotNil(t, f.resendIn)
	assert.Equal(t, "ann_01", aws.ToString(f.resendIn.Username))
}

func TestPasswordReset_MapsFields(t *testing.T) {
	f := &fakeCognito{}
	g := newTestGateway(f, "")

	require.NoError(t, g.RequestPasswordReset(context.Background(), "ann_01"))
	require.NotNil(t, f.forgotIn)
	assert.Equal(t, "ann_01", aws.ToString(f.forgotIn.Username))

	require.NoError(t, g.ConfirmPasswordReset(context.Background(), "ann_01", "654321", "NewStrong1!"))
	require.NotNil(t, f.confirmForgotIn)
	assert.Equal(t, "654321", aws.ToString(f.confirmForgotIn.ConfirmationCode))
	assert.Equal(t, "NewStrong1!", aws.ToString(f.confirmForgotIn.Password))
}

func TestConfirmPasswordReset_CodeMismatch(t *testing.T) {
	f := &fakeCognito{
		confirmForgotErr: &smithy.GenericAPIError{
			Code:    "CodeMismatchException",
			Message: "Invalid verification code provided, please try again.",
		},
	}
	g := newTestGateway(f, "")

	err := g.ConfirmPasswordReset(context.Background(), "ann_01", "000000", "NewStrong1!")
	cond, _ := Classify(err)
	assert.Equal(t, CondInvalidOrExpiredCode, cond)
}
