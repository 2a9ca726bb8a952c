package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"github.com/avoskres/taleweaver/internal/logging"
)

// cognitoAPI is the slice of the Cognito client this gateway uses.
// Tests substitute a fake.
type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, params *cognitoidentityprovider.ResendConfirmationCodeInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ResendConfirmationCodeOutput, error)
	ForgotPassword(ctx context.Context, params *cognitoidentityprovider.ForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cognitoidentityprovider.ConfirmForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error)
}

// CognitoGateway implements Gateway against an AWS Cognito user pool.
type CognitoGateway struct {
	api          cognitoAPI
	clientID     string
	clientSecret string
	timeout      time.Duration
	log          logging.Logger
}

// NewCognitoGateway builds a gateway for the given user pool app client.
// The user-facing operations it performs are unsigned, so the SDK client is
// configured with anonymous credentials.
func NewCognitoGateway(ctx context.Context, region, clientID, clientSecret string, timeout time.Duration, log logging.Logger) (*CognitoGateway, error) {
	awscfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, err
	}

	return &CognitoGateway{
		api:          cognitoidentityprovider.NewFromConfig(awscfg),
		clientID:     clientID,
		clientSecret: clientSecret,
		timeout:      timeout,
		log:          log.With("component", "cognito"),
	}, nil
}

// secretHash computes base64(HMAC-SHA256(secret, username+clientID)), which
// Cognito requires on every call when the app client has a secret. Returns
// nil when no secret is configured.
func (g *CognitoGateway) secretHash(identifier string) *string {
	if g.clientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(g.clientSecret))
	mac.Write([]byte(identifier + g.clientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func (g *CognitoGateway) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *CognitoGateway) Authenticate(ctx context.Context, identifier, password string) (*Session, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	params := map[string]string{
		"USERNAME": identifier,
		"PASSWORD": password,
	}
	if sh := g.secretHash(identifier); sh != nil {
		params["SECRET_HASH"] = *sh
	}

	out, err := g.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(g.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, g.mapError(ctx, err)
	}

	result := out.AuthenticationResult
	if result == nil {
		// the pool demanded an auth challenge this client does not speak
		return nil, &Failure{
			Code:    "UnsupportedChallenge",
			Message: "authentication requires an unsupported challenge: " + string(out.ChallengeName),
		}
	}

	return NewSession(
		aws.ToString(result.AccessToken),
		aws.ToString(result.IdToken),
		aws.ToString(result.RefreshToken),
		result.ExpiresIn,
	), nil
}

func (g *CognitoGateway) Register(ctx context.Context, identifier, password, email string) error {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	_, err := g.api.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId:   aws.String(g.clientID),
		Username:   aws.String(identifier),
		Password:   aws.String(password),
		SecretHash: g.secretHash(identifier),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return g.mapError(ctx, err)
	}
	return nil
}

func (g *CognitoGateway) ConfirmRegistration(ctx context.Context, identifier, code string) error {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	_, err := g.api.ConfirmSignUp(ctx, &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(g.clientID),
		Username:         aws.String(identifier),
		ConfirmationCode: aws.String(code),
		SecretHash:       g.secretHash(identifier),
	})
	if err != nil {
		return g.mapError(ctx, err)
	}
	return nil
}

func (g *CognitoGateway) ResendConfirmationCode(ctx context.Context, identifier string) error {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	_, err := g.api.ResendConfirmationCode(ctx, &cognitoidentityprovider.ResendConfirmationCodeInput{
		ClientId:   aws.String(g.clientID),
		Username:   aws.String(identifier),
		SecretHash: g.secretHash(identifier),
	})
	if err != nil {
		return g.mapError(ctx, err)
	}
	return nil
}

func (g *CognitoGateway) RequestPasswordReset(ctx context.Context, identifier string) error {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	_, err := g.api.ForgotPassword(ctx, &cognitoidentityprovider.ForgotPasswordInput{
		ClientId:   aws.String(g.clientID),
		Username:   aws.String(identifier),
		SecretHash: g.secretHash(identifier),
	})
	if err != nil {
		return g.mapError(ctx, err)
	}
	return nil
}

func (g *CognitoGateway) ConfirmPasswordReset(ctx context.Context, identifier, code, newPassword string) error {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	_, err := g.api.ConfirmForgotPassword(ctx, &cognitoidentityprovider.ConfirmForgotPasswordInput{
		ClientId:         aws.String(g.clientID),
		Username:         aws.String(identifier),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
		SecretHash:       g.secretHash(identifier),
	})
	if err != nil {
		return g.mapError(ctx, err)
	}
	return nil
}

// mapError converts an SDK error into a *Failure. Provider-reported errors
// keep their code and message; transport errors keep only the message so the
// classifier can still try substring matching.
func (g *CognitoGateway) mapError(ctx context.Context, err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		g.log.Debug(ctx, "identity call failed", "code", ae.ErrorCode(), "message", ae.ErrorMessage())
		return &Failure{Code: ae.ErrorCode(), Message: ae.ErrorMessage()}
	}

	g.log.Warn(ctx, "identity transport error", "error", err)
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Message: "The request timed out. Check your connection and try again."}
	}
	return &Failure{Message: err.Error()}
}
