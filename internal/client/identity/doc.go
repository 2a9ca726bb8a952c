// Package identity is the boundary with the external identity authority.
//
// It exposes the Gateway interface (authenticate, register, confirm
// registration, resend code, request and confirm password reset), the opaque
// Session handle returned on successful authentication, and the classifier
// that maps raw authority failures onto the small set of conditions the flow
// controller reacts to.
//
// The production implementation (CognitoGateway) talks to an AWS Cognito
// user pool; tests substitute fakes behind the Gateway interface.
package identity
