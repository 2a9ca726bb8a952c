package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the opaque capability returned by a successful authentication.
// The caller owns it once handed off; this subsystem only ever checks its
// validity and reads display claims.
type Session struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// NewSession builds a Session from raw tokens. expiresIn is the authority's
// reported lifetime in seconds; when zero, the expiry is taken from the
// access token's exp claim instead.
func NewSession(accessToken, idToken, refreshToken string, expiresIn int32) *Session {
	s := &Session{
		AccessToken:  accessToken,
		IDToken:      idToken,
		RefreshToken: refreshToken,
	}
	if expiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	} else if exp, err := tokenExpiry(accessToken); err == nil {
		s.ExpiresAt = exp
	}
	return s
}

// Valid reports whether the session carries an access token that has not
// expired yet. A session without a known expiry is treated as valid; the
// backend is the final judge anyway.
func (s *Session) Valid() bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	if s.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Before(s.ExpiresAt)
}

// Username returns the account name baked into the tokens, or an empty
// string if no token carries one.
func (s *Session) Username() string {
	if s == nil {
		return ""
	}
	for _, tok := range []string{s.AccessToken, s.IDToken} {
		claims, err := peekClaims(tok)
		if err != nil {
			continue
		}
		for _, key := range []string{"username", "cognito:username"} {
			if v, ok := claims[key].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}

// peekClaims decodes a JWT payload without verifying the signature. The
// client is not the token's audience-side verifier; claims are read for
// display and expiry bookkeeping only.
func peekClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func tokenExpiry(token string) (time.Time, error) {
	claims, err := peekClaims(token)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, jwt.ErrTokenInvalidClaims
	}
	return exp.Time, nil
}
