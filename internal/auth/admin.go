package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Authenticator checks the single configured admin account and mints sessions for it.
type Authenticator struct {
	email        string
	passwordHash string
	tokens       *TokenService
}

func NewAuthenticator(email, passwordHash string, tokens *TokenService) *Authenticator {
	return &Authenticator{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		tokens:       tokens,
	}
}

func (a *Authenticator) Tokens() *TokenService {
	return a.tokens
}

// Email is the normalized admin address.
func (a *Authenticator) Email() string {
	return a.email
}

// Login returns a new session when email and password match the admin account.
func (a *Authenticator) Login(email, password string) (TokenPair, error) {
	given := strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(given), []byte(a.email)) == 1
	// Always run bcrypt so a wrong email costs as much as a wrong password.
	passwordOK := CheckPassword(password, a.passwordHash)
	if !emailOK || !passwordOK || a.email == "" {
		return TokenPair{}, ErrInvalidCredentials
	}
	return a.tokens.Issue(a.email)
}

// Refresh exchanges a valid refresh token for a new pair.
func (a *Authenticator) Refresh(refreshToken string) (TokenPair, error) {
	claims, err := a.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.Email != a.email {
		return TokenPair{}, ErrInvalidToken
	}
	return a.tokens.Issue(a.email)
}

// Verify resolves an access token to its claims.
func (a *Authenticator) Verify(accessToken string) (*Claims, error) {
	claims, err := a.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.Email != a.email {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
