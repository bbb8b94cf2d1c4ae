// Package auth provides authentication support for HTTP requests.
//
//go:generate mockgen -destination=./mocks/auth.go . Authenticator
package auth

import "net/http"

// Authenticator defines the interface for applying authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// BasicAuth represents HTTP Basic Authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// HeaderAuth represents authentication via custom HTTP headers.
type HeaderAuth struct {
	Headers map[string]string
}

// BearerAuth represents Bearer token authentication.
type BearerAuth struct {
	Token string
}

// TokenAuth represents the legacy GitHub "token" authorization scheme.
type TokenAuth struct {
	Token string
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	// BasicAuthType represents HTTP Basic Authentication.
	BasicAuthType Type = "basic"
	// HeaderAuthType represents custom header-based authentication.
	HeaderAuthType Type = "header"
	// BearerAuthType represents Bearer token authentication.
	BearerAuthType Type = "bearer"
	// TokenAuthType represents the legacy "token" authorization prefix.
	TokenAuthType Type = "token"
)

// Apply adds Basic Authentication headers to the HTTP request.
func (b BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// Type returns the authentication type (BasicAuthType).
func (b BasicAuth) Type() Type { return BasicAuthType }

// Apply adds custom headers to the HTTP request.
func (h HeaderAuth) Apply(req *http.Request) error {
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}
	return nil
}

// Type returns the authentication type (HeaderAuthType).
func (h HeaderAuth) Type() Type { return HeaderAuthType }

// Apply adds a Bearer token to the Authorization header of the HTTP request.
func (b BearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Type returns the authentication type (BearerAuthType).
func (b BearerAuth) Type() Type { return BearerAuthType }

// Apply adds a legacy token Authorization header to the HTTP request.
func (t TokenAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "token "+t.Token)
	return nil
}

// Type returns the authentication type (TokenAuthType).
func (t TokenAuth) Type() Type { return TokenAuthType }

// GitHubLadder returns the fixed ordered list of authentication schemes tried
// against the GitHub package registry: Bearer, the legacy token prefix, the
// NuGet API key header, then Basic Authentication with each candidate
// username and the token as password. Duplicate usernames are tried once,
// first occurrence wins.
func GitHubLadder(token string, usernames []string) []Authenticator {
	ladder := []Authenticator{
		BearerAuth{Token: token},
		TokenAuth{Token: token},
		HeaderAuth{Headers: map[string]string{"X-NuGet-ApiKey": token}},
	}
	seen := make(map[string]bool, len(usernames))
	for _, username := range usernames {
		if username == "" || seen[username] {
			continue
		}
		seen[username] = true
		ladder = append(ladder, BasicAuth{Username: username, Password: token})
	}
	return ladder
}
