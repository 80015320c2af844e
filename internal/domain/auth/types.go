package auth

import "time"

// Config carries what the provider needs to authorize this client.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// Token is the result of a successful authorization. It lives only for the
// current run.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	// UserID and Scopes are read from the access token claims when the
	// provider issues a JWT; both may be empty.
	UserID string
	Scopes []string
}

// CallbackParams are the query parameters of the redirect back from the provider.
type CallbackParams struct {
	State string
	Code  string
	Error string
}
