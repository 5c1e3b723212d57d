package domain

import "time"

// CredentialPair is what the login and refresh endpoints return: a
// short-lived access credential and a longer-lived refresh credential. Both
// are immutable once issued; the client replaces them wholesale on refresh.
type CredentialPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // seconds until access expiry
}
