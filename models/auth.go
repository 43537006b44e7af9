package models

// TokenPair is the body returned by auth/jwt/create/. The refresh endpoint
// returns the same shape with RefreshToken usually left empty.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

type TokenVerification struct {
	Valid bool `json:"valid"`
}

type HealthStatus struct {
	Status string `json:"status"`
}
