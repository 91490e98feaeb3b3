package token

import "encoding/json"

// Bundle is the access/refresh token pair persisted as a unit. The manager
// is its sole writer. ExpiresAt is epoch milliseconds and must always
// reflect the access token's real exp claim, never a locally guessed value.
type Bundle struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	TokenType    string `json:"tokenType"`
}

func encodeBundle(b *Bundle) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeBundle parses a persisted bundle. Partial state - any required field
// missing - is treated as absent, never as a crash.
func decodeBundle(raw string) *Bundle {
	var b Bundle
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil
	}
	if b.AccessToken == "" || b.RefreshToken == "" || b.ExpiresAt <= 0 {
		return nil
	}
	if b.TokenType == "" {
		b.TokenType = "Bearer"
	}
	return &b
}
