package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claimsParser skips signature verification: the server signed the token and
// the client only needs to read its expiry, not trust it for authorization.
var claimsParser = jwt.NewParser(jwt.WithoutClaimsValidation())

// DecodeClaims parses a JWT's payload without verifying the signature.
// Returns nil on any structural failure - wrong segment count, malformed
// base64, malformed JSON - never an error.
func DecodeClaims(tokenString string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	if _, _, err := claimsParser.ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}

// ExpiryUnixMilli extracts the exp claim as epoch milliseconds. The second
// return is false when the token or its exp claim is unusable.
func ExpiryUnixMilli(tokenString string) (int64, bool) {
	claims := DecodeClaims(tokenString)
	if claims == nil {
		return 0, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, false
	}
	return exp.Time.UnixMilli(), true
}

// isExpired reports whether a token with the given expiry should be treated
// as expired at now, applying the proactive buffer so a request never goes
// out with a token that dies mid-flight.
func isExpired(expiresAt int64, buffer time.Duration, now time.Time) bool {
	return now.UnixMilli() >= expiresAt-buffer.Milliseconds()
}
