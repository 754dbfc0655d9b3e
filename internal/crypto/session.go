package crypto

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer      = "synaptic-sound-api"
	subjectType = "session"
)

// DefaultSessionTTL matches the session cookie lifetime.
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionTokens issues and verifies HMAC-signed session tokens binding a
// Spotify identity to this service's session cookie.
type SessionTokens struct {
	secret []byte
}

// NewSessionTokens creates a SessionTokens signer from the shared secret.
func NewSessionTokens(secret string) *SessionTokens {
	return &SessionTokens{secret: []byte(secret)}
}

type sessionClaims struct {
	SpotifyID string `json:"spotify_id"`
	jwt.RegisteredClaims
}

// Issue produces a signed, time-bounded session token for the given user.
func (s *SessionTokens) Issue(spotifyID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		SpotifyID: spotifyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subjectType,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the signature and claims of a session token and returns the
// embedded Spotify ID. Invalid tokens of any kind return ok=false; callers
// never see an error.
func (s *SessionTokens) Verify(token string) (string, bool) {
	claims := new(sessionClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(subjectType),
	)
	if err != nil || !parsed.Valid {
		return "", false
	}
	if claims.IssuedAt == nil || claims.SpotifyID == "" {
		return "", false
	}
	return claims.SpotifyID, true
}
