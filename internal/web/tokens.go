package web

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/synaptic-sound/backend/internal/crypto"
	"github.com/synaptic-sound/backend/internal/db"
)

const (
	// refreshSkew is how close to expiry a cached access token is still
	// considered fresh.
	refreshSkew = 5 * time.Minute

	// defaultTokenTTL applies when the provider omits expires_in.
	defaultTokenTTL = time.Hour
)

// tokenRefresher is the slice of the provider gateway the manager needs.
type tokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// TokenManager ensures a valid provider access token is available before any
// outbound provider call, refreshing and persisting it when needed.
//
// It mutates stored state even though it sits on read paths: every call may
// write a new access token, expiry, and refresh token. Two concurrent
// requests for the same user may both refresh; last write wins, which is
// fine because a superseded token is still valid at the provider.
type TokenManager struct {
	users    UserStore
	provider tokenRefresher
	cipher   *crypto.Cipher
	log      *log.Logger
}

// EnsureFreshAccessToken returns a usable access token for the user, or ""
// when none can be obtained (no refresh token, or the provider rejected the
// refresh). The only error case is a refresh token that fails decryption,
// which callers must treat as a hard failure.
func (m *TokenManager) EnsureFreshAccessToken(ctx context.Context, user *db.User) (string, error) {
	if user.AccessToken != nil && user.TokenExpiresAt != nil &&
		time.Until(*user.TokenExpiresAt) > refreshSkew {
		return *user.AccessToken, nil
	}

	if user.RefreshTokenEnc == nil {
		return "", nil
	}
	refreshToken, err := m.cipher.Decrypt(*user.RefreshTokenEnc)
	if err != nil {
		return "", err
	}

	token, err := m.provider.Refresh(ctx, refreshToken)
	if err != nil {
		m.log.Warn("token refresh failed", "user", user.SpotifyID, "err", err)
		return "", nil
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(defaultTokenTTL)
	}

	// Re-encrypt only when the provider rotated the refresh token.
	var newRefreshEnc *string
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		enc, err := m.cipher.Encrypt(token.RefreshToken)
		if err != nil {
			return "", err
		}
		newRefreshEnc = &enc
	}

	if err := m.users.UpdateTokens(ctx, user.SpotifyID, token.AccessToken, newRefreshEnc, expiresAt); err != nil {
		m.log.Error("persisting refreshed token failed", "user", user.SpotifyID, "err", err)
		return "", nil
	}

	user.AccessToken = &token.AccessToken
	user.TokenExpiresAt = &expiresAt
	if newRefreshEnc != nil {
		user.RefreshTokenEnc = newRefreshEnc
	}

	return token.AccessToken, nil
}
