package web

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/synaptic-sound/backend/internal/crypto"
)

func TestEnsureFreshAccessToken_CachedFresh(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "user-1", true)
	expiry := time.Now().Add(10 * time.Minute)
	user.TokenExpiresAt = &expiry

	token, err := env.server.tokens.EnsureFreshAccessToken(context.Background(), user)
	if err != nil {
		t.Fatalf("EnsureFreshAccessToken() error = %v", err)
	}
	if token != "cached-access-token" {
		t.Errorf("token = %q, want cached-access-token", token)
	}
	if env.provider.refreshCalls != 0 {
		t.Errorf("refresh calls = %d, want 0", env.provider.refreshCalls)
	}
	if env.users.updateTokenCalls != 0 {
		t.Errorf("UpdateTokens calls = %d, want 0", env.users.updateTokenCalls)
	}
}

func TestEnsureFreshAccessToken_NearExpiryRefreshes(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "user-1", true)
	expiry := time.Now().Add(time.Minute)
	user.TokenExpiresAt = &expiry
	env.users.users["user-1"].TokenExpiresAt = &expiry

	env.provider.refreshFn = func(refreshToken string) (*oauth2.Token, error) {
		if refreshToken != "stored-refresh-token" {
			t.Errorf("refresh got token %q, want stored-refresh-token", refreshToken)
		}
		return &oauth2.Token{
			AccessToken: "new-access-token",
			Expiry:      time.Now().Add(time.Hour),
		}, nil
	}

	token, err := env.server.tokens.EnsureFreshAccessToken(context.Background(), user)
	if err != nil {
		t.Fatalf("EnsureFreshAccessToken() error = %v", err)
	}
	if token != "new-access-token" {
		t.Errorf("token = %q, want new-access-token", token)
	}
	if env.provider.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", env.provider.refreshCalls)
	}
	if env.users.updateTokenCalls != 1 {
		t.Errorf("UpdateTokens calls = %d, want 1", env.users.updateTokenCalls)
	}
	// Provider did not rotate the refresh token, so it stays untouched.
	if env.users.lastRefreshEnc != nil {
		t.Error("refresh token was rewritten without rotation")
	}
	if user.AccessToken == nil || *user.AccessToken != "new-access-token" {
		t.Error("user struct was not updated with the new access token")
	}
}

func TestEnsureFreshAccessToken_RotatedRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "user-1", true)
	user.TokenExpiresAt = nil

	env.provider.refreshFn = func(string) (*oauth2.Token, error) {
		return &oauth2.Token{
			AccessToken:  "new-access-token",
			RefreshToken: "rotated-refresh-token",
			Expiry:       time.Now().Add(time.Hour),
		}, nil
	}

	if _, err := env.server.tokens.EnsureFreshAccessToken(context.Background(), user); err != nil {
		t.Fatalf("EnsureFreshAccessToken() error = %v", err)
	}

	if env.users.lastRefreshEnc == nil {
		t.Fatal("rotated refresh token was not persisted")
	}
	plain, err := env.cipher.Decrypt(*env.users.lastRefreshEnc)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if plain != "rotated-refresh-token" {
		t.Errorf("persisted refresh token = %q, want rotated-refresh-token", plain)
	}
}

func TestEnsureFreshAccessToken_NoRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "user-1", true)
	user.AccessToken = nil
	user.TokenExpiresAt = nil
	user.RefreshTokenEnc = nil

	token, err := env.server.tokens.EnsureFreshAccessToken(context.Background(), user)
	if err != nil {
		t.Fatalf("EnsureFreshAccessToken() error = %v", err)
	}
	if token != "" {
		t.Errorf("token = %q, want empty", token)
	}
	if env.provider.refreshCalls != 0 {
		t.Errorf("refresh calls = %d, want 0", env.provider.refreshCalls)
	}
}

func TestEnsureFreshAccessToken_RefreshFailure(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "user-1", true)
	user.TokenExpiresAt = nil

	env.provider.refreshFn = func(string) (*oauth2.Token, error) {
		return nil, errors.New("invalid_grant")
	}

	token, err := env.server.tokens.EnsureFreshAccessToken(context.Background(), user)
	if err != nil {
		t.Fatalf("EnsureFreshAccessToken() error = %v, want nil on refresh failure", err)
	}
	if token != "" {
		t.Errorf("token = %q, want empty on refresh failure", token)
	}
}

func TestEnsureFreshAccessToken_CorruptedRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "user-1", true)
	user.TokenExpiresAt = nil
	corrupted := "bm90LXZhbGlkLWNpcGhlcnRleHQ="
	user.RefreshTokenEnc = &corrupted

	_, err := env.server.tokens.EnsureFreshAccessToken(context.Background(), user)
	if !errors.Is(err, crypto.ErrDecrypt) {
		t.Errorf("EnsureFreshAccessToken() error = %v, want ErrDecrypt", err)
	}
	if env.provider.refreshCalls != 0 {
		t.Errorf("refresh calls = %d, want 0 after decrypt failure", env.provider.refreshCalls)
	}
}
