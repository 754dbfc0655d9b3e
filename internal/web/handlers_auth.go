package web

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/synaptic-sound/backend/internal/crypto"
	"github.com/synaptic-sound/backend/internal/db"
)

// handleLogin returns the provider authorization URL (GET /auth/login).
// No local state changes here; the frontend performs the redirect.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateOAuthState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": s.provider.AuthURL(state)})
}

// handleCallback exchanges the authorization code, creates the user on first
// login, stores tokens, and issues the session cookie (GET /auth/callback).
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing code.")
		return
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.log.Warn("code exchange failed", "err", err)
		writeError(w, http.StatusBadRequest, "Token exchange failed.")
		return
	}

	profile, err := s.provider.CurrentUser(ctx, token.AccessToken)
	if err != nil {
		s.log.Warn("profile fetch failed", "err", err)
		writeError(w, http.StatusBadRequest, "Token exchange failed.")
		return
	}

	user := &db.User{SpotifyID: profile.ID}
	if profile.DisplayName != "" {
		user.DisplayName = &profile.DisplayName
	}
	if err := s.stores.Users.Upsert(ctx, user); err != nil {
		s.log.Error("user upsert failed", "user", profile.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	var refreshEnc *string
	if token.RefreshToken != "" {
		enc, err := s.tokens.cipher.Encrypt(token.RefreshToken)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal error.")
			return
		}
		refreshEnc = &enc
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(defaultTokenTTL)
	}
	if err := s.stores.Users.UpdateTokens(ctx, profile.ID, token.AccessToken, refreshEnc, expiresAt); err != nil {
		s.log.Error("persisting tokens failed", "user", profile.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	session, err := s.sessions.Issue(profile.ID, crypto.DefaultSessionTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}
	s.setSessionCookie(w, session)

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "display_name": profile.DisplayName})
}

// handleSession reports who the cookie belongs to (GET /auth/session).
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "No session.")
		return
	}

	displayName := ""
	if user.DisplayName != nil {
		displayName = *user.DisplayName
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"spotify_id":   user.SpotifyID,
		"display_name": displayName,
	})
}

// handleLogout clears the session cookie (POST /auth/logout). No store
// mutation; the JWT simply ages out.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleDeleteAccount removes the user and all dependent rows
// (DELETE /auth/account).
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Login required.")
		return
	}

	if err := s.stores.Users.Delete(r.Context(), user.SpotifyID); err != nil {
		s.log.Error("account deletion failed", "user", user.SpotifyID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// generateOAuthState creates a random state string for the authorization URL.
func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
