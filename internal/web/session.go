package web

import (
	"net/http"

	"github.com/synaptic-sound/backend/internal/crypto"
	"github.com/synaptic-sound/backend/internal/db"
)

const sessionCookieName = "ss_session"

// setSessionCookie attaches the signed session token to the response.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   s.cfg.CookieDomain,
		HttpOnly: true,
		Secure:   true,
		SameSite: s.cfg.CookieSameSite,
		MaxAge:   int(crypto.DefaultSessionTTL.Seconds()),
	})
}

// clearSessionCookie removes the session cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.cfg.CookieDomain,
		HttpOnly: true,
		Secure:   true,
		SameSite: s.cfg.CookieSameSite,
		MaxAge:   -1,
	})
}

// currentUser resolves the session cookie to a stored user. Returns nil when
// the cookie is missing, invalid, expired, or the user no longer exists.
func (s *Server) currentUser(r *http.Request) *db.User {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}

	spotifyID, ok := s.sessions.Verify(cookie.Value)
	if !ok {
		return nil
	}

	user, err := s.stores.Users.GetBySpotifyID(r.Context(), spotifyID)
	if err != nil {
		return nil
	}
	return user
}

// requireUser authenticates the request and ensures a fresh provider token is
// available on the returned user. It writes the error response itself; a nil
// user means the handler must return immediately.
//
// The returned access token is empty when no valid provider token could be
// obtained. Handlers that strictly need one must reject the request.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (*db.User, string) {
	user := s.currentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Login required.")
		return nil, ""
	}

	token, err := s.tokens.EnsureFreshAccessToken(r.Context(), user)
	if err != nil {
		// Corrupted or forged refresh token at rest. Never treat as valid.
		s.log.Error("refresh token decryption failed", "user", user.SpotifyID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return nil, ""
	}

	return user, token
}
