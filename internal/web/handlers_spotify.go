package web

import "net/http"

// handleSpotifyMe proxies the provider's current-user profile using a
// freshened access token (GET /spotify/me).
func (s *Server) handleSpotifyMe(w http.ResponseWriter, r *http.Request) {
	user, token := s.requireUser(w, r)
	if user == nil {
		return
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "No token.")
		return
	}

	profile, err := s.provider.CurrentUser(r.Context(), token)
	if err != nil {
		s.log.Warn("profile fetch failed", "user", user.SpotifyID, "err", err)
		writeError(w, http.StatusBadGateway, "Provider request failed.")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
