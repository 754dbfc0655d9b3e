package web

import (
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/synaptic-sound/backend/internal/db"
	"github.com/synaptic-sound/backend/internal/mood"
)

const recentTracksLimit = 20

// handleMoodFromEmoji maps an emoji to a mood, records it, and optionally
// auto-creates a playlist (POST /mood/emoji, form field "emoji").
func (s *Server) handleMoodFromEmoji(w http.ResponseWriter, r *http.Request) {
	user, _ := s.requireUser(w, r)
	if user == nil {
		return
	}

	emoji := r.FormValue("emoji")
	if emoji == "" {
		writeError(w, http.StatusBadRequest, "emoji is required.")
		return
	}

	detected := mood.FromEmoji(emoji)
	entry := &db.MoodEntry{
		UserID:       user.SpotifyID,
		Emoji:        &emoji,
		DetectedMood: detected,
	}
	if err := s.stores.Moods.Create(r.Context(), entry); err != nil {
		s.log.Error("persisting mood entry failed", "user", user.SpotifyID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	playlistURL := s.autoCreateIfEnabled(r.Context(), user, detected, entry.ID)

	writeJSON(w, http.StatusOK, map[string]any{
		"detected_mood": detected,
		"entry_id":      entry.ID,
		"playlist_url":  playlistURL,
	})
}

// handleMoodFromSelfie classifies an uploaded image, records the mood, logs
// the currently playing track best-effort, and optionally auto-creates a
// playlist (POST /mood/selfie, multipart field "file").
func (s *Server) handleMoodFromSelfie(w http.ResponseWriter, r *http.Request) {
	user, accessToken := s.requireUser(w, r)
	if user == nil {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required.")
		return
	}
	defer file.Close()

	detected, confidence, err := s.classifier.Classify(r.Context(), file)
	if err != nil {
		// Classification is best-effort: substitute a random label.
		s.log.Warn("image classification failed", "user", user.SpotifyID, "err", err)
		detected = mood.Vocabulary[rand.Intn(len(mood.Vocabulary))]
		confidence = nil
	}

	imageRef := header.Filename
	entry := &db.MoodEntry{
		UserID:       user.SpotifyID,
		ImageURL:     &imageRef,
		DetectedMood: detected,
		Confidence:   confidence,
	}
	if err := s.stores.Moods.Create(r.Context(), entry); err != nil {
		s.log.Error("persisting mood entry failed", "user", user.SpotifyID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	s.logNowPlaying(r, user, accessToken, entry)

	playlistURL := s.autoCreateIfEnabled(r.Context(), user, detected, entry.ID)

	writeJSON(w, http.StatusOK, map[string]any{
		"detected_mood": detected,
		"confidence":    confidence,
		"entry_id":      entry.ID,
		"playlist_url":  playlistURL,
	})
}

// logNowPlaying records the user's active track against a mood entry. Every
// failure here is swallowed; it must never affect the mood submission.
func (s *Server) logNowPlaying(r *http.Request, user *db.User, accessToken string, entry *db.MoodEntry) {
	if accessToken == "" {
		return
	}

	track, err := s.provider.NowPlaying(r.Context(), accessToken)
	if err != nil {
		s.log.Debug("now-playing lookup failed", "user", user.SpotifyID, "err", err)
		return
	}
	if track == nil {
		return
	}

	tl := &db.TrackLog{
		UserID:    user.SpotifyID,
		MoodID:    entry.ID,
		TrackID:   track.ID,
		TrackName: track.Name,
		Artist:    track.Artist,
	}
	if track.Album != "" {
		tl.Album = &track.Album
	}
	if track.CoverURL != "" {
		tl.CoverURL = &track.CoverURL
	}
	if track.ExternalURL != "" {
		tl.ExternalURL = &track.ExternalURL
	}
	if err := s.stores.TrackLogs.Create(r.Context(), tl); err != nil {
		s.log.Warn("persisting track log failed", "user", user.SpotifyID, "err", err)
	}
}

// handleMoodHistory lists the user's mood entries newest-first, optionally
// limited to the last N days (GET /mood/history?days=N).
func (s *Server) handleMoodHistory(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Login required.")
		return
	}

	var since *time.Time
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		days, err := strconv.Atoi(daysParam)
		if err != nil || days <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer.")
			return
		}
		t := time.Now().AddDate(0, 0, -days)
		since = &t
	}

	entries, err := s.stores.Moods.ListByUser(r.Context(), user.SpotifyID, since)
	if err != nil {
		s.log.Error("listing mood entries failed", "user", user.SpotifyID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]any{
			"entry_id":      e.ID,
			"emoji":         e.Emoji,
			"image_url":     e.ImageURL,
			"detected_mood": e.DetectedMood,
			"confidence":    e.Confidence,
			"created_at":    e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": items})
}

// handleMoodStats reports per-mood counts and percentages plus totals
// (GET /mood/stats).
func (s *Server) handleMoodStats(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Login required.")
		return
	}

	counts, err := s.stores.Moods.CountByMood(r.Context(), user.SpotifyID)
	if err != nil {
		s.log.Error("counting moods failed", "user", user.SpotifyID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	moodCounts := make([]mood.Count, 0, len(counts))
	for _, c := range counts {
		moodCounts = append(moodCounts, mood.Count{Mood: c.Mood, Count: c.Count})
	}
	stats, total := mood.ComputeStats(moodCounts)

	tracksLogged, err := s.stores.TrackLogs.CountByUser(r.Context(), user.SpotifyID)
	if err != nil {
		s.log.Error("counting track logs failed", "user", user.SpotifyID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"moods":         stats,
		"total":         total,
		"tracks_logged": tracksLogged,
	})
}

// handleMoodTrends maps dates to per-mood counts (GET /mood/trends).
func (s *Server) handleMoodTrends(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Login required.")
		return
	}

	counts, err := s.stores.Moods.CountByMoodAndDay(r.Context(), user.SpotifyID)
	if err != nil {
		s.log.Error("querying mood trends failed", "user", user.SpotifyID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	trends := make(map[string]map[string]int)
	for _, c := range counts {
		day := c.Day.Format("2006-01-02")
		if trends[day] == nil {
			trends[day] = make(map[string]int)
		}
		trends[day][c.Mood] = c.Count
	}
	writeJSON(w, http.StatusOK, map[string]any{"trends": trends})
}

// handleMoodTracks lists the last 20 logged tracks with the mood that was
// active when each was captured (GET /mood/tracks).
func (s *Server) handleMoodTracks(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Login required.")
		return
	}

	logs, err := s.stores.TrackLogs.ListRecentByUser(r.Context(), user.SpotifyID, recentTracksLimit)
	if err != nil {
		s.log.Error("listing track logs failed", "user", user.SpotifyID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	items := make([]map[string]any, 0, len(logs))
	for _, tl := range logs {
		items = append(items, map[string]any{
			"track_id":     tl.TrackID,
			"track_name":   tl.TrackName,
			"artist":       tl.Artist,
			"album":        tl.Album,
			"cover_url":    tl.CoverURL,
			"external_url": tl.ExternalURL,
			"mood":         tl.Mood,
			"created_at":   tl.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": items})
}

// handleMoodSettings toggles automatic playlist creation
// (POST /mood/settings, form field "auto_create").
func (s *Server) handleMoodSettings(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Login required.")
		return
	}

	enabled, err := strconv.ParseBool(r.FormValue("auto_create"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "auto_create must be true or false.")
		return
	}

	if err := s.stores.Users.SetAutoCreate(r.Context(), user.SpotifyID, enabled); err != nil {
		s.log.Error("updating auto-create flag failed", "user", user.SpotifyID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "auto_create_enabled": enabled})
}
