package web

import (
	"context"

	"github.com/google/uuid"

	"github.com/synaptic-sound/backend/internal/db"
	"github.com/synaptic-sound/backend/internal/mood"
)

// autoCreateIfEnabled creates a mood-themed playlist on the user's behalf and
// records it, linked to the originating mood entry. Returns nil when the
// user's flag is off, no token is available, or the provider call fails —
// this path never fails the surrounding request.
func (s *Server) autoCreateIfEnabled(ctx context.Context, user *db.User, moodLabel string, moodID uuid.UUID) *string {
	if !user.AutoCreateEnabled {
		return nil
	}

	token, err := s.tokens.EnsureFreshAccessToken(ctx, user)
	if err != nil || token == "" {
		return nil
	}

	playlist, err := s.provider.CreatePlaylist(ctx, token, user.SpotifyID,
		mood.PlaylistName(moodLabel), mood.PlaylistDescription(moodLabel), true)
	if err != nil {
		s.log.Warn("playlist creation failed", "user", user.SpotifyID, "mood", moodLabel, "err", err)
		return nil
	}

	rec := &db.Playlist{
		UserID: user.SpotifyID,
		MoodID: &moodID,
		Name:   playlist.Name,
		URL:    playlist.URL,
	}
	if err := s.stores.Playlists.Create(ctx, rec); err != nil {
		s.log.Error("persisting playlist failed", "user", user.SpotifyID, "err", err)
		return nil
	}

	return &rec.URL
}
