package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents a Spotify user and their token state.
type User struct {
	SpotifyID   string
	DisplayName *string // nullable

	AccessToken     *string    // nullable, short-lived, stored as-is
	RefreshTokenEnc *string    // nullable, AES-GCM encrypted at rest
	TokenExpiresAt  *time.Time // nullable

	AutoCreateEnabled bool
	CreatedAt         time.Time
}

// MoodEntry is one persisted mood detection, from an emoji or an image.
// Entries are immutable after insert.
type MoodEntry struct {
	ID           uuid.UUID
	UserID       string
	Emoji        *string // nullable
	ImageURL     *string // nullable
	DetectedMood string
	Confidence   *float64 // nullable, 0-100
	CreatedAt    time.Time
}

// Playlist is a provider playlist created on the user's behalf.
type Playlist struct {
	ID        uuid.UUID
	UserID    string
	MoodID    *uuid.UUID // nullable - set null if the mood entry is deleted
	Name      string
	URL       string
	CreatedAt time.Time
}

// TrackLog records the track that was playing when a mood was submitted.
type TrackLog struct {
	ID          uuid.UUID
	UserID      string
	MoodID      uuid.UUID
	TrackID     string
	TrackName   string
	Artist      string
	Album       *string // nullable
	CoverURL    *string // nullable
	ExternalURL *string // nullable
	CreatedAt   time.Time
}

// TrackLogWithMood is a TrackLog joined with its mood entry's label.
type TrackLogWithMood struct {
	TrackLog
	Mood string
}

// MoodCount is a per-label aggregate for the stats endpoint.
type MoodCount struct {
	Mood  string
	Count int
}

// DailyMoodCount is a per-day, per-label aggregate for the trends endpoint.
type DailyMoodCount struct {
	Day   time.Time
	Mood  string
	Count int
}
