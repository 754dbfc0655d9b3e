package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaylistRepository handles playlist database operations.
type PlaylistRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new playlist record.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *Playlist) error {
	query := `
		INSERT INTO playlists (id, user_id, mood_id, name, url, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	if playlist.ID == uuid.Nil {
		playlist.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		playlist.ID,
		playlist.UserID,
		playlist.MoodID,
		playlist.Name,
		playlist.URL,
	).Scan(&playlist.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}
	return nil
}

// FindByMoodID retrieves the playlist linked to a mood entry, if any.
func (r *PlaylistRepository) FindByMoodID(ctx context.Context, moodID uuid.UUID) (*Playlist, error) {
	query := `
		SELECT id, user_id, mood_id, name, url, created_at
		FROM playlists
		WHERE mood_id = $1
	`
	var playlist Playlist
	err := r.pool.QueryRow(ctx, query, moodID).Scan(
		&playlist.ID,
		&playlist.UserID,
		&playlist.MoodID,
		&playlist.Name,
		&playlist.URL,
		&playlist.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying playlist: %w", err)
	}
	return &playlist, nil
}

// ListByUser returns a user's playlists newest-first.
func (r *PlaylistRepository) ListByUser(ctx context.Context, userID string) ([]Playlist, error) {
	query := `
		SELECT id, user_id, mood_id, name, url, created_at
		FROM playlists
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.UserID, &p.MoodID, &p.Name, &p.URL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating playlists: %w", err)
	}
	return playlists, nil
}
