package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TrackLogRepository handles track log database operations.
type TrackLogRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new track log entry.
func (r *TrackLogRepository) Create(ctx context.Context, tl *TrackLog) error {
	query := `
		INSERT INTO track_logs (id, user_id, mood_id, track_id, track_name, artist, album, cover_url, external_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`
	if tl.ID == uuid.Nil {
		tl.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		tl.ID,
		tl.UserID,
		tl.MoodID,
		tl.TrackID,
		tl.TrackName,
		tl.Artist,
		tl.Album,
		tl.CoverURL,
		tl.ExternalURL,
	).Scan(&tl.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting track log: %w", err)
	}
	return nil
}

// ListRecentByUser returns the user's most recent track logs joined with the
// mood label that triggered them, newest-first.
func (r *TrackLogRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]TrackLogWithMood, error) {
	query := `
		SELECT t.id, t.user_id, t.mood_id, t.track_id, t.track_name, t.artist,
		       t.album, t.cover_url, t.external_url, t.created_at, m.detected_mood
		FROM track_logs t
		JOIN mood_entries m ON m.id = t.mood_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying track logs: %w", err)
	}
	defer rows.Close()

	var logs []TrackLogWithMood
	for rows.Next() {
		var tl TrackLogWithMood
		if err := rows.Scan(
			&tl.ID,
			&tl.UserID,
			&tl.MoodID,
			&tl.TrackID,
			&tl.TrackName,
			&tl.Artist,
			&tl.Album,
			&tl.CoverURL,
			&tl.ExternalURL,
			&tl.CreatedAt,
			&tl.Mood,
		); err != nil {
			return nil, fmt.Errorf("scanning track log: %w", err)
		}
		logs = append(logs, tl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating track logs: %w", err)
	}
	return logs, nil
}

// CountByUser returns the total number of track logs for a user.
func (r *TrackLogRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM track_logs WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting track logs: %w", err)
	}
	return count, nil
}
