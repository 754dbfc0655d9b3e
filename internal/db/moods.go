package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MoodRepository handles mood entry database operations.
type MoodRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new mood entry.
func (r *MoodRepository) Create(ctx context.Context, entry *MoodEntry) error {
	query := `
		INSERT INTO mood_entries (id, user_id, emoji, image_url, detected_mood, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Emoji,
		entry.ImageURL,
		entry.DetectedMood,
		entry.Confidence,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting mood entry: %w", err)
	}
	return nil
}

// Get retrieves a mood entry by ID.
func (r *MoodRepository) Get(ctx context.Context, id uuid.UUID) (*MoodEntry, error) {
	query := `
		SELECT id, user_id, emoji, image_url, detected_mood, confidence, created_at
		FROM mood_entries
		WHERE id = $1
	`
	var entry MoodEntry
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Emoji,
		&entry.ImageURL,
		&entry.DetectedMood,
		&entry.Confidence,
		&entry.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying mood entry: %w", err)
	}
	return &entry, nil
}

// ListByUser returns a user's mood entries newest-first, optionally limited
// to entries created at or after since.
func (r *MoodRepository) ListByUser(ctx context.Context, userID string, since *time.Time) ([]MoodEntry, error) {
	query := `
		SELECT id, user_id, emoji, image_url, detected_mood, confidence, created_at
		FROM mood_entries
		WHERE user_id = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("querying mood entries: %w", err)
	}
	defer rows.Close()

	var entries []MoodEntry
	for rows.Next() {
		var entry MoodEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Emoji,
			&entry.ImageURL,
			&entry.DetectedMood,
			&entry.Confidence,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning mood entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mood entries: %w", err)
	}
	return entries, nil
}

// CountByMood returns per-label entry counts for a user.
func (r *MoodRepository) CountByMood(ctx context.Context, userID string) ([]MoodCount, error) {
	query := `
		SELECT detected_mood, COUNT(*)
		FROM mood_entries
		WHERE user_id = $1
		GROUP BY detected_mood
		ORDER BY COUNT(*) DESC, detected_mood
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying mood counts: %w", err)
	}
	defer rows.Close()

	var counts []MoodCount
	for rows.Next() {
		var c MoodCount
		if err := rows.Scan(&c.Mood, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning mood count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mood counts: %w", err)
	}
	return counts, nil
}

// CountByMoodAndDay returns per-day, per-label entry counts for a user.
func (r *MoodRepository) CountByMoodAndDay(ctx context.Context, userID string) ([]DailyMoodCount, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day, detected_mood, COUNT(*)
		FROM mood_entries
		WHERE user_id = $1
		GROUP BY day, detected_mood
		ORDER BY day
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying mood trends: %w", err)
	}
	defer rows.Close()

	var counts []DailyMoodCount
	for rows.Next() {
		var c DailyMoodCount
		if err := rows.Scan(&c.Day, &c.Mood, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning mood trend: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mood trends: %w", err)
	}
	return counts, nil
}
