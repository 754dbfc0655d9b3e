package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles user database operations.
type UserRepository struct {
	pool *pgxpool.Pool
}

// GetBySpotifyID retrieves a user by their Spotify ID.
func (r *UserRepository) GetBySpotifyID(ctx context.Context, spotifyID string) (*User, error) {
	query := `
		SELECT spotify_id, display_name, access_token, refresh_token_enc,
		       token_expires_at, auto_create_enabled, created_at
		FROM users
		WHERE spotify_id = $1
	`
	var user User
	err := r.pool.QueryRow(ctx, query, spotifyID).Scan(
		&user.SpotifyID,
		&user.DisplayName,
		&user.AccessToken,
		&user.RefreshTokenEnc,
		&user.TokenExpiresAt,
		&user.AutoCreateEnabled,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}

// Upsert creates the user on first login or refreshes their display name.
// Token fields are left untouched here; UpdateTokens owns those.
func (r *UserRepository) Upsert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (spotify_id, display_name, auto_create_enabled, created_at)
		VALUES ($1, $2, TRUE, NOW())
		ON CONFLICT (spotify_id) DO UPDATE SET
			display_name = EXCLUDED.display_name
		RETURNING auto_create_enabled, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		user.SpotifyID,
		user.DisplayName,
	).Scan(&user.AutoCreateEnabled, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

// UpdateTokens persists a new access token and expiry. The encrypted refresh
// token is overwritten only when refreshTokenEnc is non-nil.
func (r *UserRepository) UpdateTokens(ctx context.Context, spotifyID, accessToken string, refreshTokenEnc *string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET access_token = $2,
		    refresh_token_enc = COALESCE($3, refresh_token_enc),
		    token_expires_at = $4
		WHERE spotify_id = $1
	`
	result, err := r.pool.Exec(ctx, query, spotifyID, accessToken, refreshTokenEnc, expiresAt)
	if err != nil {
		return fmt.Errorf("updating user tokens: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAutoCreate updates the automatic playlist creation flag.
func (r *UserRepository) SetAutoCreate(ctx context.Context, spotifyID string, enabled bool) error {
	query := `UPDATE users SET auto_create_enabled = $2 WHERE spotify_id = $1`
	result, err := r.pool.Exec(ctx, query, spotifyID, enabled)
	if err != nil {
		return fmt.Errorf("updating auto-create flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user. Mood entries, playlists, and track logs cascade.
func (r *UserRepository) Delete(ctx context.Context, spotifyID string) error {
	query := `DELETE FROM users WHERE spotify_id = $1`
	result, err := r.pool.Exec(ctx, query, spotifyID)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
