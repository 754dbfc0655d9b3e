// Command synaptic-sound-api runs the Synaptic Sound backend API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/synaptic-sound/backend/internal/config"
	"github.com/synaptic-sound/backend/internal/crypto"
	"github.com/synaptic-sound/backend/internal/db"
	"github.com/synaptic-sound/backend/internal/mood"
	"github.com/synaptic-sound/backend/internal/spotify"
	"github.com/synaptic-sound/backend/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "synaptic-sound",
	})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	cipher, err := crypto.NewCipher(cfg.AESKey())
	if err != nil {
		return fmt.Errorf("creating token cipher: %w", err)
	}

	server := web.NewServer(web.ServerConfig{
		Addr:           cfg.Addr,
		CookieDomain:   cfg.CookieDomain,
		CookieSameSite: cfg.SameSite(),
		AllowedOrigins: cfg.AllowedOrigins,
	}, web.Deps{
		Stores: web.Stores{
			Users:     database.Users(),
			Moods:     database.Moods(),
			Playlists: database.Playlists(),
			TrackLogs: database.TrackLogs(),
		},
		Provider:   spotify.NewGateway(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURI),
		Cipher:     cipher,
		Sessions:   crypto.NewSessionTokens(cfg.SessionSecret),
		Classifier: mood.RandomClassifier{},
		Logger:     logger,
	})

	return server.Run()
}
