// Package spotify is the outbound gateway to the Spotify Web API and its
// OAuth endpoints.
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	api "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// requestTimeout bounds every outbound provider call. The provider gives no
// guarantees here; a hung call must not block a request handler forever.
const requestTimeout = 10 * time.Second

// Scopes requested during the authorization-code flow.
var scopes = []string{
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
}

// Gateway makes authorization and Web API calls against Spotify.
type Gateway struct {
	conf *oauth2.Config

	// apiBaseURL overrides the Web API base URL in tests.
	apiBaseURL string
}

// NewGateway creates a Gateway from app credentials.
func NewGateway(clientID, clientSecret, redirectURI string) *Gateway {
	return &Gateway{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
	}
}

// AuthURL builds the provider authorization URL for the fixed scopes.
func (g *Gateway) AuthURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for access and refresh tokens.
func (g *Gateway) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := g.outboundContext(ctx)
	defer cancel()

	token, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}

// Refresh mints a new access token from a refresh token. The returned token
// carries a new refresh token only when the provider rotated it.
func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ctx, cancel := g.outboundContext(ctx)
	defer cancel()

	token, err := g.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing access token: %w", err)
	}
	return token, nil
}

// CurrentUser fetches the authenticated user's profile.
func (g *Gateway) CurrentUser(ctx context.Context, accessToken string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	user, err := g.api(ctx, accessToken).CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}

	return &Profile{
		ID:           user.ID,
		DisplayName:  user.DisplayName,
		Email:        user.Email,
		Country:      user.Country,
		Product:      user.Product,
		ExternalURLs: user.ExternalURLs,
	}, nil
}

// NowPlaying fetches the user's currently playing track. Returns nil when
// nothing is actively playing.
func (g *Gateway) NowPlaying(ctx context.Context, accessToken string) (*PlayingTrack, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	playing, err := g.api(ctx, accessToken).PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching now playing: %w", err)
	}
	if playing == nil || !playing.Playing || playing.Item == nil {
		return nil, nil
	}

	item := playing.Item
	track := &PlayingTrack{
		ID:          item.ID.String(),
		Name:        item.Name,
		Artist:      joinArtists(item.Artists),
		Album:       item.Album.Name,
		ExternalURL: item.ExternalURLs["spotify"],
	}
	if len(item.Album.Images) > 0 {
		track.CoverURL = item.Album.Images[0].URL
	}
	return track, nil
}

// CreatePlaylist creates a public or private playlist for the given user.
func (g *Gateway) CreatePlaylist(ctx context.Context, accessToken, userID, name, description string, public bool) (*Playlist, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	playlist, err := g.api(ctx, accessToken).CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, fmt.Errorf("creating playlist: %w", err)
	}

	return &Playlist{
		ID:   playlist.ID.String(),
		Name: playlist.Name,
		URL:  playlist.ExternalURLs["spotify"],
	}, nil
}

// api builds a Web API client that sends the given bearer token.
func (g *Gateway) api(ctx context.Context, accessToken string) *api.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = requestTimeout

	opts := []api.ClientOption{}
	if g.apiBaseURL != "" {
		opts = append(opts, api.WithBaseURL(g.apiBaseURL))
	}
	return api.New(httpClient, opts...)
}

// outboundContext bounds token-endpoint calls with the request timeout and a
// plain HTTP client.
func (g *Gateway) outboundContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: requestTimeout})
	return context.WithTimeout(ctx, requestTimeout)
}

func joinArtists(artists []api.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
