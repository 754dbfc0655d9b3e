package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/synaptic-sound/backend/internal/crypto"
	"github.com/synaptic-sound/backend/internal/db"
	"github.com/synaptic-sound/backend/internal/mood"
	"github.com/synaptic-sound/backend/internal/spotify"
)

var testAESKey = []byte("0123456789abcdef0123456789abcdef")

const testSessionSecret = "test-session-secret"

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	users            map[string]*db.User
	updateTokenCalls int
	lastRefreshEnc   *string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*db.User)}
}

func (f *fakeUserStore) GetBySpotifyID(_ context.Context, spotifyID string) (*db.User, error) {
	user, ok := f.users[spotifyID]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) Upsert(_ context.Context, user *db.User) error {
	if existing, ok := f.users[user.SpotifyID]; ok {
		existing.DisplayName = user.DisplayName
		user.AutoCreateEnabled = existing.AutoCreateEnabled
		return nil
	}
	user.AutoCreateEnabled = true
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.SpotifyID] = &copied
	return nil
}

func (f *fakeUserStore) UpdateTokens(_ context.Context, spotifyID, accessToken string, refreshTokenEnc *string, expiresAt time.Time) error {
	user, ok := f.users[spotifyID]
	if !ok {
		return db.ErrNotFound
	}
	f.updateTokenCalls++
	f.lastRefreshEnc = refreshTokenEnc
	user.AccessToken = &accessToken
	if refreshTokenEnc != nil {
		user.RefreshTokenEnc = refreshTokenEnc
	}
	user.TokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeUserStore) SetAutoCreate(_ context.Context, spotifyID string, enabled bool) error {
	user, ok := f.users[spotifyID]
	if !ok {
		return db.ErrNotFound
	}
	user.AutoCreateEnabled = enabled
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, spotifyID string) error {
	if _, ok := f.users[spotifyID]; !ok {
		return db.ErrNotFound
	}
	delete(f.users, spotifyID)
	return nil
}

// fakeMoodStore records created entries and serves canned aggregates.
type fakeMoodStore struct {
	entries   []db.MoodEntry
	lastSince *time.Time
	counts    []db.MoodCount
	daily     []db.DailyMoodCount
	createErr error
}

func (f *fakeMoodStore) Create(_ context.Context, entry *db.MoodEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeMoodStore) ListByUser(_ context.Context, userID string, since *time.Time) ([]db.MoodEntry, error) {
	f.lastSince = since
	var out []db.MoodEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeMoodStore) CountByMood(_ context.Context, _ string) ([]db.MoodCount, error) {
	return f.counts, nil
}

func (f *fakeMoodStore) CountByMoodAndDay(_ context.Context, _ string) ([]db.DailyMoodCount, error) {
	return f.daily, nil
}

// fakePlaylistStore records created playlists.
type fakePlaylistStore struct {
	playlists []db.Playlist
}

func (f *fakePlaylistStore) Create(_ context.Context, playlist *db.Playlist) error {
	if playlist.ID == uuid.Nil {
		playlist.ID = uuid.New()
	}
	f.playlists = append(f.playlists, *playlist)
	return nil
}

// fakeTrackLogStore records created track logs.
type fakeTrackLogStore struct {
	logs   []db.TrackLog
	recent []db.TrackLogWithMood
	total  int
}

func (f *fakeTrackLogStore) Create(_ context.Context, tl *db.TrackLog) error {
	if tl.ID == uuid.Nil {
		tl.ID = uuid.New()
	}
	f.logs = append(f.logs, *tl)
	return nil
}

func (f *fakeTrackLogStore) ListRecentByUser(_ context.Context, _ string, limit int) ([]db.TrackLogWithMood, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeTrackLogStore) CountByUser(_ context.Context, _ string) (int, error) {
	return f.total, nil
}

// fakeProvider implements Provider with overridable behavior.
type fakeProvider struct {
	refreshFn        func(refreshToken string) (*oauth2.Token, error)
	currentUserFn    func(accessToken string) (*spotify.Profile, error)
	nowPlayingFn     func(accessToken string) (*spotify.PlayingTrack, error)
	createPlaylistFn func(accessToken, userID, name, description string, public bool) (*spotify.Playlist, error)
	exchangeFn       func(code string) (*oauth2.Token, error)

	refreshCalls        int
	createPlaylistCalls int
}

func (f *fakeProvider) AuthURL(state string) string {
	return "https://accounts.spotify.com/authorize?state=" + state
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if f.exchangeFn == nil {
		return nil, errors.New("exchange not configured")
	}
	return f.exchangeFn(code)
}

func (f *fakeProvider) Refresh(_ context.Context, refreshToken string) (*oauth2.Token, error) {
	f.refreshCalls++
	if f.refreshFn == nil {
		return nil, errors.New("refresh not configured")
	}
	return f.refreshFn(refreshToken)
}

func (f *fakeProvider) CurrentUser(_ context.Context, accessToken string) (*spotify.Profile, error) {
	if f.currentUserFn == nil {
		return nil, errors.New("current user not configured")
	}
	return f.currentUserFn(accessToken)
}

func (f *fakeProvider) NowPlaying(_ context.Context, accessToken string) (*spotify.PlayingTrack, error) {
	if f.nowPlayingFn == nil {
		return nil, nil
	}
	return f.nowPlayingFn(accessToken)
}

func (f *fakeProvider) CreatePlaylist(_ context.Context, accessToken, userID, name, description string, public bool) (*spotify.Playlist, error) {
	f.createPlaylistCalls++
	if f.createPlaylistFn == nil {
		return nil, errors.New("create playlist not configured")
	}
	return f.createPlaylistFn(accessToken, userID, name, description, public)
}

// fixedClassifier always reports the same label and confidence.
type fixedClassifier struct {
	label      string
	confidence *float64
	err        error
}

func (f fixedClassifier) Classify(_ context.Context, _ io.Reader) (string, *float64, error) {
	return f.label, f.confidence, f.err
}

// testEnv bundles a server with its fakes.
type testEnv struct {
	server    *Server
	users     *fakeUserStore
	moods     *fakeMoodStore
	playlists *fakePlaylistStore
	trackLogs *fakeTrackLogStore
	provider  *fakeProvider
	cipher    *crypto.Cipher
	sessions  *crypto.SessionTokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cipher, err := crypto.NewCipher(testAESKey)
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}
	sessions := crypto.NewSessionTokens(testSessionSecret)

	env := &testEnv{
		users:     newFakeUserStore(),
		moods:     &fakeMoodStore{},
		playlists: &fakePlaylistStore{},
		trackLogs: &fakeTrackLogStore{},
		provider:  &fakeProvider{},
		cipher:    cipher,
		sessions:  sessions,
	}

	env.server = NewServer(ServerConfig{
		Addr:           DefaultAddr,
		CookieDomain:   "example.com",
		CookieSameSite: http.SameSiteLaxMode,
	}, Deps{
		Stores: Stores{
			Users:     env.users,
			Moods:     env.moods,
			Playlists: env.playlists,
			TrackLogs: env.trackLogs,
		},
		Provider:   env.provider,
		Cipher:     cipher,
		Sessions:   sessions,
		Classifier: mood.RandomClassifier{},
		Logger:     log.New(io.Discard),
	})

	return env
}

// addUser stores a user with a fresh cached access token.
func (env *testEnv) addUser(t *testing.T, spotifyID string, autoCreate bool) *db.User {
	t.Helper()

	access := "cached-access-token"
	expiry := time.Now().Add(time.Hour)
	enc, err := env.cipher.Encrypt("stored-refresh-token")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	name := "Test User"
	user := &db.User{
		SpotifyID:         spotifyID,
		DisplayName:       &name,
		AccessToken:       &access,
		RefreshTokenEnc:   &enc,
		TokenExpiresAt:    &expiry,
		AutoCreateEnabled: autoCreate,
		CreatedAt:         time.Now(),
	}
	env.users.users[spotifyID] = user
	return user
}

// authedRequest attaches a valid session cookie for the user.
func (env *testEnv) authedRequest(t *testing.T, req *http.Request, spotifyID string) *http.Request {
	t.Helper()

	token, err := env.sessions.Issue(spotifyID, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	return req
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	return rec
}
