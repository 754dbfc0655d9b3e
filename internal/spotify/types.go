package spotify

// Profile is the provider's current-user profile, shaped for passthrough.
type Profile struct {
	ID           string            `json:"id"`
	DisplayName  string            `json:"display_name"`
	Email        string            `json:"email,omitempty"`
	Country      string            `json:"country,omitempty"`
	Product      string            `json:"product,omitempty"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// PlayingTrack is the track the user is actively listening to.
type PlayingTrack struct {
	ID          string
	Name        string
	Artist      string
	Album       string
	CoverURL    string
	ExternalURL string
}

// Playlist is a provider playlist created on the user's behalf.
type Playlist struct {
	ID   string
	Name string
	URL  string
}
