// Package mood maps mood signals (emoji, classified images) to mood labels
// and derives playlist naming and aggregates from them.
package mood

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Default is the label used when an input cannot be mapped.
const Default = "neutral"

// Vocabulary is the fixed set of mood labels the service knows about.
var Vocabulary = []string{"happy", "sad", "energetic", "chill", "romantic", "neutral"}

var emojiToMood = map[string]string{
	"😊":  "happy",
	"😔":  "sad",
	"🔥":  "energetic",
	"😎":  "chill",
	"❤️": "romantic",
}

// FromEmoji maps an emoji to its mood label. Unknown emoji map to Default.
func FromEmoji(emoji string) string {
	if mood, ok := emojiToMood[emoji]; ok {
		return mood
	}
	return Default
}

// PlaylistName builds the auto-created playlist name for a mood.
func PlaylistName(mood string) string {
	return capitalize(mood) + " Vibes 🎧"
}

// PlaylistDescription builds the auto-created playlist description for a mood.
func PlaylistDescription(mood string) string {
	return fmt.Sprintf("Synaptic Sound - mood: %s", mood)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
