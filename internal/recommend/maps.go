package recommend

import (
	"strings"

	"github.com/Varda003/EmoTune/internal/models"
)

const (
	DefaultLanguage = "english"
	DefaultMarket   = "US"

	// maxSeedGenres is the number of genres the catalog accepts as seeds.
	maxSeedGenres = 5
)

var emotionGenres = map[models.Emotion][]string{
	models.Happy:     {"pop", "dance", "party", "happy"},
	models.Sad:       {"acoustic", "indie", "sad", "piano"},
	models.Angry:     {"rock", "metal", "hard-rock", "punk"},
	models.Neutral:   {"chill", "ambient", "lo-fi", "jazz"},
	models.Surprised: {"electronic", "edm", "dance", "pop"},
	models.Fearful:   {"classical", "calm", "ambient", "meditation"},
	models.Disgusted: {"punk", "alternative", "indie", "rock"},
}

var languageMarkets = map[string]string{
	"english":    "US",
	"hindi":      "IN",
	"spanish":    "ES",
	"french":     "FR",
	"german":     "DE",
	"italian":    "IT",
	"portuguese": "BR",
}

// GenresFor returns the seed genres of emotion, at most five.
func GenresFor(emotion models.Emotion) []string {
	genres, ok := emotionGenres[emotion]
	if !ok {
		genres = emotionGenres[models.Neutral]
	}
	if len(genres) > maxSeedGenres {
		genres = genres[:maxSeedGenres]
	}
	return append([]string(nil), genres...)
}

// GenreMap returns a copy of the emotion to genre table keyed by label.
func GenreMap() map[string][]string {
	m := make(map[string][]string, len(emotionGenres))
	for _, e := range models.Emotions() {
		m[string(e)] = GenresFor(e)
	}
	return m
}

// NormalizeLanguage lowercases and trims language, defaulting to english.
func NormalizeLanguage(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if l == "" {
		return DefaultLanguage
	}
	return l
}

// MarketFor maps a language name to a catalog market. Unknown languages use [DefaultMarket].
func MarketFor(language string) string {
	if m, ok := languageMarkets[NormalizeLanguage(language)]; ok {
		return m
	}
	return DefaultMarket
}

// Languages lists the supported language names.
func Languages() []string {
	return []string{"english", "hindi", "spanish", "french", "german", "italian", "portuguese"}
}
