package ui

import (
	"fmt"
	"strings"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/charmbracelet/lipgloss"
)

const (
	brandGreen = "#1DB954"
	okGreen    = "#04B575"
	errRed     = "#FF4D4D"
	warnOrange = "#FFA500"
	mutedGrey  = "#626262"
)

// emotionAccent pairs each emotion with the colour its headings are drawn in.
var emotionAccent = map[models.Emotion]string{
	models.Happy:     "#FFD43B",
	models.Sad:       "#4C8BF5",
	models.Angry:     errRed,
	models.Neutral:   "#A8A8A8",
	models.Surprised: "#FF8C42",
	models.Fearful:   "#9B6BDF",
	models.Disgusted: "#7FB800",
}

// Theme holds the shared styles of the terminal surfaces. The TUI and the plain CLI output both draw from [DefaultTheme].
type Theme struct {
	Heading lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultTheme is the green-on-dark scheme used everywhere.
var DefaultTheme = Theme{
	Heading: bold(brandGreen),
	Success: bold(okGreen),
	Failure: bold(errRed),
	Warning: fg(warnOrange),
	Muted:   fg(mutedGrey).Italic(true),
}

var styles = DefaultTheme

// EmotionStyle is the heading style tinted for e. Unknown emotions get the brand colour.
func EmotionStyle(e models.Emotion) lipgloss.Style {
	if c, ok := emotionAccent[e]; ok {
		return bold(c)
	}
	return bold(brandGreen)
}

// EmotionLabel reads "😊 Happy". The empty emotion is the "all songs" bucket.
func EmotionLabel(e models.Emotion) string {
	if e == "" {
		return "All liked songs"
	}
	return fmt.Sprintf("%s %s", e.Emoji(), TitleCase(string(e)))
}

// TitleCase upper-cases the first byte; labels here are ASCII.
func TitleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func fg(c string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

func bold(c string) lipgloss.Style {
	return fg(c).Bold(true)
}
