// package formatter exports liked songs to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/shared"
)

// Format is an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat accepts a format name or a common alias (md, txt). Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q (csv, markdown, text)", shared.ErrInvalidArgument, s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return "csv"
	}
}

// Export renders songs in format f. title is used as the heading where the format has one.
func Export(f Format, title string, songs []*models.LikedSong) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(songs)
	case FormatMarkdown:
		return ExportToMarkdown(title, songs)
	case FormatText:
		return ExportToText(title, songs)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToCSV converts liked songs to CSV with columns: ID, Title, Artist, Emotion, Genre, Spotify ID, Preview URL, Liked At
func ExportToCSV(songs []*models.LikedSong) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Emotion", "Genre", "Spotify ID", "Preview URL", "Liked At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			song.ID,
			song.SongTitle,
			song.Artist,
			song.EmotionDetected,
			song.Genre,
			song.SpotifyTrackID,
			song.SpotifyPreviewURL,
			song.LikedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts liked songs to a Markdown list grouped under one heading
func ExportToMarkdown(title string, songs []*models.LikedSong) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(songs)))

	buf.WriteString("## Songs\n\n")
	for i, song := range songs {
		line := fmt.Sprintf("%d. %s - %s", i+1, song.Artist, song.SongTitle)
		if song.SpotifyTrackID != "" {
			line = fmt.Sprintf("%d. %s - [%s](https://open.spotify.com/track/%s)", i+1, song.Artist, song.SongTitle, song.SpotifyTrackID)
		}
		if song.EmotionDetected != "" {
			e := models.NormalizeEmotion(song.EmotionDetected)
			line += fmt.Sprintf(" %s _%s_", e.Emoji(), song.EmotionDetected)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts liked songs to plain text format
func ExportToText(title string, songs []*models.LikedSong) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", title))
	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(songs)))

	for i, song := range songs {
		line := fmt.Sprintf("%d. %s - %s", i+1, song.Artist, song.SongTitle)
		if song.EmotionDetected != "" {
			line += fmt.Sprintf(" (%s)", song.EmotionDetected)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// Filename returns the default export file name for a user, e.g. liked_songs_ana.csv.
func Filename(f Format, name string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
	if base == "" {
		return "liked_songs." + f.Extension()
	}
	return fmt.Sprintf("liked_songs_%s.%s", base, f.Extension())
}

// WriteExport renders songs and writes them to path.
//
// Defaults to [Filename] in the working directory when path is empty.
func WriteExport(f Format, title string, songs []*models.LikedSong, path string) (string, error) {
	if path == "" {
		path = Filename(f, title)
	}

	data, err := Export(f, title, songs)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
