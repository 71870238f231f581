package ui

import (
	"fmt"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = emotionItem{}
	_ list.Item = songItem{}
	_ list.Item = trackItem{}
)

// emotionItem is one row of the emotion picker. An empty emotion stands for every liked song.
type emotionItem struct {
	emotion models.Emotion
	count   int
}

func (i emotionItem) FilterValue() string { return string(i.emotion) }
func (i emotionItem) Title() string {
	return EmotionLabel(i.emotion)
}
func (i emotionItem) Description() string {
	if i.count == 1 {
		return "1 song"
	}
	return fmt.Sprintf("%d songs", i.count)
}

// songItem wraps [models.LikedSong] to implement [list.Item].
type songItem struct {
	song *models.LikedSong
}

func (i songItem) FilterValue() string { return i.song.SongTitle + " " + i.song.Artist }
func (i songItem) Title() string       { return i.song.SongTitle }
func (i songItem) Description() string {
	desc := i.song.Artist
	if i.song.EmotionDetected != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.EmotionDetected)
	}
	return fmt.Sprintf("%s • %s", desc, i.song.LikedAt.Format("2006-01-02"))
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}
