package ui

import (
	"github.com/Varda003/EmoTune/internal/ledger"
	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/recommend"
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStatsLoaded MsgKind = iota
	MsgSongsLoaded
	MsgRecommendations
	MsgLiked
	MsgUnliked
)

// statsLoadedMsg is the constructor for [MsgStatsLoaded]
func statsLoadedMsg(stats *ledger.Statistics, err error) Msg {
	return Msg{kind: MsgStatsLoaded, data: stats, err: err}
}

// songsLoadedMsg is the constructor for [MsgSongsLoaded]
func songsLoadedMsg(songs []*models.LikedSong, err error) Msg {
	return Msg{kind: MsgSongsLoaded, data: songs, err: err}
}

// recommendationsMsg is the constructor for [MsgRecommendations]
func recommendationsMsg(result *recommend.Result) Msg {
	return Msg{kind: MsgRecommendations, data: result}
}

// likedMsg is the constructor for [MsgLiked]
func likedMsg(track models.Track, created bool, err error) Msg {
	return Msg{
		kind: MsgLiked,
		data: struct {
			track   models.Track
			created bool
		}{track, created},
		err: err,
	}
}

// unlikedMsg is the constructor for [MsgUnliked]
func unlikedMsg(song *models.LikedSong, err error) Msg {
	return Msg{kind: MsgUnliked, data: song, err: err}
}
