package ui

import (
	"context"
	"fmt"

	"github.com/Varda003/EmoTune/internal/ledger"
	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/recommend"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	EmotionView ViewState = iota
	SongListView
	ConfirmView
	RecommendView
)

// Library is the liked-song store the TUI browses.
type Library interface {
	List(ctx context.Context, userID string, opts ledger.ListOptions) ([]*models.LikedSong, error)
	Statistics(ctx context.Context, userID string) (*ledger.Statistics, error)
	Like(ctx context.Context, userID string, in ledger.LikeInput) (*models.LikedSong, bool, error)
	Unlike(ctx context.Context, userID, songID string) error
}

// Recommender produces tracks for an emotion.
type Recommender interface {
	Recommend(ctx context.Context, emotion, language string, limit int) *recommend.Result
}

var (
	_ Library     = (*ledger.Ledger)(nil)
	_ Recommender = (*recommend.Orchestrator)(nil)
)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	userID      string
	language    string
	library     Library
	recommender Recommender

	view        ViewState
	width       int
	height      int
	emotionList list.Model
	songList    list.Model
	trackList   list.Model
	stats       *ledger.Statistics
	emotion     models.Emotion
	pending     *models.LikedSong
	result      *recommend.Result
	status      string
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model browsing the liked songs of userID.
func NewModel(ctx context.Context, userID, language string, library Library, recommender Recommender) *Model {
	newList := func() list.Model {
		l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
		l.SetShowHelp(false)
		return l
	}

	return &Model{
		ctx:         ctx,
		userID:      userID,
		language:    recommend.NormalizeLanguage(language),
		library:     library,
		recommender: recommender,
		view:        EmotionView,
		emotionList: newList(),
		songList:    newList(),
		trackList:   newList(),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init initializes the TUI by loading the listening statistics.
func (m *Model) Init() tea.Cmd {
	return m.loadStats()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.emotionList.SetSize(msg.Width-4, msg.Height-8)
		m.songList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.filtering() {
			return m.updateLists(msg)
		}
		switch m.view {
		case EmotionView:
			return m.handleEmotionKeys(msg)
		case SongListView:
			return m.handleSongListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case RecommendView:
			return m.handleRecommendKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStatsLoaded:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.stats = msg.data.(*ledger.Statistics)
		m.emotionList.SetItems(emotionItems(m.stats))
		m.emotionList.Title = fmt.Sprintf("Liked songs by emotion (%d total)", m.stats.TotalLikedSongs)
		return m, nil

	case MsgSongsLoaded:
		if msg.err != nil {
			m.status = styles.Failure.Render(fmt.Sprintf("Failed to load songs: %v", msg.err))
			return m, nil
		}
		songs := msg.data.([]*models.LikedSong)
		items := make([]list.Item, len(songs))
		for i, song := range songs {
			items[i] = songItem{song: song}
		}
		m.songList.SetItems(items)
		m.songList.Title = m.songListTitle(len(songs))
		m.view = SongListView
		return m, nil

	case MsgRecommendations:
		m.result = msg.data.(*recommend.Result)
		items := make([]list.Item, len(m.result.Tracks))
		for i, track := range m.result.Tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList.SetItems(items)
		m.trackList.Title = fmt.Sprintf("%s picks (%s, %s)", EmotionLabel(m.result.Emotion), m.result.Market, m.result.Source)
		m.trackList.Styles.Title = m.trackList.Styles.Title.Background(EmotionStyle(m.result.Emotion).GetForeground())
		m.view = RecommendView
		return m, nil

	case MsgLiked:
		liked := msg.data.(struct {
			track   models.Track
			created bool
		})
		switch {
		case msg.err != nil:
			m.status = styles.Failure.Render(fmt.Sprintf("Failed to like %s: %v", liked.track.Title, msg.err))
		case liked.created:
			m.status = styles.Success.Render(fmt.Sprintf("♥ Liked %s by %s", liked.track.Title, liked.track.Artist))
		default:
			m.status = styles.Warning.Render(fmt.Sprintf("%s is already in your liked songs", liked.track.Title))
		}
		return m, m.loadStats()

	case MsgUnliked:
		song := msg.data.(*models.LikedSong)
		if msg.err != nil {
			m.status = styles.Failure.Render(fmt.Sprintf("Failed to remove %s: %v", song.SongTitle, msg.err))
			return m, nil
		}
		m.status = styles.Success.Render(fmt.Sprintf("Removed %s", song.SongTitle))
		return m, tea.Batch(m.loadSongs(m.emotion), m.loadStats())
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.Failure.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case EmotionView:
		body = m.renderList(m.emotionList, m.keys.enter, m.keys.recommend, m.keys.quit)
	case SongListView:
		body = m.renderList(m.songList, m.keys.unlike, m.keys.recommend, m.keys.back, m.keys.quit)
	case ConfirmView:
		body = m.renderConfirm()
	case RecommendView:
		body = m.renderList(m.trackList, m.keys.like, m.keys.back, m.keys.quit)
	}

	if m.status != "" {
		body = fmt.Sprintf("%s\n%s", body, m.status)
	}
	return body
}

func (m *Model) filtering() bool {
	switch m.view {
	case EmotionView:
		return m.emotionList.FilterState() == list.Filtering
	case SongListView:
		return m.songList.FilterState() == list.Filtering
	case RecommendView:
		return m.trackList.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) handleEmotionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.emotionList.SelectedItem().(emotionItem); ok {
			m.emotion = item.emotion
			m.status = ""
			return m, m.loadSongs(item.emotion)
		}
		return m, nil
	case key.Matches(msg, m.keys.recommend):
		if item, ok := m.emotionList.SelectedItem().(emotionItem); ok {
			m.emotion = item.emotion
			m.status = ""
			return m, m.recommendFor(item.emotion)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.emotionList, cmd = m.emotionList.Update(msg)
	return m, cmd
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = EmotionView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.unlike):
		if item, ok := m.songList.SelectedItem().(songItem); ok {
			m.pending = item.song
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.recommend):
		m.status = ""
		return m, m.recommendFor(m.emotion)
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		song := m.pending
		m.pending = nil
		m.view = SongListView
		return m, m.unlike(song)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.pending = nil
		m.view = SongListView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleRecommendKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = EmotionView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.like):
		if item, ok := m.trackList.SelectedItem().(trackItem); ok {
			return m, m.like(item.track)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case EmotionView:
		m.emotionList, cmd = m.emotionList.Update(msg)
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	case RecommendView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadStats() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.library.Statistics(m.ctx, m.userID)
		return statsLoadedMsg(stats, err)
	}
}

func (m *Model) loadSongs(emotion models.Emotion) tea.Cmd {
	return func() tea.Msg {
		songs, err := m.library.List(m.ctx, m.userID, ledger.ListOptions{Emotion: string(emotion)})
		return songsLoadedMsg(songs, err)
	}
}

// recommendFor asks for tracks matching emotion. The "all songs" row has no emotion and gets neutral picks.
func (m *Model) recommendFor(emotion models.Emotion) tea.Cmd {
	if emotion == "" {
		emotion = models.Neutral
	}
	return func() tea.Msg {
		return recommendationsMsg(m.recommender.Recommend(m.ctx, string(emotion), m.language, recommend.DefaultLimit))
	}
}

func (m *Model) like(track models.Track) tea.Cmd {
	in := ledger.LikeInput{
		SongTitle:         track.Title,
		Artist:            track.Artist,
		AlbumArtURL:       track.AlbumArt,
		SpotifyTrackID:    track.ID,
		SpotifyPreviewURL: track.PreviewURL,
	}
	if m.result != nil {
		in.EmotionDetected = string(m.result.Emotion)
		if len(m.result.Genres) > 0 {
			in.Genre = m.result.Genres[0]
		}
	}

	return func() tea.Msg {
		_, created, err := m.library.Like(m.ctx, m.userID, in)
		return likedMsg(track, created, err)
	}
}

func (m *Model) unlike(song *models.LikedSong) tea.Cmd {
	return func() tea.Msg {
		return unlikedMsg(song, m.library.Unlike(m.ctx, m.userID, song.ID))
	}
}

func (m *Model) songListTitle(n int) string {
	if m.emotion == "" {
		return fmt.Sprintf("All liked songs (%d)", n)
	}
	return fmt.Sprintf("%s songs (%d)", EmotionLabel(m.emotion), n)
}

func (m *Model) renderList(l list.Model, bindings ...key.Binding) string {
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(bindings))
}

func (m *Model) renderConfirm() string {
	if m.pending == nil {
		return ""
	}
	title := styles.Heading.MarginBottom(1).Render(fmt.Sprintf("Remove '%s' from your liked songs?", m.pending.SongTitle))
	info := styles.Muted.Render(fmt.Sprintf("Artist: %s\nLiked: %s", m.pending.Artist, m.pending.LikedAt.Format("Jan 2, 2006")))

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

// emotionItems lists every emotion with its liked-song count, behind an "all songs" row.
func emotionItems(stats *ledger.Statistics) []list.Item {
	items := []list.Item{emotionItem{count: stats.TotalLikedSongs}}
	for _, e := range models.Emotions() {
		items = append(items, emotionItem{emotion: e, count: stats.EmotionBreakdown[string(e)]})
	}
	return items
}
