package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/mstream/internal/models"
	"github.com/desertthunder/mstream/internal/player"
	"github.com/desertthunder/mstream/internal/services"
	"github.com/desertthunder/mstream/internal/shared"
	"github.com/samber/lo"
)

const (
	tickInterval = 500 * time.Millisecond
	toastTTL     = 4 * time.Second
	maxToasts    = 3
	volumeStep   = 0.1
)

// ViewState represents the current section in the TUI.
type ViewState int

const (
	LocalView ViewState = iota
	SearchView
	PlaylistsView
)

var sections = []ViewState{LocalView, SearchView, PlaylistsView}

func (v ViewState) String() string {
	switch v {
	case SearchView:
		return "Search"
	case PlaylistsView:
		return "Playlists"
	default:
		return "Local Files"
	}
}

// Catalog lists what can be played.
type Catalog interface {
	Search(ctx context.Context, query string, max int) ([]models.Video, error)
	LocalFiles(ctx context.Context) ([]string, error)
	Playlists(ctx context.Context) ([]models.Playlist, error)
}

// Player is the playback session as seen by the TUI.
type Player interface {
	Snapshot() player.State
	RequestPlay(ctx context.Context, src models.PlaybackSource) error
	TogglePlayPause(ctx context.Context) error
	SetVolume(ctx context.Context, fraction float64) error
	ToggleMute(ctx context.Context) error
	Previous()
	Next()
	Shuffle()
	Repeat()
}

type toast struct {
	note    player.Notification
	expires time.Time
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	catalog Catalog
	player  Player
	notes   <-chan player.Notification

	width  int
	height int

	lists    map[ViewState]*list.Model
	status   map[ViewState]string
	loaded   map[ViewState]bool
	input    textinput.Model
	querying bool

	now    player.State
	toasts []toast
	help   help.Model
	keys   keyMap
	clock  func() time.Time
}

// NewModel creates a new TUI model. notes may be nil when notifications are not wired.
func NewModel(ctx context.Context, catalog Catalog, p Player, notes <-chan player.Notification) *Model {
	input := textinput.New()
	input.Placeholder = "Search YouTube..."
	input.CharLimit = 200

	m := &Model{
		ctx:     ctx,
		view:    LocalView,
		catalog: catalog,
		player:  p,
		notes:   notes,
		lists:   make(map[ViewState]*list.Model, len(sections)),
		status:  make(map[ViewState]string, len(sections)),
		loaded:  make(map[ViewState]bool, len(sections)),
		input:   input,
		help:    help.New(),
		keys:    newKeyMap(),
		clock:   time.Now,
	}
	for _, v := range sections {
		l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
		l.Title = v.String()
		l.SetShowHelp(false)
		l.SetFilteringEnabled(false)
		m.lists[v] = &l
	}
	m.status[SearchView] = "Press / to search"
	return m
}

// Init loads the local files and starts the notification and refresh loops.
func (m *Model) Init() tea.Cmd {
	m.loaded[LocalView] = true
	m.status[LocalView] = "Loading local files..."
	return tea.Batch(m.fetchLocal(), m.waitForNotification(), tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range m.lists {
			l.SetSize(max(msg.Width-4, 0), max(msg.Height-12, 0))
		}
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		if m.querying {
			return m.handleQueryKeys(msg)
		}
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLocalFetched:
		data := msg.data.(localFetched)
		switch {
		case data.err != nil:
			m.status[LocalView] = "Error loading files: " + data.err.Error()
		case len(data.files) == 0:
			m.status[LocalView] = "No local files found"
		default:
			m.status[LocalView] = ""
		}
		return m, m.lists[LocalView].SetItems(localItems(data.files))

	case MsgSearchResults:
		data := msg.data.(searchResults)
		switch {
		case data.err != nil:
			m.status[SearchView] = "Search failed: " + data.err.Error()
		case len(data.videos) == 0:
			m.status[SearchView] = "No results found"
		default:
			m.status[SearchView] = ""
		}
		m.lists[SearchView].Title = fmt.Sprintf("Results for %q", data.query)
		return m, m.lists[SearchView].SetItems(videoItems(data.videos))

	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		switch {
		case data.err != nil:
			m.status[PlaylistsView] = "Error loading playlists: " + data.err.Error()
		case len(data.playlists) == 0:
			m.status[PlaylistsView] = "No playlists found"
		default:
			m.status[PlaylistsView] = ""
		}
		return m, m.lists[PlaylistsView].SetItems(playlistItems(data.playlists))

	case MsgPlayResult, MsgControlResult:
		m.now = m.player.Snapshot()
		return m, nil

	case MsgNotification:
		m.push(msg.data.(player.Notification))
		return m, m.waitForNotification()

	case MsgTick:
		now := msg.data.(time.Time)
		m.now = m.player.Snapshot()
		m.toasts = lo.Filter(m.toasts, func(t toast, _ int) bool { return t.expires.After(now) })
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		return m, m.switchTo(sections[(int(m.view)+1)%len(sections)])
	case key.Matches(msg, m.keys.search):
		m.querying = true
		cmd := m.switchTo(SearchView)
		return m, tea.Batch(cmd, m.input.Focus())
	case key.Matches(msg, m.keys.refresh):
		m.loaded[m.view] = false
		return m, m.switchTo(m.view)
	case key.Matches(msg, m.keys.enter):
		if src, ok := source(m.lists[m.view].SelectedItem()); ok {
			return m, m.play(src)
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		return m, m.control(m.player.TogglePlayPause)
	case key.Matches(msg, m.keys.volUp):
		return m, m.volume(volumeStep)
	case key.Matches(msg, m.keys.volDown):
		return m, m.volume(-volumeStep)
	case key.Matches(msg, m.keys.mute):
		return m, m.control(m.player.ToggleMute)
	case key.Matches(msg, m.keys.nextTrk):
		m.player.Next()
		return m, nil
	case key.Matches(msg, m.keys.prevTrk):
		m.player.Previous()
		return m, nil
	case key.Matches(msg, m.keys.shuffle):
		m.player.Shuffle()
		return m, nil
	case key.Matches(msg, m.keys.repeat):
		m.player.Repeat()
		return m, nil
	}

	return m.updateList(msg)
}

func (m *Model) handleQueryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.querying = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			m.push(player.Notification{Level: player.LevelWarning, Message: "Please enter a search term", At: m.clock()})
			return m, nil
		}
		m.querying = false
		m.input.Blur()
		m.status[SearchView] = "Searching YouTube..."
		return m, m.fetchSearch(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// switchTo shows v, loading its content on first visit.
func (m *Model) switchTo(v ViewState) tea.Cmd {
	m.view = v
	if m.loaded[v] {
		return nil
	}

	m.loaded[v] = true
	switch v {
	case LocalView:
		m.status[v] = "Loading local files..."
		return m.fetchLocal()
	case PlaylistsView:
		m.status[v] = "Loading playlists..."
		return m.fetchPlaylists()
	}
	return nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	l, cmd := m.lists[m.view].Update(msg)
	*m.lists[m.view] = l
	return m, cmd
}

func (m *Model) push(n player.Notification) {
	if n.At.IsZero() {
		n.At = m.clock()
	}
	m.toasts = append(m.toasts, toast{note: n, expires: n.At.Add(toastTTL)})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
}

func (m *Model) fetchLocal() tea.Cmd {
	return func() tea.Msg {
		files, err := m.catalog.LocalFiles(m.ctx)
		return localFetchedMsg(files, err)
	}
}

func (m *Model) fetchSearch(query string) tea.Cmd {
	return func() tea.Msg {
		videos, err := m.catalog.Search(m.ctx, query, services.DefaultMaxResults)
		return searchResultsMsg(query, videos, err)
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.catalog.Playlists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) play(src models.PlaybackSource) tea.Cmd {
	return func() tea.Msg {
		return playResultMsg(src, m.player.RequestPlay(m.ctx, src))
	}
}

func (m *Model) control(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return controlResultMsg(fn(m.ctx))
	}
}

func (m *Model) volume(delta float64) tea.Cmd {
	v := min(max(m.player.Snapshot().Volume+delta, 0), 1)
	return m.control(func(ctx context.Context) error { return m.player.SetVolume(ctx, v) })
}

func (m *Model) waitForNotification() tea.Cmd {
	if m.notes == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case n, ok := <-m.notes:
			if !ok {
				return nil
			}
			return notificationMsg(n)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.view == SearchView {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	if status := m.status[m.view]; status != "" {
		b.WriteString(styles.help.Render(status))
		b.WriteString("\n")
	} else {
		b.WriteString(m.lists[m.view].View())
		b.WriteString("\n")
	}

	for _, t := range m.toasts {
		b.WriteString(styles.level(t.note.Level).Render(t.note.Message))
		b.WriteString("\n")
	}

	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := lo.Map(sections, func(v ViewState, _ int) string {
		if v == m.view {
			return styles.active.Render(v.String())
		}
		return styles.tab.Render(v.String())
	})
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderNowPlaying() string {
	state := m.now
	if state.Source.IsAbsent() {
		line := "Nothing playing"
		if state.Loading {
			line = "Loading..."
		}
		return styles.footer.Render(styles.help.Render(line))
	}

	icon := "⏸"
	if state.Playing {
		icon = "▶"
	}
	if state.Loading {
		icon = "…"
	}

	volume := fmt.Sprintf("vol %d%%", int(state.Volume*100+0.5))
	if state.Muted {
		volume = "muted"
	}

	line := fmt.Sprintf("%s %s - %s  %s / %s  %s",
		icon,
		styles.ok.Render(state.Title()),
		state.Artist(),
		shared.FormatDuration(state.CurrentTime),
		shared.FormatDuration(state.Duration),
		volume,
	)
	return styles.footer.Render(line)
}

func (m *Model) helpKeys() []key.Binding {
	if m.querying {
		submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search"))
		return []key.Binding{submit, m.keys.back}
	}
	return m.keys.ShortHelp()
}
