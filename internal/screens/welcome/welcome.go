// Package welcome is the home screen: the playlist picker grouped by
// mastery status.
package welcome

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tunequiz/internal/catalog"
	"github.com/abhisek/tunequiz/internal/quiz"
	"github.com/abhisek/tunequiz/internal/router"
	"github.com/abhisek/tunequiz/internal/screen"
	"github.com/abhisek/tunequiz/internal/screens/history"
	"github.com/abhisek/tunequiz/internal/screens/loading"
	"github.com/abhisek/tunequiz/internal/store"
	"github.com/abhisek/tunequiz/internal/ui/components"
	"github.com/abhisek/tunequiz/internal/ui/layout"
	"github.com/abhisek/tunequiz/internal/ui/theme"
)

// Tracker reports persisted progress for a playlist.
type Tracker interface {
	Progress(ctx context.Context, p *quiz.Playlist) (int, quiz.Status, error)
}

// Deps holds what the welcome screen and the screens it opens need.
type Deps struct {
	Catalog *catalog.Catalog
	Tracker Tracker
	Engine  loading.Engine

	// History is optional; the history key is disabled without it.
	History store.EventRepo
}

var (
	keyPlay    = key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Play"))
	keyHistory = key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "History"))
)

type entry struct {
	playlist  *quiz.Playlist
	completed int
	status    quiz.Status
}

type playlistsLoadedMsg struct {
	entries []entry
	err     error
}

// WelcomeScreen lists the catalog's playlists in Activated and Mastered
// sections.
type WelcomeScreen struct {
	deps    Deps
	menu    components.Menu
	loaded  bool
	count   int
	errMsg  string
	history key.Binding
}

var _ screen.Screen = (*WelcomeScreen)(nil)
var _ screen.KeyHintProvider = (*WelcomeScreen)(nil)
var _ screen.Resumer = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen.
func New(deps Deps) *WelcomeScreen {
	h := keyHistory
	h.SetEnabled(deps.History != nil)
	return &WelcomeScreen{deps: deps, history: h}
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return w.load()
}

// Resume reloads progress, which a finished session may have changed.
func (w *WelcomeScreen) Resume() tea.Cmd {
	return w.load()
}

func (w *WelcomeScreen) Title() string {
	return "Playlists"
}

func (w *WelcomeScreen) KeyHints() []layout.KeyHint {
	return layout.Hints(components.KeyUp, keyPlay, w.history)
}

func (w *WelcomeScreen) load() tea.Cmd {
	cat, tracker := w.deps.Catalog, w.deps.Tracker
	return func() tea.Msg {
		ctx := context.Background()
		var entries []entry
		for _, p := range cat.Playlists() {
			n, st, err := tracker.Progress(ctx, p)
			if err != nil {
				return playlistsLoadedMsg{err: fmt.Errorf("load progress for %s: %w", p.ID, err)}
			}
			entries = append(entries, entry{playlist: p, completed: n, status: st})
		}
		return playlistsLoadedMsg{entries: entries}
	}
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case playlistsLoadedMsg:
		w.loaded = true
		if msg.err != nil {
			w.errMsg = msg.err.Error()
			return w, nil
		}
		w.errMsg = ""
		w.setEntries(msg.entries)
		return w, nil

	case tea.KeyMsg:
		if key.Matches(msg, w.history) {
			next := history.New(w.deps.History, "")
			return w, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
		var cmd tea.Cmd
		w.menu, cmd = w.menu.Update(msg)
		return w, cmd
	}
	return w, nil
}

// setEntries rebuilds the menu, keeping the selected playlist if it is
// still listed.
func (w *WelcomeScreen) setEntries(entries []entry) {
	var prevLabel string
	if item, ok := w.menu.Current(); ok {
		prevLabel = item.Label
	}

	byStatus := make(map[quiz.Status][]entry)
	for _, e := range entries {
		byStatus[e.status] = append(byStatus[e.status], e)
	}

	var items []components.MenuItem
	for _, st := range quiz.AllStatuses() {
		group := byStatus[st]
		if len(group) == 0 {
			continue
		}
		items = append(items, components.MenuItem{Label: sectionTitle(st), Header: true})
		for _, e := range group {
			items = append(items, w.menuItem(e))
		}
	}

	w.menu = components.NewMenu(items)
	w.count = len(entries)
	for i, it := range items {
		if !it.Header && it.Label == prevLabel {
			w.menu.Selected = i
			break
		}
	}
}

func (w *WelcomeScreen) menuItem(e entry) components.MenuItem {
	title := e.playlist.Title
	if title == "" {
		title = e.playlist.ID
	}
	p, eng := e.playlist, w.deps.Engine
	return components.MenuItem{
		Label:  title,
		Detail: fmt.Sprintf("%d/%d", e.completed, e.playlist.Len()),
		Action: func() tea.Cmd {
			next := loading.New(eng, p)
			return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		},
	}
}

func sectionTitle(st quiz.Status) string {
	switch st {
	case quiz.StatusMastered:
		return "★ Mastered"
	default:
		return "♪ Activated"
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	sections := []string{RenderBanner(width), ""}

	switch {
	case w.errMsg != "":
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Error).Render("Error: "+w.errMsg))
	case !w.loaded:
		sections = append(sections, theme.Hint.Render("Loading playlists..."))
	case w.count == 0:
		sections = append(sections, theme.Hint.Render("No playlists found. Point TUNEQUIZ_CATALOG at a catalog file."))
	default:
		sections = append(sections, theme.Subtitle.Render("Pick a playlist and name that tune!"), "")
		menu := strings.TrimRight(w.menu.View(), "\n")
		if !layout.IsCompactWidth(width) {
			menu = theme.Card.Render(menu)
		}
		sections = append(sections, menu)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
