package app

import (
	"fmt"
	"log/slog"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tunequiz/internal/catalog"
	"github.com/abhisek/tunequiz/internal/engine"
	"github.com/abhisek/tunequiz/internal/quiz"
	"github.com/abhisek/tunequiz/internal/router"
	"github.com/abhisek/tunequiz/internal/screen"
	"github.com/abhisek/tunequiz/internal/screens/loading"
	"github.com/abhisek/tunequiz/internal/screens/welcome"
	"github.com/abhisek/tunequiz/internal/store"
	"github.com/abhisek/tunequiz/internal/ui/layout"
)

// Options holds the dependencies of the TUI.
type Options struct {
	Engine  *engine.Engine
	Catalog *catalog.Catalog
	History store.EventRepo
	Logger  *slog.Logger

	// Start, if set, opens the loading screen for this playlist right away.
	Start *quiz.Playlist
}

// eventsClosedMsg is sent once the engine's event channel is closed.
type eventsClosedMsg struct{}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	events <-chan engine.Event
	start  screen.Screen
	logger *slog.Logger
	width  int
	height int
}

// newAppModel creates a new AppModel with the welcome screen.
func newAppModel(opts Options) AppModel {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	deps := welcome.Deps{
		Catalog: opts.Catalog,
		Tracker: opts.Engine.Tracker(),
		Engine:  opts.Engine,
		History: opts.History,
	}
	m := AppModel{
		router: router.New(welcome.New(deps)),
		events: opts.Engine.Events(),
		logger: logger,
	}
	if opts.Start != nil {
		m.start = loading.New(opts.Engine, opts.Start)
	}
	return m
}

// waitForEvent blocks on the engine's event channel and delivers the next
// event as a message.
func waitForEvent(ch <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return ev
	}
}

func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(m.events), m.router.Active().Init()}
	if m.start != nil {
		cmds = append(cmds, func() tea.Msg { return router.PushScreenMsg{Screen: m.start} })
	}
	return tea.Batch(cmds...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventsClosedMsg:
		m.logger.Debug("engine event channel closed")
		return m, nil

	case engine.Event:
		m.logger.Debug("engine event", "type", fmt.Sprintf("%T", msg))
		cmd := m.router.Update(msg)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.BackHandler); ok {
				return m, h.Back()
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	v.WindowTitle = "TuneQuiz"
	return v
}

// render composes header, active screen and footer for the current size.
func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title, status := "", ""
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.HeaderStatus()
		}
	}

	header := layout.RenderHeader(title, status, m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
		}
	}
	footerHints = append(footerHints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
