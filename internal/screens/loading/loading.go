// Package loading preloads a playlist's assets and hands over to the quiz
// screen once the session presents its first question.
package loading

import (
	"context"
	"fmt"
	"sync/atomic"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tunequiz/internal/engine"
	"github.com/abhisek/tunequiz/internal/quiz"
	"github.com/abhisek/tunequiz/internal/router"
	"github.com/abhisek/tunequiz/internal/screen"
	"github.com/abhisek/tunequiz/internal/screens/play"
	"github.com/abhisek/tunequiz/internal/screens/results"
	"github.com/abhisek/tunequiz/internal/ui/theme"
)

// Engine is the part of the engine the loading and quiz screens use.
type Engine interface {
	play.Player
	Preload(ctx context.Context, p *quiz.Playlist) error
	CancelPreload()
	StartSession(ctx context.Context, p *quiz.Playlist) (string, error)
}

type preloadFailedMsg struct{ err error }

type sessionStartedMsg struct {
	id  string
	err error
}

// LoadingScreen waits for the preload to finish, starts the session and
// replaces itself with the quiz screen.
type LoadingScreen struct {
	engine   Engine
	playlist *quiz.Playlist
	spinner  spinner.Model

	report   *engine.PreloadCompleted
	starting bool
	errMsg   string

	// abandoned is set by Back and read by the start command, which runs
	// on another goroutine.
	abandoned atomic.Bool
}

var _ screen.Screen = (*LoadingScreen)(nil)
var _ screen.BackHandler = (*LoadingScreen)(nil)

// New creates a LoadingScreen for p.
func New(eng Engine, p *quiz.Playlist) *LoadingScreen {
	return &LoadingScreen{
		engine:   eng,
		playlist: p,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary)),
		),
	}
}

func (s *LoadingScreen) Init() tea.Cmd {
	eng, p := s.engine, s.playlist
	preload := func() tea.Msg {
		if err := eng.Preload(context.Background(), p); err != nil {
			return preloadFailedMsg{err: err}
		}
		return nil
	}
	return tea.Batch(s.spinner.Tick, preload)
}

func (s *LoadingScreen) Title() string {
	return "Loading"
}

// Back abandons the load. The preload is cancelled and a session that
// already started is stopped.
func (s *LoadingScreen) Back() tea.Cmd {
	s.abandoned.Store(true)
	if s.starting {
		s.engine.StopSession()
	}
	eng := s.engine
	return func() tea.Msg {
		eng.CancelPreload()
		return router.PopScreenMsg{}
	}
}

func (s *LoadingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case engine.PreloadCompleted:
		if msg.Playlist == nil || msg.Playlist.ID != s.playlist.ID || s.starting {
			return s, nil
		}
		s.report = &msg
		s.starting = true
		return s, s.startSession()

	case preloadFailedMsg:
		s.errMsg = msg.err.Error()
		return s, nil

	case sessionStartedMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
		}
		return s, nil

	// The first question may arrive before sessionStartedMsg.
	case engine.QuestionPresented:
		if !s.starting || msg.Index != 0 {
			return s, nil
		}
		next := play.New(s.engine, s.playlist, msg)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }

	case engine.SessionCompleted:
		if !s.starting || msg.PlaylistID != s.playlist.ID {
			return s, nil
		}
		next := results.New(msg, s.playlist)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	}
	return s, nil
}

// startSession starts the session unless the screen was abandoned. A
// session started while Back ran is stopped again.
func (s *LoadingScreen) startSession() tea.Cmd {
	eng, p := s.engine, s.playlist
	return func() tea.Msg {
		if s.abandoned.Load() {
			return nil
		}
		id, err := eng.StartSession(context.Background(), p)
		if err == nil && s.abandoned.Load() {
			eng.StopSession()
			return nil
		}
		return sessionStartedMsg{id: id, err: err}
	}
}

func (s *LoadingScreen) View(width, height int) string {
	title := s.playlist.Title
	if title == "" {
		title = s.playlist.ID
	}

	var content string
	switch {
	case s.errMsg != "":
		content = lipgloss.JoinVertical(lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render("Could not start "+title),
			"",
			theme.Body.Render(s.errMsg),
			"",
			theme.Hint.Render("Press Esc to go back"),
		)
	case s.report != nil:
		r := s.report.Report
		content = lipgloss.JoinVertical(lipgloss.Center,
			s.spinner.View()+" "+theme.Body.Render("Starting "+title+"..."),
			"",
			theme.Hint.Render(fmt.Sprintf("%d assets loaded, %d failed", r.Fetched+r.Skipped, r.Failed)),
		)
	default:
		content = lipgloss.JoinVertical(lipgloss.Center,
			s.spinner.View()+" "+theme.Body.Render("Loading "+title+"..."),
			"",
			theme.Hint.Render(fmt.Sprintf("%d songs", s.playlist.Len())),
		)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
