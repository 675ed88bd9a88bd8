package history

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tunequiz/internal/router"
	"github.com/abhisek/tunequiz/internal/screen"
	"github.com/abhisek/tunequiz/internal/store"
	"github.com/abhisek/tunequiz/internal/ui/components"
	"github.com/abhisek/tunequiz/internal/ui/layout"
	"github.com/abhisek/tunequiz/internal/ui/theme"
)

const sessionLimit = 50

var (
	keyToggle = key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Details"))
	keyBack   = key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Back"))
)

type historyLoadedMsg struct {
	Sessions []store.SessionRecord
	Err      error
}

type answersLoadedMsg struct {
	SessionID string
	Answers   []store.AnswerRecord
	Err       error
}

// HistoryScreen displays past sessions and their answers.
type HistoryScreen struct {
	eventRepo  store.EventRepo
	playlistID string

	sessions []store.SessionRecord
	answers  map[string][]store.AnswerRecord
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen. An empty playlistID lists every
// playlist.
func New(eventRepo store.EventRepo, playlistID string) *HistoryScreen {
	return &HistoryScreen{
		eventRepo:  eventRepo,
		playlistID: playlistID,
		answers:    make(map[string][]store.AnswerRecord),
		expanded:   make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo, id := s.eventRepo, s.playlistID
	return func() tea.Msg {
		sessions, err := repo.RecentSessions(context.Background(), id, sessionLimit)
		return historyLoadedMsg{Sessions: sessions, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return append(layout.Hints(keyToggle, components.KeyUp), layout.Hints(keyBack)...)
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.sessions = msg.Sessions
		}
		s.loaded = true
		return s, nil

	case answersLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.answers[msg.SessionID] = msg.Answers
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keyBack):
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case key.Matches(msg, components.KeyUp):
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case key.Matches(msg, components.KeyDown):
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
			return s, nil
		case key.Matches(msg, keyToggle):
			return s, s.toggle()
		}
	}
	return s, nil
}

// toggle expands the selected session, loading its answers on first use.
func (s *HistoryScreen) toggle() tea.Cmd {
	if s.selected >= len(s.sessions) {
		return nil
	}
	s.expanded[s.selected] = !s.expanded[s.selected]
	if !s.expanded[s.selected] {
		return nil
	}

	id := s.sessions[s.selected].SessionID
	if _, ok := s.answers[id]; ok {
		return nil
	}
	repo := s.eventRepo
	return func() tea.Msg {
		answers, err := repo.SessionAnswers(context.Background(), id)
		return answersLoadedMsg{SessionID: id, Answers: answers, Err: err}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.sessions) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No sessions yet. Pick a playlist and play!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, sess := range s.sessions {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		title := sess.PlaylistTitle
		if title == "" {
			title = sess.PlaylistID
		}
		line := fmt.Sprintf("%s%s  %-24s  %d/%d correct  %s  %s",
			prefix,
			sess.Timestamp.Format("Jan 02 15:04"),
			truncate(title, 24),
			sess.Correct, sess.Questions,
			formatDuration(sess.Duration.Seconds()),
			sess.Status)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(s.renderAnswers(sess.SessionID, width))
		}
	}

	return b.String()
}

func (s *HistoryScreen) renderAnswers(sessionID string, width int) string {
	answers, ok := s.answers[sessionID]
	if !ok {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Hint.Render("    Loading answers...")) + "\n"
	}
	if len(answers) == 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Hint.Render("    No answers recorded")) + "\n"
	}

	var b strings.Builder
	for _, a := range answers {
		mark, style := "✗", theme.Incorrect
		switch {
		case a.Correct:
			mark, style = "✓", theme.Correct
		case a.TimedOut:
			mark = "⏱"
		}
		line := fmt.Sprintf("    %s  Q%d  %-20s  %.1fs", mark, a.QuestionIndex+1, truncate(a.SongID, 20), a.Time.Seconds())
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.UnsetBold().Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatDuration(secs float64) string {
	total := int(secs)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
