// Package play implements the quiz screen: one question at a time with a
// countdown, answered with the number keys.
package play

import (
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tunequiz/internal/engine"
	"github.com/abhisek/tunequiz/internal/quiz"
	"github.com/abhisek/tunequiz/internal/router"
	"github.com/abhisek/tunequiz/internal/screen"
	"github.com/abhisek/tunequiz/internal/screens/results"
	"github.com/abhisek/tunequiz/internal/ui/components"
	"github.com/abhisek/tunequiz/internal/ui/layout"
)

const tickInterval = 100 * time.Millisecond

// Player is the part of the engine the quiz screen drives.
type Player interface {
	SubmitAnswer(choice int) error
	StopSession()
}

var (
	keyChoices = []key.Binding{
		key.NewBinding(key.WithKeys("1"), key.WithHelp("1-4", "Answer")),
		key.NewBinding(key.WithKeys("2")),
		key.NewBinding(key.WithKeys("3")),
		key.NewBinding(key.WithKeys("4")),
	}
	keyQuit = key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Quit quiz"))
)

type tickMsg time.Time

// PlayScreen shows the presented question and reacts to engine events for
// one session.
type PlayScreen struct {
	player    Player
	playlist  *quiz.Playlist
	sessionID string

	question engine.QuestionPresented
	shownAt  time.Time
	choices  components.Choices
	resolved *engine.QuestionResolved
	chosen   int
	score    int

	errMsg string
	done   bool

	now func() time.Time
}

var _ screen.Screen = (*PlayScreen)(nil)
var _ screen.KeyHintProvider = (*PlayScreen)(nil)
var _ screen.StatusProvider = (*PlayScreen)(nil)
var _ screen.BackHandler = (*PlayScreen)(nil)

// New creates a PlayScreen for the session that presented first.
func New(player Player, p *quiz.Playlist, first engine.QuestionPresented) *PlayScreen {
	s := &PlayScreen{
		player:    player,
		playlist:  p,
		sessionID: first.SessionID,
		now:       time.Now,
	}
	s.present(first)
	return s
}

func (s *PlayScreen) Init() tea.Cmd {
	return tickCmd()
}

func (s *PlayScreen) Title() string {
	if s.playlist != nil && s.playlist.Title != "" {
		return s.playlist.Title
	}
	return "Quiz"
}

func (s *PlayScreen) HeaderStatus() string {
	return formatStatus(s.score, s.question.Index, s.question.Total)
}

func (s *PlayScreen) KeyHints() []layout.KeyHint {
	return layout.Hints(keyChoices[0], keyQuit)
}

// Back stops the session. Nothing is recorded for an aborted session.
func (s *PlayScreen) Back() tea.Cmd {
	s.done = true
	s.player.StopSession()
	return func() tea.Msg { return router.PopScreenMsg{} }
}

func (s *PlayScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case engine.QuestionPresented:
		if msg.SessionID == s.sessionID {
			s.present(msg)
		}
		return s, nil

	case engine.QuestionResolved:
		if msg.SessionID == s.sessionID && msg.Index == s.question.Index {
			s.resolve(msg)
		}
		return s, nil

	case engine.SessionCompleted:
		if msg.SessionID != s.sessionID {
			return s, nil
		}
		s.done = true
		next := results.New(msg, s.playlist)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }

	case tickMsg:
		if s.done {
			return s, nil
		}
		return s, tickCmd()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *PlayScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	for i, b := range keyChoices {
		if !key.Matches(msg, b) {
			continue
		}
		if s.resolved != nil || s.chosen != quiz.NoChoice {
			return s, nil
		}
		if err := s.player.SubmitAnswer(i); err != nil {
			s.errMsg = err.Error()
			return s, nil
		}
		s.chosen = i
		return s, nil
	}
	return s, nil
}

func (s *PlayScreen) present(q engine.QuestionPresented) {
	s.question = q
	s.shownAt = s.now()
	s.resolved = nil
	s.chosen = quiz.NoChoice
	s.errMsg = ""

	labels := make([]string, len(q.Choices))
	for i, c := range q.Choices {
		labels[i] = c.Label()
	}
	s.choices = components.NewChoices(labels)
}

func (s *PlayScreen) resolve(r engine.QuestionResolved) {
	s.resolved = &r
	s.choices = s.choices.Reveal(r.CorrectChoice, r.Result.Choice)
	if r.Result.AnsweredCorrectly {
		s.score++
	}
}

// remaining returns the time left on the countdown. It freezes at the
// answer time once the question is resolved.
func (s *PlayScreen) remaining() time.Duration {
	elapsed := s.now().Sub(s.shownAt)
	if s.resolved != nil {
		elapsed = s.resolved.Result.AnswerTime
	}
	return max(s.question.Duration-elapsed, 0)
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
