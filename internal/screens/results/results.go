// Package results shows the per-question summary of a finished session.
package results

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/tunequiz/internal/engine"
	"github.com/abhisek/tunequiz/internal/quiz"
	"github.com/abhisek/tunequiz/internal/router"
	"github.com/abhisek/tunequiz/internal/screen"
	"github.com/abhisek/tunequiz/internal/session"
	"github.com/abhisek/tunequiz/internal/ui/layout"
	"github.com/abhisek/tunequiz/internal/ui/theme"
)

var keyDone = key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("Enter", "Back to playlists"))

// ResultsScreen displays the outcome of a session.
type ResultsScreen struct {
	result   engine.SessionCompleted
	playlist *quiz.Playlist
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)
var _ screen.StatusProvider = (*ResultsScreen)(nil)

// New creates a ResultsScreen.
func New(result engine.SessionCompleted, p *quiz.Playlist) *ResultsScreen {
	return &ResultsScreen{result: result, playlist: p}
}

func (s *ResultsScreen) Init() tea.Cmd {
	return nil
}

func (s *ResultsScreen) Title() string {
	return "Results"
}

func (s *ResultsScreen) HeaderStatus() string {
	return statusLabel(s.result.Status)
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	return layout.Hints(keyDone)
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && key.Matches(kmsg, keyDone) {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return s, nil
}

func (s *ResultsScreen) View(width, height int) string {
	sum := s.result.Summary
	var sections []string

	titleStyle := theme.Title
	if !sum.Perfect {
		titleStyle = titleStyle.Foreground(theme.Accent)
	}
	sections = append(sections, titleStyle.Render(sum.Title()))
	sections = append(sections, "")

	score := fmt.Sprintf("%d / %d correct", sum.Correct, sum.Total)
	if sum.TotalTime > 0 {
		score += fmt.Sprintf("   total %.1fs", sum.TotalTime.Seconds())
	}
	sections = append(sections, theme.Body.Render(score))
	sections = append(sections, theme.Subtitle.Render(
		fmt.Sprintf("Playlist %s   %s", statusLabel(s.result.Status), progressLabel(s.result))))

	if s.result.Err != nil {
		sections = append(sections, "", lipgloss.NewStyle().Foreground(theme.Error).
			Render("Progress not saved: "+s.result.Err.Error()))
	}

	if len(sum.Rows) > 0 {
		sections = append(sections, "", renderRows(sum.Rows, min(width-8, 76)))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func renderRows(rows []session.Row, width int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers("#", "Song", "", "Time").
		Width(width)

	for _, r := range rows {
		mark := "✗"
		switch {
		case r.Correct:
			mark = "✓"
		case r.TimedOut:
			mark = "⏱"
		}
		t.Row(fmt.Sprintf("%d", r.Index+1), songLabel(r.Song), mark, r.TimeLabel())
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		style := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return style.Foreground(theme.TextDim).Bold(true)
		}
		if col == 2 && row >= 0 && row < len(rows) {
			if rows[row].Correct {
				return style.Foreground(theme.Success)
			}
			return style.Foreground(theme.Error)
		}
		return style.Foreground(theme.Text)
	})
	return t.String()
}

func songLabel(song *quiz.Song) string {
	if song == nil {
		return "?"
	}
	return song.Artist + " - " + song.Title
}

func statusLabel(st quiz.Status) string {
	if st == quiz.StatusMastered {
		return "★ Mastered"
	}
	return "♪ Activated"
}

func progressLabel(r engine.SessionCompleted) string {
	if r.Total == 0 {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("(%d/%d remembered)", r.Completed, r.Total))
}
