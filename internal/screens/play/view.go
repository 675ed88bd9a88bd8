package play

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tunequiz/internal/ui/components"
	"github.com/abhisek/tunequiz/internal/ui/theme"
)

const (
	artCols = 24
	artRows = 8

	// Below this content height the artwork is hidden.
	artMinHeight = 26
)

func formatStatus(score, index, total int) string {
	return fmt.Sprintf("✓ %d   Q %d/%d", score, index+1, total)
}

func (s *PlayScreen) View(width, height int) string {
	var sections []string

	sections = append(sections, theme.Subtitle.Render(
		fmt.Sprintf("Question %d of %d", s.question.Index+1, s.question.Total)))
	sections = append(sections, "")

	if height >= artMinHeight {
		sections = append(sections, s.renderArtwork(), "")
	}

	sections = append(sections, s.renderPrompt(), "")

	barWidth := min(width-8, 60)
	sections = append(sections, components.NewCountdown(
		s.remaining().Seconds(), s.question.Duration.Seconds(), barWidth).View())
	sections = append(sections, "")

	sections = append(sections, s.choices.View(width-8))

	if s.resolved != nil {
		sections = append(sections, "", s.renderFeedback())
	}
	if s.errMsg != "" {
		sections = append(sections, "", lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (s *PlayScreen) renderArtwork() string {
	if s.question.Picture != nil {
		return components.Artwork(s.question.Picture.Image, artCols, artRows)
	}

	// Empty slot: the picture was not loaded.
	return lipgloss.NewStyle().
		Width(artCols).
		Height(artRows).
		Align(lipgloss.Center, lipgloss.Center).
		Background(theme.BgCard).
		Foreground(theme.TextDim).
		Render("♪")
}

func (s *PlayScreen) renderPrompt() string {
	prompt := theme.Body.Bold(true).Render("Name that tune!")
	if !s.question.HasSample {
		prompt += "  " + theme.Hint.Render("(no sample)")
	}
	return prompt
}

func (s *PlayScreen) renderFeedback() string {
	r := s.resolved.Result
	var b strings.Builder
	switch {
	case r.TimedOut:
		b.WriteString(theme.Incorrect.Render("Time's up!"))
	case r.AnsweredCorrectly:
		b.WriteString(theme.Correct.Render(fmt.Sprintf("Correct! %.1fs", r.Seconds())))
	default:
		b.WriteString(theme.Incorrect.Render("Not quite."))
	}
	if song := s.question.Song; song != nil && !r.AnsweredCorrectly {
		b.WriteString("  " + theme.Hint.Render(fmt.Sprintf("It was %s - %s", song.Artist, song.Title)))
	}
	return b.String()
}
