package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tunequiz/internal/ui/theme"
)

// Choices renders the four numbered answer options of a question. Once
// revealed, the correct option is green and a wrong pick is red.
type Choices struct {
	Options []string

	Revealed bool
	Correct  int
	Chosen   int // -1 when nothing was picked
}

// NewChoices creates an unrevealed choice list.
func NewChoices(options []string) Choices {
	return Choices{Options: options, Correct: -1, Chosen: -1}
}

// Reveal marks the correct and chosen options.
func (c Choices) Reveal(correct, chosen int) Choices {
	c.Revealed = true
	c.Correct = correct
	c.Chosen = chosen
	return c
}

// View renders one option per line, prefixed with its number key.
func (c Choices) View(width int) string {
	lines := make([]string, 0, len(c.Options))
	for i, opt := range c.Options {
		line := fmt.Sprintf(" %d  %s", i+1, opt)

		style := theme.Unselected
		switch {
		case !c.Revealed:
		case i == c.Correct:
			style = theme.Correct
			line += "  ✓"
		case i == c.Chosen:
			style = theme.Incorrect
			line += "  ✗"
		default:
			style = theme.Disabled
		}
		lines = append(lines, style.Render(line))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 2).
		Width(min(width, 72))
	return box.Render(strings.Join(lines, "\n"))
}
