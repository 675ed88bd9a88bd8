package layout

import (
	"strings"
	"testing"

	"charm.land/bubbles/v2/key"
	"charm.land/lipgloss/v2"
)

func TestHints(t *testing.T) {
	enter := key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Play"))
	hidden := key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "Hidden"))
	hidden.SetEnabled(false)

	got := Hints(enter, hidden)
	if len(got) != 1 {
		t.Fatalf("expected 1 hint, got %d", len(got))
	}
	if got[0].Key != "Enter" || got[0].Description != "Play" {
		t.Errorf("unexpected hint %+v", got[0])
	}
}

func TestIsTooSmall(t *testing.T) {
	tests := []struct {
		w, h int
		want bool
	}{
		{80, 24, false},
		{79, 24, true},
		{80, 23, true},
		{120, 40, false},
	}
	for _, tt := range tests {
		if got := IsTooSmall(tt.w, tt.h); got != tt.want {
			t.Errorf("IsTooSmall(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestRenderHeader(t *testing.T) {
	h := RenderHeader("Quiz", "Q 2/5", 80)
	for _, want := range []string{"TuneQuiz", "Quiz", "Q 2/5"} {
		if !strings.Contains(h, want) {
			t.Errorf("header missing %q", want)
		}
	}
}

func TestRenderFrameFillsHeight(t *testing.T) {
	header := RenderHeader("", "", 80)
	footer := RenderFooter([]KeyHint{{Key: "Esc", Description: "Back"}}, 80)
	frame := RenderFrame(header, "body", footer, 80, 24)
	if got := lipgloss.Height(frame); got != 24 {
		t.Errorf("frame height = %d, want 24", got)
	}
}
