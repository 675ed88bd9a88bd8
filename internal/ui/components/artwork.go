package components

import (
	"image"
	"strings"

	"charm.land/lipgloss/v2"
)

// Artwork renders a small thumbnail of an image using half-block
// characters: each cell shows two vertically stacked pixels.
func Artwork(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return ""
	}

	sample := func(x, y int) (int, int) {
		return b.Min.X + x*b.Dx()/cols, b.Min.Y + y*b.Dy()/(rows*2)
	}

	var sb strings.Builder
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			tx, ty := sample(c, r*2)
			bx, by := sample(c, r*2+1)
			sb.WriteString(lipgloss.NewStyle().
				Foreground(img.At(tx, ty)).
				Background(img.At(bx, by)).
				Render("▀"))
		}
		if r < rows-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
