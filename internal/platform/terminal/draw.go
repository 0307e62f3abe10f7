package terminal

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// DrawLines replaces the screen contents with lines, one per row, clipped
// to the screen. Wide and combined characters are laid out by grapheme
// cluster.
func (t *Terminal) DrawLines(lines []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
	width, height := t.screen.Size()
	for y, line := range lines {
		if y >= height {
			break
		}
		drawLine(t.screen, y, width, line)
	}
	t.screen.Show()
}

func drawLine(screen tcell.Screen, y, width int, line string) {
	x := 0
	state := -1
	rest := line
	for rest != "" {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if x+w > width {
			return
		}
		runes := []rune(cluster)
		screen.SetContent(x, y, runes[0], runes[1:], tcell.StyleDefault)
		x += w
	}
}

// StringWidth returns the number of cells s occupies.
func StringWidth(s string) int {
	return uniseg.StringWidth(s)
}

// Truncate shortens s to at most width cells without splitting a
// grapheme cluster.
func Truncate(s string, width int) string {
	n := 0
	state := -1
	rest := s
	for rest != "" {
		_, next, w, newState := uniseg.FirstGraphemeClusterInString(rest, state)
		if n+w > width {
			return s[:len(s)-len(rest)]
		}
		n += w
		rest, state = next, newState
	}
	return s
}
