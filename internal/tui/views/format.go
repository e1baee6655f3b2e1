package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/uniseg"
)

// stamp formats a message or conversation time: clock time for today, date
// otherwise, nothing when absent.
func stamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("02/01")
}

// clock formats whole seconds as m:ss.
func clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// wrap breaks s into lines no wider than width terminal cells. Words wider
// than a line are split by grapheme cluster.
func wrap(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineWidth = 0
	}
	for _, word := range strings.Fields(s) {
		w := uniseg.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+w > width {
			flush()
		}
		if w > width {
			g := uniseg.NewGraphemes(word)
			for g.Next() {
				cw := g.Width()
				if lineWidth+cw > width {
					flush()
				}
				line.WriteString(g.Str())
				lineWidth += cw
			}
			continue
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += w
	}
	if lineWidth > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}
