package views

import (
	"strings"
	"unicode"

	"github.com/rivo/tview"
)

// clean prepares user-supplied text for a tview cell: it drops control
// characters and the emoji joiners and modifiers that tcell renders at the
// wrong width, then escapes color tags.
func clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(' ')
			continue
		}
		if unicode.IsControl(r) || isJoinerOrModifier(r) {
			continue
		}
		b.WriteRune(r)
	}
	return tview.Escape(b.String())
}

func isJoinerOrModifier(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tones
		return true
	case r == 0x200D: // zero width joiner
		return true
	case r >= 0xFE00 && r <= 0xFE0F, r >= 0xE0100 && r <= 0xE01EF:
		return true
	}
	return false
}
