package chat

import (
	"strconv"
	"strings"
)

const (
	// DefaultColor is the neutral gray used when no valid bubble color is known.
	DefaultColor = "#6b7280"

	TextDark  = "#000000"
	TextLight = "#ffffff"
)

// NormalizeColor returns c as lower-case "#rrggbb", accepting an optional
// leading '#'. ok is false for anything that is not exactly six hex digits.
func NormalizeColor(c string) (string, bool) {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	if len(c) != 6 {
		return "", false
	}
	if _, err := strconv.ParseUint(c, 16, 32); err != nil {
		return "", false
	}
	return "#" + strings.ToLower(c), true
}

// Luminance returns the perceptual luminance of a color in [0, 1].
func Luminance(c string) (float64, bool) {
	norm, ok := NormalizeColor(c)
	if !ok {
		return 0, false
	}
	v, _ := strconv.ParseUint(norm[1:], 16, 32)
	r := float64(v >> 16 & 0xff)
	g := float64(v >> 8 & 0xff)
	b := float64(v & 0xff)
	return (0.299*r + 0.587*g + 0.114*b) / 255, true
}

// TextColorFor picks black or white text for a bubble background. Malformed
// backgrounds are treated as dark.
func TextColorFor(bg string) string {
	l, ok := Luminance(bg)
	if ok && l > 0.5 {
		return TextDark
	}
	return TextLight
}

// BubbleColor resolves the background of a message bubble. Outgoing
// messages try the stored message color, the session color and the stored
// preference in that order; incoming ones only the message color. Invalid
// candidates are skipped.
func BubbleColor(msg Message, outgoing bool, sessionColor, preferred string) string {
	candidates := []string{msg.ColorTag}
	if outgoing {
		candidates = append(candidates, sessionColor, preferred)
	}
	for _, c := range candidates {
		if norm, ok := NormalizeColor(c); ok {
			return norm
		}
	}
	return DefaultColor
}
