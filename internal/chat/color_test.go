package chat

import (
	"math"
	"testing"
)

func TestTextColorThreshold(t *testing.T) {
	tests := []struct {
		bg   string
		want string
	}{
		{"#7F7F7F", TextLight},
		{"#808080", TextDark},
		{"#000000", TextLight},
		{"#ffffff", TextDark},
		{"#6b7280", TextLight},
		{"#FFFF00", TextDark},
		{"not-a-color", TextLight},
		{"#12345", TextLight},
		{"#GGGGGG", TextLight},
		{"", TextLight},
	}
	for _, tt := range tests {
		t.Run(tt.bg, func(t *testing.T) {
			if got := TextColorFor(tt.bg); got != tt.want {
				t.Errorf("TextColorFor(%q) = %s, want %s", tt.bg, got, tt.want)
			}
		})
	}
}

func TestLuminanceNearThreshold(t *testing.T) {
	l, ok := Luminance("#7F7F7F")
	if !ok {
		t.Fatal("Luminance(#7F7F7F) not ok")
	}
	if math.Abs(l-127.0/255) > 1e-9 || l >= 0.5 {
		t.Errorf("Luminance(#7F7F7F) = %v, want ~0.498", l)
	}
	l, _ = Luminance("#808080")
	if l <= 0.5 {
		t.Errorf("Luminance(#808080) = %v, want > 0.5", l)
	}
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#AbCdEf", "#abcdef", true},
		{"abcdef", "#abcdef", true},
		{" #00ff00 ", "#00ff00", true},
		{"#abc", "", false},
		{"#abcdefa", "", false},
		{"#-12345", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeColor(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeColor(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBubbleColorPriority(t *testing.T) {
	tests := []struct {
		name      string
		msgColor  string
		outgoing  bool
		session   string
		preferred string
		want      string
	}{
		{"outgoing uses message color", "#112233", true, "#445566", "#778899", "#112233"},
		{"outgoing falls back to session", "", true, "#445566", "#778899", "#445566"},
		{"outgoing falls back to preference", "", true, "", "#778899", "#778899"},
		{"outgoing skips malformed", "bogus", true, "#zzzzzz", "#778899", "#778899"},
		{"outgoing default", "", true, "", "", DefaultColor},
		{"incoming uses message color", "#112233", false, "#445566", "#778899", "#112233"},
		{"incoming ignores session", "", false, "#445566", "#778899", DefaultColor},
		{"incoming malformed", "#12", false, "", "", DefaultColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BubbleColor(Message{ColorTag: tt.msgColor}, tt.outgoing, tt.session, tt.preferred)
			if got != tt.want {
				t.Errorf("BubbleColor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGroupAvatarDeterministic(t *testing.T) {
	if got := GroupAvatar(4, "team.png"); got != "team.png" {
		t.Errorf("GroupAvatar with ref = %q", got)
	}
	a, b := GroupAvatar(17, ""), GroupAvatar(17, "")
	if a != b || a == "" {
		t.Errorf("GroupAvatar(17) = %q then %q", a, b)
	}
}

func TestGroupAvatarExtremeIDs(t *testing.T) {
	for _, id := range []int64{0, -1, -17, math.MaxInt64, math.MinInt64} {
		if got := GroupAvatar(id, ""); got == "" {
			t.Errorf("GroupAvatar(%d) is empty", id)
		}
	}
}
