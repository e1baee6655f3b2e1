package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func TestFlashExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	var changes int
	f.SetOnChange(func() { changes++ })
	f.Warn("Recording too short")

	msg := f.Current()
	if msg == nil || msg.Level != FlashWarn || msg.Text != "Recording too short" {
		t.Fatalf("Current() = %+v", msg)
	}
	now = now.Add(7 * time.Second)
	if f.Current() != nil {
		t.Error("flash still visible after expiry")
	}
	if changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}
}

func TestFlashErrIgnoresCancellation(t *testing.T) {
	f := NewFlashModel()
	f.Err("Load failed", fmt.Errorf("GET /conversations: %w", context.Canceled))
	if f.Current() != nil {
		t.Errorf("canceled error flashed: %+v", f.Current())
	}
	f.Err("Load failed", errors.New("boom"))
	if msg := f.Current(); msg == nil || msg.Text != "Load failed: boom" || msg.Level != FlashErr {
		t.Errorf("Current() = %+v", msg)
	}
}

func TestHexColor(t *testing.T) {
	if got := HexColor("#ff0000", tcell.ColorGray); got.Hex() != 0xff0000 {
		t.Errorf("HexColor(#ff0000) = %06x", got.Hex())
	}
	if got := HexColor("", tcell.ColorGray); got != tcell.ColorGray {
		t.Errorf("HexColor(\"\") = %v, want fallback", got)
	}
}

func TestFormatHintsKeepsOrder(t *testing.T) {
	got := FormatHints([]MenuHint{{Key: "Enter", Description: "Open"}, {Key: "q", Description: "Quit"}}, "blue")
	if strings.Index(got, "Open") > strings.Index(got, "Quit") {
		t.Errorf("hints out of order: %q", got)
	}
}
