package main

import (
	"context"
	"testing"
	"time"
)

func TestRecordingFits(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx, cancel := context.WithDeadline(context.Background(), now.Add(30*time.Second))
	defer cancel()

	tests := []struct {
		seconds int
		wantErr bool
	}{
		{seconds: 5},
		{seconds: 25},
		{seconds: 26, wantErr: true},
		{seconds: 30, wantErr: true},
		{seconds: 60, wantErr: true},
	}
	for _, tt := range tests {
		err := recordingFits(ctx, time.Duration(tt.seconds)*time.Second, now)
		if (err != nil) != tt.wantErr {
			t.Errorf("recordingFits(%ds) error = %v, wantErr %v", tt.seconds, err, tt.wantErr)
		}
	}
}

func TestRecordingFitsWithoutDeadline(t *testing.T) {
	if err := recordingFits(context.Background(), time.Hour, time.Now()); err != nil {
		t.Errorf("recordingFits without deadline = %v", err)
	}
}
