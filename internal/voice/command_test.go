package voice

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		stderr string
		want   error
	}{
		{"permission stderr", errors.New("exit status 1"), "arecord: main:830: audio open error: Permission denied", ErrPermissionDenied},
		{"os permission", os.ErrPermission, "", ErrPermissionDenied},
		{"no device", errors.New("exit status 1"), "arecord: main:830: audio open error: No such file or directory", ErrNoDevice},
		{"missing binary", exec.ErrNotFound, "", ErrNoDevice},
		{"silent exit", nil, "", ErrNoDevice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err, tt.stderr); !errors.Is(got, tt.want) {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandMicrophoneMissingBinary(t *testing.T) {
	mic := CommandMicrophone{Argv: []string{"chatline-no-such-recorder"}}
	_, err := mic.Start(context.Background())
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("Start err = %v, want ErrNoDevice", err)
	}
}
