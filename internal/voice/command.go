package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultCommand records mono 16kHz WAV to stdout with ALSA.
var DefaultCommand = []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav", "-"}

// startupWindow is how long Start waits for the capture program to fail
// before assuming the device is open.
const startupWindow = 150 * time.Millisecond

// CommandMicrophone captures audio by running an external program that
// writes the recording to stdout until interrupted.
type CommandMicrophone struct {
	Argv []string
}

// Start launches the capture program.
func (m CommandMicrophone) Start(ctx context.Context) (Capture, error) {
	argv := m.Argv
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrNoDevice, argv[0])
	}

	c := &commandCapture{done: make(chan struct{})}
	c.cmd = exec.CommandContext(ctx, path, argv[1:]...)
	c.cmd.Stdout = &c.out
	c.cmd.Stderr = &c.errOut
	if err := c.cmd.Start(); err != nil {
		return nil, classify(err, "")
	}
	go func() {
		c.waitErr = c.cmd.Wait()
		close(c.done)
	}()

	select {
	case <-c.done:
		// Exited during startup: the device could not be opened.
		return nil, classify(c.waitErr, c.errOut.String())
	case <-time.After(startupWindow):
		return c, nil
	}
}

type commandCapture struct {
	cmd     *exec.Cmd
	out     bytes.Buffer
	errOut  bytes.Buffer
	done    chan struct{}
	waitErr error
	once    sync.Once
}

func (c *commandCapture) Stop() ([]byte, error) {
	var data []byte
	var err error
	c.once.Do(func() {
		_ = c.cmd.Process.Signal(os.Interrupt)
		select {
		case <-c.done:
		case <-time.After(2 * time.Second):
			_ = c.cmd.Process.Kill()
			<-c.done
		}
		data = c.out.Bytes()
		if len(data) == 0 {
			err = classify(c.waitErr, c.errOut.String())
		}
	})
	return data, err
}

func (c *commandCapture) Abort() {
	c.once.Do(func() {
		_ = c.cmd.Process.Kill()
		<-c.done
	})
}

func classify(err error, stderr string) error {
	lower := strings.ToLower(stderr)
	switch {
	case errors.Is(err, os.ErrPermission), strings.Contains(lower, "permission denied"):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, strings.TrimSpace(stderr))
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist),
		strings.Contains(lower, "no such file"), strings.Contains(lower, "no such device"),
		strings.Contains(lower, "audio open error"):
		return fmt.Errorf("%w: %s", ErrNoDevice, strings.TrimSpace(stderr))
	case err == nil:
		return fmt.Errorf("%w: capture produced no audio", ErrNoDevice)
	default:
		return fmt.Errorf("capture: %w", err)
	}
}
