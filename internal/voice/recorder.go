// Package voice runs press-and-hold voice capture sessions.
package voice

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
)

// DefaultDebounce separates a tap from a hold.
const DefaultDebounce = 200 * time.Millisecond

// Microphone starts captures.
type Microphone interface {
	Start(ctx context.Context) (Capture, error)
}

// Capture is a running capture. Stop ends it and returns the audio; Abort
// ends it and discards the audio. Either releases the device.
type Capture interface {
	Stop() ([]byte, error)
	Abort()
}

// Clip is a finished recording.
type Clip struct {
	Data     []byte
	MIME     string
	Duration int
}

// Options configures a Recorder.
type Options struct {
	Debounce time.Duration
	MIME     string
	Clock    Clock
	Bus      *bus.Bus
	Logger   *zap.Logger
}

// Recorder is the single voice session of the process.
type Recorder struct {
	mic      Microphone
	clock    Clock
	debounce time.Duration
	mime     string
	bus      *bus.Bus
	logger   *zap.Logger

	mu        sync.Mutex
	state     State
	seq       uint64
	arm       Timer
	tick      Timer
	capture   Capture
	startedAt time.Time
	// failure is the acquisition error of the current press, reported by
	// the following Release.
	failure error
}

func NewRecorder(mic Microphone, opts Options) *Recorder {
	r := &Recorder{
		mic:      mic,
		clock:    opts.Clock,
		debounce: opts.Debounce,
		mime:     opts.MIME,
		bus:      opts.Bus,
		logger:   opts.Logger,
		state:    Idle,
	}
	if r.clock == nil {
		r.clock = realClock{}
	}
	if r.debounce <= 0 {
		r.debounce = DefaultDebounce
	}
	if r.mime == "" {
		r.mime = "audio/wav"
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// State returns the current phase.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Press arms the recorder. Recording starts once the debounce elapses with
// the button still held; the microphone is acquired at that point.
func (r *Recorder) Press(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Idle {
		return ErrBusy
	}
	if err := r.setLocked(Armed, nil); err != nil {
		return err
	}
	r.seq++
	seq := r.seq
	r.failure = nil
	r.arm = r.clock.AfterFunc(r.debounce, func() { r.begin(ctx, seq) })
	return nil
}

func (r *Recorder) begin(ctx context.Context, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.seq || r.state != Armed {
		return
	}
	r.arm = nil

	capture, err := r.mic.Start(ctx)
	if err != nil {
		r.failure = err
		r.logger.Warn("microphone unavailable", zap.Error(err))
		_ = r.setLocked(Idle, err)
		return
	}
	r.capture = capture
	r.startedAt = r.clock.Now()
	_ = r.setLocked(Recording, nil)
	r.scheduleTickLocked(seq, 1)
}

func (r *Recorder) scheduleTickLocked(seq uint64, n int) {
	due := r.startedAt.Add(time.Duration(n) * time.Second).Sub(r.clock.Now())
	r.tick = r.clock.AfterFunc(due, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if seq != r.seq || r.state != Recording {
			return
		}
		elapsed := int(math.Floor(r.clock.Now().Sub(r.startedAt).Seconds()))
		r.bus.Emit(bus.KindVoiceTick, elapsed)
		r.scheduleTickLocked(seq, elapsed+1)
	})
}

// Elapsed returns the whole seconds recorded so far.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Recording {
		return 0
	}
	return int(math.Floor(r.clock.Now().Sub(r.startedAt).Seconds()))
}

// Release ends the press. A tap released before recording began yields
// ErrNotRecording without touching the microphone; a clip that rounds to
// under one second yields ErrTooShort.
func (r *Recorder) Release() (Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case Idle:
		if err := r.failure; err != nil {
			r.failure = nil
			return Clip{}, err
		}
		return Clip{}, ErrNotRecording
	case Armed:
		r.stopTimersLocked()
		_ = r.setLocked(Idle, nil)
		return Clip{}, ErrNotRecording
	case Stopping:
		return Clip{}, ErrBusy
	}

	_ = r.setLocked(Stopping, nil)
	r.stopTimersLocked()
	elapsed := r.clock.Now().Sub(r.startedAt)
	capture := r.capture
	r.capture = nil
	data, err := capture.Stop()
	if err != nil {
		_ = r.setLocked(Idle, err)
		return Clip{}, fmt.Errorf("stop capture: %w", err)
	}

	duration := int(math.Round(elapsed.Seconds()))
	if duration < 1 {
		_ = r.setLocked(Idle, ErrTooShort)
		return Clip{}, ErrTooShort
	}
	_ = r.setLocked(Idle, nil)
	r.logger.Debug("voice clip captured", zap.Int("duration", duration), zap.Int("bytes", len(data)))
	return Clip{Data: data, MIME: r.mime, Duration: duration}, nil
}

// Cancel discards the session and releases the microphone.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure = nil
	switch r.state {
	case Armed:
		r.stopTimersLocked()
		_ = r.setLocked(Idle, nil)
	case Recording:
		r.stopTimersLocked()
		if r.capture != nil {
			r.capture.Abort()
			r.capture = nil
		}
		_ = r.setLocked(Idle, nil)
	}
}

func (r *Recorder) stopTimersLocked() {
	r.seq++
	if r.arm != nil {
		r.arm.Stop()
		r.arm = nil
	}
	if r.tick != nil {
		r.tick.Stop()
		r.tick = nil
	}
}

func (r *Recorder) setLocked(to State, cause error) error {
	if err := checkTransition(r.state, to); err != nil {
		return err
	}
	from := r.state
	r.state = to
	r.bus.Emit(bus.KindVoiceState, StateChange{From: from, To: to, Err: cause})
	return nil
}
