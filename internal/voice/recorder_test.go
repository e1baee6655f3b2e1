package voice

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/chatline/internal/bus"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward in small steps, firing due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	end := c.Now().Add(d)
	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
		var next *fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(end) {
				next = t
				break
			}
		}
		if next == nil {
			c.now = end
			c.mu.Unlock()
			return
		}
		next.fired = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()
		next.f()
	}
}

type fakeMic struct {
	mu       sync.Mutex
	err      error
	started  int
	released int
	stopErr  error
}

func (m *fakeMic) Start(context.Context) (Capture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.started++
	return &fakeCapture{mic: m}, nil
}

func (m *fakeMic) counts() (started, released int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started, m.released
}

type fakeCapture struct{ mic *fakeMic }

func (c *fakeCapture) Stop() ([]byte, error) {
	c.mic.mu.Lock()
	defer c.mic.mu.Unlock()
	c.mic.released++
	if c.mic.stopErr != nil {
		return nil, c.mic.stopErr
	}
	return []byte("RIFF"), nil
}

func (c *fakeCapture) Abort() {
	c.mic.mu.Lock()
	defer c.mic.mu.Unlock()
	c.mic.released++
}

func newTestRecorder(mic Microphone, clock Clock, b *bus.Bus) *Recorder {
	return NewRecorder(mic, Options{Clock: clock, Bus: b, MIME: "audio/wav"})
}

func record(t *testing.T, hold time.Duration) (Clip, error, *fakeMic) {
	t.Helper()
	mic := &fakeMic{}
	clock := newFakeClock()
	r := newTestRecorder(mic, clock, nil)
	if err := r.Press(context.Background()); err != nil {
		t.Fatal(err)
	}
	clock.Advance(DefaultDebounce)
	if r.State() != Recording {
		t.Fatalf("state after debounce = %s, want RECORDING", r.State())
	}
	clock.Advance(hold)
	clip, err := r.Release()
	if r.State() != Idle {
		t.Errorf("state after release = %s, want IDLE", r.State())
	}
	return clip, err, mic
}

func TestZeroSecondClipRejected(t *testing.T) {
	_, err, mic := record(t, 0)
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("Release err = %v, want ErrTooShort", err)
	}
	if started, released := mic.counts(); started != released {
		t.Errorf("mic started %d, released %d", started, released)
	}
}

func TestOneSecondClipAccepted(t *testing.T) {
	clip, err, mic := record(t, time.Second)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if clip.Duration != 1 || clip.MIME != "audio/wav" || len(clip.Data) == 0 {
		t.Errorf("clip = %+v", clip)
	}
	if _, released := mic.counts(); released != 1 {
		t.Errorf("released = %d, want 1", released)
	}
}

func TestDurationIsRounded(t *testing.T) {
	tests := []struct {
		hold time.Duration
		want int
		err  error
	}{
		{400 * time.Millisecond, 0, ErrTooShort},
		{600 * time.Millisecond, 1, nil},
		{2400 * time.Millisecond, 2, nil},
		{2600 * time.Millisecond, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.hold.String(), func(t *testing.T) {
			clip, err, _ := record(t, tt.hold)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if clip.Duration != tt.want {
				t.Errorf("Duration = %d, want %d", clip.Duration, tt.want)
			}
		})
	}
}

func TestTapNeverTouchesMicrophone(t *testing.T) {
	mic := &fakeMic{}
	clock := newFakeClock()
	r := newTestRecorder(mic, clock, nil)
	if err := r.Press(context.Background()); err != nil {
		t.Fatal(err)
	}
	clock.Advance(DefaultDebounce / 2)
	if _, err := r.Release(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("Release err = %v, want ErrNotRecording", err)
	}
	clock.Advance(time.Second)
	if started, _ := mic.counts(); started != 0 {
		t.Errorf("mic started %d times on a tap", started)
	}
	if r.State() != Idle {
		t.Errorf("state = %s, want IDLE", r.State())
	}
}

func TestCancelReleasesMicrophone(t *testing.T) {
	mic := &fakeMic{}
	clock := newFakeClock()
	r := newTestRecorder(mic, clock, nil)
	_ = r.Press(context.Background())
	clock.Advance(DefaultDebounce + 3*time.Second)

	r.Cancel()
	if started, released := mic.counts(); started != 1 || released != 1 {
		t.Errorf("mic started %d, released %d", started, released)
	}
	if r.State() != Idle {
		t.Errorf("state = %s, want IDLE", r.State())
	}
	if _, err := r.Release(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Release after cancel = %v", err)
	}
}

func TestPermissionDeniedReturnsToIdle(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"permission", ErrPermissionDenied},
		{"no device", ErrNoDevice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bus.New()
			ch, unsub := b.Subscribe("voice.", 16)
			defer unsub()

			mic := &fakeMic{err: tt.err}
			clock := newFakeClock()
			r := newTestRecorder(mic, clock, b)
			_ = r.Press(context.Background())
			clock.Advance(DefaultDebounce)

			if r.State() != Idle {
				t.Fatalf("state = %s, want IDLE", r.State())
			}
			if _, err := r.Release(); !errors.Is(err, tt.err) {
				t.Errorf("Release err = %v, want %v", err, tt.err)
			}
			var sawErr bool
			for len(ch) > 0 {
				evt := <-ch
				if sc, ok := evt.Payload.(StateChange); ok && errors.Is(sc.Err, tt.err) {
					sawErr = true
				}
			}
			if !sawErr {
				t.Error("no state change carrying the failure")
			}
		})
	}
}

func TestStopFailureStillReturnsToIdle(t *testing.T) {
	mic := &fakeMic{stopErr: errors.New("device vanished")}
	clock := newFakeClock()
	r := newTestRecorder(mic, clock, nil)
	_ = r.Press(context.Background())
	clock.Advance(DefaultDebounce + 2*time.Second)
	if _, err := r.Release(); err == nil {
		t.Fatal("expected error")
	}
	if r.State() != Idle {
		t.Errorf("state = %s, want IDLE", r.State())
	}
	if _, released := mic.counts(); released != 1 {
		t.Errorf("released = %d, want 1", released)
	}
}

func TestTicksUseFloor(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe(bus.KindVoiceTick, 16)
	defer unsub()

	clock := newFakeClock()
	r := newTestRecorder(&fakeMic{}, clock, b)
	_ = r.Press(context.Background())
	clock.Advance(DefaultDebounce)
	clock.Advance(3500 * time.Millisecond)

	var ticks []int
	for len(ch) > 0 {
		ticks = append(ticks, (<-ch).Payload.(int))
	}
	if len(ticks) != 3 || ticks[0] != 1 || ticks[2] != 3 {
		t.Errorf("ticks = %v, want [1 2 3]", ticks)
	}
	if got := r.Elapsed(); got != 3 {
		t.Errorf("Elapsed() = %d, want 3", got)
	}
	r.Cancel()
}

func TestPressWhileBusy(t *testing.T) {
	r := newTestRecorder(&fakeMic{}, newFakeClock(), nil)
	_ = r.Press(context.Background())
	if err := r.Press(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Press = %v, want ErrBusy", err)
	}
}

func TestTransitionTable(t *testing.T) {
	if err := checkTransition(Idle, Recording); err == nil {
		t.Error("IDLE -> RECORDING must go through ARMED")
	}
	if err := checkTransition(Stopping, Recording); err == nil {
		t.Error("STOPPING -> RECORDING should fail")
	}
	if err := checkTransition(Armed, Idle); err != nil {
		t.Error(err)
	}
}

func TestMessageDistinguishesErrors(t *testing.T) {
	if Message(ErrPermissionDenied) == Message(ErrNoDevice) {
		t.Error("permission and no-device share a message")
	}
	if Message(nil) != "" {
		t.Error("Message(nil) not empty")
	}
}
