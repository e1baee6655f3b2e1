package inbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/chat"
)

// scriptedSource returns queued responses in order. A response with a
// non-nil gate blocks until the gate is closed.
type scriptedSource struct {
	mu    sync.Mutex
	resps []response
	calls int
}

type response struct {
	convs []chat.ConversationSummary
	err   error
	gate  chan struct{}
}

func (s *scriptedSource) Conversations(ctx context.Context) ([]chat.ConversationSummary, error) {
	s.mu.Lock()
	r := s.resps[s.calls]
	s.calls++
	s.mu.Unlock()
	if r.gate != nil {
		<-r.gate
	}
	return r.convs, r.err
}

func keys(v View) []chat.Key {
	out := make([]chat.Key, 0, len(v.Items))
	for _, c := range v.Items {
		out = append(out, c.Key)
	}
	return out
}

func sample() []chat.ConversationSummary {
	return []chat.ConversationSummary{
		{Key: chat.ConversationKey(1), LastMessageTime: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Key: chat.GroupKey(2), LastMessageTime: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		{Key: chat.ConversationKey(3), IsLiked: true},
	}
}

func TestRefreshPublishesOrderedView(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("inbox.", 4)
	defer unsub()

	in := New(&scriptedSource{resps: []response{{convs: sample()}}}, b, nil)
	if err := in.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	select {
	case evt := <-ch:
		v := evt.Payload.(View)
		want := []chat.Key{chat.GroupKey(2), chat.ConversationKey(1), chat.ConversationKey(3)}
		if diff := cmp.Diff(want, keys(v)); diff != "" {
			t.Errorf("view mismatch (-want +got):\n%s", diff)
		}
		if v.Empty != "" {
			t.Errorf("Empty = %q on a non-empty view", v.Empty)
		}
	case <-time.After(time.Second):
		t.Fatal("no inbox.updated event")
	}
}

func TestSetModeRefiltersWithoutFetching(t *testing.T) {
	src := &scriptedSource{resps: []response{{convs: sample()}}}
	in := New(src, nil, nil)
	if err := in.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	v := in.SetMode(chat.ModeGroups)
	if diff := cmp.Diff([]chat.Key{chat.GroupKey(2)}, keys(v)); diff != "" {
		t.Errorf("groups view mismatch (-want +got):\n%s", diff)
	}
	in.SetMode(chat.ModePrivate)
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
}

func TestSetLikedUpdatesFavouritesImmediately(t *testing.T) {
	in := New(&scriptedSource{resps: []response{{convs: sample()}}}, nil, nil)
	if err := in.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	in.SetMode(chat.ModeFavourites)

	if !in.SetLiked(chat.GroupKey(2), true) {
		t.Fatal("SetLiked: key not found")
	}
	want := []chat.Key{chat.GroupKey(2), chat.ConversationKey(3)}
	if diff := cmp.Diff(want, keys(in.View())); diff != "" {
		t.Errorf("favourites mismatch (-want +got):\n%s", diff)
	}

	in.SetLiked(chat.ConversationKey(3), false)
	in.SetLiked(chat.GroupKey(2), false)
	v := in.View()
	if len(v.Items) != 0 || v.Empty != "No liked chats yet" {
		t.Errorf("view = %+v", v)
	}
	if in.SetLiked(chat.ConversationKey(99), true) {
		t.Error("SetLiked on unknown key reported true")
	}
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	old := []chat.ConversationSummary{{Key: chat.ConversationKey(100)}}
	src := &scriptedSource{resps: []response{
		{convs: old, gate: gate},
		{convs: sample()},
	}}
	in := New(src, nil, nil)

	done := make(chan error, 1)
	go func() { done <- in.Refresh(context.Background()) }()

	// Wait for the first refresh to be in flight.
	for {
		src.mu.Lock()
		n := src.calls
		src.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err := in.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("stale refresh returned %v", err)
	}

	if _, ok := in.Get(chat.ConversationKey(100)); ok {
		t.Error("stale result overwrote the newer cache")
	}
	if len(in.Snapshot()) != 3 {
		t.Errorf("snapshot = %v", in.Snapshot())
	}
}

func TestRefreshErrorKeepsCache(t *testing.T) {
	src := &scriptedSource{resps: []response{{convs: sample()}, {err: errors.New("down")}}}
	in := New(src, nil, nil)
	if err := in.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := in.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(in.View().Items) != 3 {
		t.Error("failed refresh dropped the cache")
	}
}

func TestSeedIgnoredAfterLiveData(t *testing.T) {
	in := New(&scriptedSource{resps: []response{{convs: sample()}}}, nil, nil)
	in.Seed([]chat.ConversationSummary{{Key: chat.ConversationKey(50)}})
	if _, ok := in.Get(chat.ConversationKey(50)); !ok {
		t.Fatal("seed not applied")
	}
	if err := in.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	in.Seed([]chat.ConversationSummary{{Key: chat.ConversationKey(60)}})
	if _, ok := in.Get(chat.ConversationKey(60)); ok {
		t.Error("seed overwrote live data")
	}
}

func TestCacheDoesNotShareSourceSlice(t *testing.T) {
	convs := sample()
	in := New(&scriptedSource{resps: []response{{convs: convs}}}, nil, nil)
	if err := in.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	in.SetLiked(chat.ConversationKey(1), true)
	if convs[0].IsLiked {
		t.Error("SetLiked wrote into the source's slice")
	}
}
