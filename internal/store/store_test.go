package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matheus3301/chatline/internal/chat"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestConversationsRoundTrip(t *testing.T) {
	db := testDB(t)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	convs := []chat.ConversationSummary{
		{Key: chat.ConversationKey(1), DisplayName: "Ana", AvatarRef: "ana.png", OtherUserID: 7},
		{Key: chat.GroupKey(1), DisplayName: "Team", LastMessageTime: at, LastMessagePreview: "hi", IsLiked: true},
	}
	if err := db.ReplaceConversations(convs); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListConversations()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(chat.Order(convs, chat.ModeAll), chat.Order(got, chat.ModeAll)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	// Replace drops entries that are gone.
	if err := db.ReplaceConversations(convs[:1]); err != nil {
		t.Fatal(err)
	}
	got, _ = db.ListConversations()
	if len(got) != 1 || got[0].Key != chat.ConversationKey(1) {
		t.Errorf("after replace = %v", got)
	}
}

func TestThreadCacheAndSearch(t *testing.T) {
	db := testDB(t)
	key := chat.ConversationKey(3)
	msgs := []chat.Message{
		{ID: 2, SenderID: 1, Content: "see you tomorrow", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 1, SenderID: 2, Content: "hello there"},
		{ID: 3, SenderID: 2, AudioRef: "/static/voice/3.webm", DurationSeconds: 4},
	}
	if err := db.ReplaceThread(key, msgs); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceThread(chat.GroupKey(3), []chat.Message{{ID: 1, Content: "100% hello"}}); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListThread(key)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(chat.SortMessages(msgs), got); diff != "" {
		t.Errorf("ListThread mismatch (-want +got):\n%s", diff)
	}

	hits, err := db.SearchMessages("hello", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %+v, want 2", hits)
	}
	hits, _ = db.SearchMessages("100%", 10)
	if len(hits) != 1 || hits[0].Key != chat.GroupKey(3) {
		t.Errorf("escaped search = %+v", hits)
	}
}

func TestVoiceOutboxLifecycle(t *testing.T) {
	db := testDB(t)
	key := chat.GroupKey(5)
	if err := db.QueueVoice("c1", key, "audio/wav", 2, []byte("RIFF")); err != nil {
		t.Fatal(err)
	}

	pending, err := db.PendingVoice()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Key != key || string(pending[0].Audio) != "RIFF" {
		t.Fatalf("pending = %+v", pending)
	}

	ok, err := db.MarkVoiceSending("c1")
	if err != nil || !ok {
		t.Fatalf("MarkVoiceSending = %v, %v", ok, err)
	}
	if ok, _ := db.MarkVoiceSending("c1"); ok {
		t.Error("claimed the same entry twice")
	}
	if err := db.MarkVoiceFailed("c1", "server down"); err != nil {
		t.Fatal(err)
	}
	failed, _ := db.FailedVoice()
	if len(failed) != 1 || failed[0].ErrorMessage != "server down" || failed[0].Attempts != 1 {
		t.Fatalf("failed = %+v", failed)
	}

	if err := db.RetryVoice("c1"); err != nil {
		t.Fatal(err)
	}
	if err := db.RetryVoice("c1"); err == nil {
		t.Error("retrying a queued entry should fail")
	}
	_, _ = db.MarkVoiceSending("c1")
	if err := db.MarkVoiceSent("c1"); err != nil {
		t.Fatal(err)
	}
	pending, _ = db.PendingVoice()
	failed, _ = db.FailedVoice()
	if len(pending) != 0 || len(failed) != 0 {
		t.Errorf("pending = %d, failed = %d after send", len(pending), len(failed))
	}
}

func TestRequeueStale(t *testing.T) {
	db := testDB(t)
	_ = db.QueueVoice("c1", chat.ConversationKey(1), "audio/wav", 1, []byte("x"))
	_, _ = db.MarkVoiceSending("c1")

	n, err := db.RequeueStale()
	if err != nil || n != 1 {
		t.Fatalf("RequeueStale = %d, %v", n, err)
	}
	pending, _ := db.PendingVoice()
	if len(pending) != 1 {
		t.Errorf("pending = %d, want 1", len(pending))
	}
}
