package ui

import (
	"sync"
	"testing"
	"time"
)

func TestDispatcherKeepsOrder(t *testing.T) {
	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	d := NewDispatcher(func(op func()) { op() })
	d.Start()
	defer d.Stop()

	for i := 0; i < 50; i++ {
		d.Post(func() {
			mu.Lock()
			got = append(got, i)
			n := len(got)
			mu.Unlock()
			if n == 50 {
				close(done)
			}
		})
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ops not delivered")
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("op %d ran at position %d", v, i)
		}
	}
}

func TestPostDoesNotBlockOnSlowRunner(t *testing.T) {
	release := make(chan struct{})
	d := NewDispatcher(func(op func()) { <-release; op() })
	d.Start()

	posted := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			d.Post(func() {})
		}
		close(posted)
	}()
	select {
	case <-posted:
	case <-time.After(time.Second):
		t.Fatal("Post blocked")
	}
	close(release)
	d.Stop()
}
