package thread

import (
	"sync"

	"github.com/matheus3301/chatline/internal/chat"
)

// Buffer is a headless View that keeps the last render, used by the CLI.
type Buffer struct {
	mu   sync.Mutex
	key  chat.Key
	rows []Row
}

func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) Render(key chat.Key, rows []Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.key = key
	b.rows = rows
}

func (b *Buffer) ContentHeight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rows)
}

func (b *Buffer) ScrollToBottom() {}

// Rows returns the last rendered rows and their thread.
func (b *Buffer) Rows() (chat.Key, []Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.key, b.rows
}
