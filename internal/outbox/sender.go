// Package outbox queues recorded voice clips in the local store and uploads
// them in the background.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/store"
	"github.com/matheus3301/chatline/internal/voice"
)

// Deliverer uploads a clip to a thread.
type Deliverer interface {
	Deliver(ctx context.Context, key chat.Key, clip voice.Clip) error
}

// Queued is the payload of voice.queued and voice.sent events.
type Queued struct {
	ClientID string
	Key      chat.Key
	Duration int
}

// Failed is the payload of voice.send_failed events.
type Failed struct {
	ClientID string
	Key      chat.Key
	Err      string
}

// Sender drains the voice outbox.
type Sender struct {
	db       *store.DB
	deliver  Deliverer
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration
	kick     chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSender creates a new outbox sender.
func NewSender(db *store.DB, d Deliverer, b *bus.Bus, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		db:       db,
		deliver:  d,
		bus:      b,
		logger:   logger,
		interval: 500 * time.Millisecond,
		kick:     make(chan struct{}, 1),
	}
}

// Enqueue stores a clip for upload and wakes the loop.
func (s *Sender) Enqueue(key chat.Key, clip voice.Clip) (string, error) {
	if key.IsZero() {
		return "", fmt.Errorf("enqueue voice: no thread")
	}
	id := uuid.NewString()
	if err := s.db.QueueVoice(id, key, clip.MIME, clip.Duration, clip.Data); err != nil {
		return "", err
	}
	s.bus.Emit(bus.KindVoiceQueued, Queued{ClientID: id, Key: key, Duration: clip.Duration})
	s.wake()
	return id, nil
}

// Retry requeues a failed upload.
func (s *Sender) Retry(clientID string) error {
	if err := s.db.RetryVoice(clientID); err != nil {
		return err
	}
	s.wake()
	return nil
}

// Failed lists uploads waiting for a retry.
func (s *Sender) Failed() ([]store.VoiceEntry, error) {
	return s.db.FailedVoice()
}

func (s *Sender) wake() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Start begins polling the outbox for pending clips. Entries left in
// 'sending' by a previous run are queued again first.
func (s *Sender) Start(ctx context.Context) {
	if n, err := s.db.RequeueStale(); err != nil {
		s.logger.Error("failed to requeue stale voice uploads", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("requeued interrupted voice uploads", zap.Int64("count", n))
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx)
}

// Stop stops the sender loop and waits for it to exit.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Sender) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.ProcessPending(ctx)
		case <-s.kick:
			s.ProcessPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ProcessPending uploads every queued clip once.
func (s *Sender) ProcessPending(ctx context.Context) {
	pending, err := s.db.PendingVoice()
	if err != nil {
		s.logger.Error("failed to read voice outbox", zap.Error(err))
		return
	}

	for _, entry := range pending {
		if ctx.Err() != nil {
			return
		}
		claimed, err := s.db.MarkVoiceSending(entry.ClientID)
		if err != nil {
			s.logger.Error("failed to mark sending", zap.Error(err), zap.String("client_id", entry.ClientID))
			continue
		}
		if !claimed {
			continue
		}

		clip := voice.Clip{Data: entry.Audio, MIME: entry.MIME, Duration: entry.Duration}
		if err := s.deliver.Deliver(ctx, entry.Key, clip); err != nil {
			s.logger.Error("failed to send voice message", zap.Error(err), zap.String("client_id", entry.ClientID))
			_ = s.db.MarkVoiceFailed(entry.ClientID, err.Error())
			s.bus.Emit(bus.KindVoiceSendFailed, Failed{ClientID: entry.ClientID, Key: entry.Key, Err: err.Error()})
			continue
		}

		if err := s.db.MarkVoiceSent(entry.ClientID); err != nil {
			s.logger.Error("failed to mark sent", zap.Error(err), zap.String("client_id", entry.ClientID))
		}
		s.logger.Info("voice message sent", zap.String("client_id", entry.ClientID), zap.Stringer("key", entry.Key))
		s.bus.Emit(bus.KindVoiceSent, Queued{ClientID: entry.ClientID, Key: entry.Key, Duration: entry.Duration})
	}
}
