package thread

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/chat"
)

// AvatarChecker probes whether an avatar image is served.
type AvatarChecker interface {
	ResolveAvatar(ctx context.Context, ref string) error
}

// AvatarResolver remembers the outcome of avatar probes. A failed probe
// resolves to the default avatar.
type AvatarResolver struct {
	checker AvatarChecker
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]string
}

func NewAvatarResolver(checker AvatarChecker, logger *zap.Logger) *AvatarResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvatarResolver{checker: checker, logger: logger, cache: make(map[string]string)}
}

// Cached returns a previous resolution.
func (r *AvatarResolver) Cached(ref string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.cache[ref]
	return v, ok
}

// Resolve probes ref and caches the answer. Context cancellation is not
// cached so the ref is probed again next time.
func (r *AvatarResolver) Resolve(ctx context.Context, ref string) string {
	if v, ok := r.Cached(ref); ok {
		return v
	}
	resolved := ref
	if err := r.checker.ResolveAvatar(ctx, ref); err != nil {
		if ctx.Err() != nil {
			return chat.DefaultAvatar
		}
		r.logger.Debug("avatar unavailable", zap.String("ref", ref), zap.Error(err))
		resolved = chat.DefaultAvatar
	}
	r.mu.Lock()
	r.cache[ref] = resolved
	r.mu.Unlock()
	return resolved
}
