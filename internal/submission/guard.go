package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edudesk/gamehost/internal/minigame"
)

const (
	guardPrefix     = "gamehost:submission:"
	defaultGuardTTL = 7 * 24 * time.Hour
)

// Guard claims a submission's idempotency key in Redis before passing it to
// the next submitter, so a remounted view cannot credit a session twice.
// A claimed key is never released: a failed submission is not retried.
type Guard struct {
	rdb  redis.Cmdable
	next minigame.Submitter
	ttl  time.Duration
}

func NewGuard(rdb redis.Cmdable, next minigame.Submitter, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &Guard{rdb: rdb, next: next, ttl: ttl}
}

func (g *Guard) Submit(ctx context.Context, sub minigame.Submission) (*minigame.SubmitResult, error) {
	if sub.IdempotencyKey == "" {
		return g.next.Submit(ctx, sub)
	}

	claimed, err := g.rdb.SetNX(ctx, guardPrefix+sub.IdempotencyKey, sub.GameID, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("claiming submission key: %w", err)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, sub.IdempotencyKey)
	}
	return g.next.Submit(ctx, sub)
}
