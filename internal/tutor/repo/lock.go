package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	errx "github.com/nia-core/server/internal/core/error"
	"github.com/nia-core/server/internal/tutor/model"
	logx "github.com/nia-core/server/pkg/logger"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisTurnLocker allows one in-flight turn per conversation using SET NX.
type RedisTurnLocker struct {
	rdb redis.Cmdable
}

func NewRedisTurnLocker(rdb redis.Cmdable) *RedisTurnLocker {
	return &RedisTurnLocker{rdb: rdb}
}

func (l *RedisTurnLocker) lockKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:lock", conversationID)
}

func (l *RedisTurnLocker) Acquire(ctx context.Context, conversationID string, ttl time.Duration) (func(context.Context) error, bool, error) {
	key := l.lockKey(conversationID)
	token := uuid.NewString()

	acquired, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to acquire conversation lock")
		return nil, false, errx.WrapRedis(err)
	}
	if !acquired {
		logx.Debug().Str("conversation_id", conversationID).Msg("conversation turn already in flight")
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to release conversation lock")
			return errx.WrapRedis(err)
		}
		return nil
	}
	return release, true, nil
}

var _ model.TurnLocker = (*RedisTurnLocker)(nil)
