package callbackguard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/domain"
	"github.com/integrationcmi/cmi/pkg/timeutil"
)

// DefaultTTL covers the processor's callback retry window
const DefaultTTL = 24 * time.Hour

// RedisClient interface for Redis operations
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Guard remembers callback deliveries in Redis so hooks run once per delivery
type Guard struct {
	redis     RedisClient
	keyPrefix string
	logger    *zap.Logger
}

// NewGuard creates a Redis backed CallbackDeduplicator
func NewGuard(rdb RedisClient, keyPrefix string, logger *zap.Logger) ports.CallbackDeduplicator {
	return &Guard{
		redis:     rdb,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// buildKey constructs the Redis key with prefix
func (g *Guard) buildKey(key string) string {
	return fmt.Sprintf("%s:callback:%s", g.keyPrefix, key)
}

// FirstDelivery claims key. It returns false when the key was claimed before
// and has not expired.
func (g *Guard) FirstDelivery(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	claimed, err := g.redis.SetNX(ctx, g.buildKey(key), timeutil.FormatRFC3339(timeutil.Now()), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("callback guard: %w", err)
	}
	if !claimed {
		g.logger.Info("Callback already processed", zap.String("key", key))
	}
	return claimed, nil
}

// Release drops a claim after a hook failed
func (g *Guard) Release(ctx context.Context, key string) error {
	if err := g.redis.Del(ctx, g.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("callback guard: %w", err)
	}
	return nil
}

// DeliveryKey identifies one processor verdict for one order. Rejected
// results have no trusted identity and yield "".
func DeliveryKey(result domain.VerificationResult) string {
	if result.Rejected() || result.Order == nil {
		return ""
	}
	return strings.Join([]string{result.Order.OrderID, result.Order.TransactionID, string(result.Status)}, "|")
}
