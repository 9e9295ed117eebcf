package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"twitch-giveaway-backend/internal/common/logger"
)

// Open connects to Redis and verifies the connection with a ping.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info().Str("addr", addr).Msg("Redis connection established")
	return client, nil
}

// DrawGuard serializes draw/close/reroll processing per giveaway across
// instances using SETNX with a TTL. The TTL bounds how long a crashed
// holder can block a giveaway.
type DrawGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDrawGuard(client *redis.Client, ttl time.Duration) *DrawGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &DrawGuard{client: client, ttl: ttl}
}

func (g *DrawGuard) lockKey(giveawayID int64) string {
	return fmt.Sprintf("giveaway:draw-lock:%d", giveawayID)
}

// TryLock reports whether this caller now owns the giveaway's draw lock.
func (g *DrawGuard) TryLock(ctx context.Context, giveawayID int64) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.lockKey(giveawayID), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire draw lock: %w", err)
	}
	return ok, nil
}

func (g *DrawGuard) Unlock(ctx context.Context, giveawayID int64) {
	if err := g.client.Del(ctx, g.lockKey(giveawayID)).Err(); err != nil {
		logger.Warn().Err(err).Int64("giveaway_id", giveawayID).Msg("failed to release draw lock")
	}
}
