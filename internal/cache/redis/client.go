package redis

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/recall"
	"github.com/echo-recall/backend/pkg/config"
	"github.com/echo-recall/backend/pkg/logger"
)

// Client caches content analyses so re-studying the same page skips the
// analysis round-trip. It is optional: callers treat misses and errors alike.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis cache connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	return &Client{
		rdb: rdb,
		ttl: time.Duration(cfg.TTLMin) * time.Minute,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func analysisKey(text string) string {
	sum := md5.Sum([]byte(text))
	return "echo:analysis:" + hex.EncodeToString(sum[:])
}

// GetAnalysis returns the cached analysis for the given extracted text, or
// nil on a miss. Errors degrade to a miss.
func (c *Client) GetAnalysis(ctx context.Context, text string) *recall.ContentAnalysis {
	data, err := c.rdb.Get(ctx, analysisKey(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("redis get failed", zap.Error(err))
		}
		return nil
	}

	var analysis recall.ContentAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		logger.Warn("cached analysis was not valid JSON", zap.Error(err))
		return nil
	}
	return &analysis
}

func (c *Client) SetAnalysis(ctx context.Context, text string, analysis *recall.ContentAnalysis) {
	data, err := json.Marshal(analysis)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, analysisKey(text), data, c.ttl).Err(); err != nil {
		logger.Warn("redis set failed", zap.Error(err))
	}
}
