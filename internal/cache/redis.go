package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyRoundSnapshot = "dindin:round:current"
	keyOnlinePlayers = "dindin:players:online"

	snapshotTTL = 2 * time.Minute
)

// Service is the volatile-state layer: the current round snapshot served to
// reconnecting clients and the live player counter.
type Service interface {
	GetClient() *redis.Client
	Health() map[string]string
	Close() error

	StoreRoundSnapshot(ctx context.Context, snapshot any) error
	LoadRoundSnapshot(ctx context.Context, dest any) error
	PlayerConnected(ctx context.Context) (int64, error)
	PlayerDisconnected(ctx context.Context) (int64, error)
}

type service struct {
	client *redis.Client
	log    *zap.Logger
}

func New(addr, password string, db int, log *zap.Logger) (Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	log.Info("redis connected", zap.String("addr", addr))

	return &service{client: client, log: log}, nil
}

func (s *service) GetClient() *redis.Client {
	return s.client
}

func (s *service) StoreRoundSnapshot(ctx context.Context, snapshot any) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyRoundSnapshot, data, snapshotTTL).Err()
}

func (s *service) LoadRoundSnapshot(ctx context.Context, dest any) error {
	data, err := s.client.Get(ctx, keyRoundSnapshot).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (s *service) PlayerConnected(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, keyOnlinePlayers).Result()
}

func (s *service) PlayerDisconnected(ctx context.Context) (int64, error) {
	n, err := s.client.Decr(ctx, keyOnlinePlayers).Result()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		// Stale counter after a restart, reset rather than report nonsense.
		s.client.Set(ctx, keyOnlinePlayers, 0, 0)
		return 0, nil
	}
	return n, nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	_, err := s.client.Ping(ctx).Result()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("redis down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "Redis is healthy"

	poolStats := s.client.PoolStats()
	stats["hits"] = strconv.FormatUint(uint64(poolStats.Hits), 10)
	stats["misses"] = strconv.FormatUint(uint64(poolStats.Misses), 10)
	stats["timeouts"] = strconv.FormatUint(uint64(poolStats.Timeouts), 10)
	stats["total_conns"] = strconv.FormatUint(uint64(poolStats.TotalConns), 10)
	stats["idle_conns"] = strconv.FormatUint(uint64(poolStats.IdleConns), 10)

	return stats
}

func (s *service) Close() error {
	s.log.Info("disconnecting from redis")
	return s.client.Close()
}
