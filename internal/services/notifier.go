package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/opsforge/opsforge-backend/internal/logger"
)

type MaterializationEvent struct {
	WorkspaceID        string `json:"workspace_id"`
	ProjectID          string `json:"project_id"`
	RecordURI          string `json:"record_uri"`
	MaterializationKey string `json:"materialization_key"`
	TasksCreated       int    `json:"tasks_created"`
}

// Notifier announces completed materializations to interested consumers
// (ops dashboards, downstream schedulers). Delivery is best-effort; a
// failed publish never rolls back a materialization.
type Notifier interface {
	MaterializationCompleted(ctx context.Context, evt MaterializationEvent) error
}

type redisNotifier struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisNotifier(log *logger.Logger) (Notifier, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "materializations"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisNotifier{
		log:     log.With("service", "RedisNotifier"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (n *redisNotifier) MaterializationCompleted(ctx context.Context, evt MaterializationEvent) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, n.channel, raw).Err()
}

type nopNotifier struct{}

// NewNopNotifier is the fallback when no Redis address is configured.
func NewNopNotifier() Notifier { return nopNotifier{} }

func (nopNotifier) MaterializationCompleted(context.Context, MaterializationEvent) error {
	return nil
}
