package visits

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eliseohh/planbot/internal/logger"
)

// redisPage is the LRANGE window used when streaming the list.
const redisPage = 500

type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	Key         string
	PingTimeout time.Duration
}

// RedisLog keeps visit lines in a single Redis list. RPUSH is atomic, so
// concurrent writers never interleave partial records.
type RedisLog struct {
	client *redis.Client
	key    string
	log    *zap.Logger
	now    func() time.Time
}

// DialRedis connects and pings the server once.
func DialRedis(ctx context.Context, opts RedisOptions, log *zap.Logger) (*RedisLog, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}

	log.Info("connected to redis", zap.String("addr", opts.Addr), zap.String("key", opts.Key))
	return NewRedisLog(client, opts.Key, log), nil
}

func NewRedisLog(client *redis.Client, key string, log *zap.Logger) *RedisLog {
	return &RedisLog{client: client, key: key, log: log, now: time.Now}
}

func (r *RedisLog) Record(ctx context.Context, visitorID string) error {
	log := logger.FromContext(ctx, r.log)
	if err := validateVisitor(visitorID); err != nil {
		log.Warn("refusing to record visit", zap.String("op", "record"), zap.String("visitor_id", visitorID), zap.Error(err))
		return err
	}

	line := formatLine(newRecord(visitorID, r.now()))
	if err := r.client.RPush(ctx, r.key, line).Err(); err != nil {
		log.Error("failed to record visit",
			zap.String("op", "record"),
			zap.String("key", r.key),
			zap.String("visitor_id", visitorID),
			zap.Error(err))
		return fmt.Errorf("%w: rpush %s: %w", ErrWrite, r.key, err)
	}
	return nil
}

func (r *RedisLog) ReadAll(ctx context.Context) ([]Record, error) {
	return collect(ctx, r.Each)
}

func (r *RedisLog) Each(ctx context.Context, fn func(Record) error) error {
	lineNum := 0
	for start := int64(0); ; start += redisPage {
		lines, err := r.client.LRange(ctx, r.key, start, start+redisPage-1).Result()
		if err != nil {
			r.log.Error("failed to read visits", zap.String("op", "read"), zap.String("key", r.key), zap.Error(err))
			return fmt.Errorf("%w: lrange %s: %w", ErrRead, r.key, err)
		}
		for _, line := range lines {
			lineNum++
			if err := emit(line, lineNum, r.key, r.log, fn); err != nil {
				return err
			}
		}
		if len(lines) < redisPage {
			return nil
		}
	}
}

func (r *RedisLog) Inspect(ctx context.Context) (Info, error) {
	info := Info{Backend: "redis", Location: r.key}

	n, err := r.client.LLen(ctx, r.key).Result()
	if err != nil {
		return info, fmt.Errorf("%w: llen %s: %w", ErrRead, r.key, err)
	}
	info.Exists = n > 0
	info.Lines = int(n)

	sample, err := r.client.LRange(ctx, r.key, 0, sampleLines-1).Result()
	if err != nil {
		return info, fmt.Errorf("%w: lrange %s: %w", ErrRead, r.key, err)
	}
	info.Sample = sample

	if size, err := r.client.MemoryUsage(ctx, r.key).Result(); err == nil {
		info.SizeBytes = size
	}
	return info, nil
}

func (r *RedisLog) Close() error { return r.client.Close() }
