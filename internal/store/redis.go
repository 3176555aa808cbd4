package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed exercise log.
type RedisConfig struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	KeyPrefix string        `koanf:"key_prefix"`
	TTL       time.Duration `koanf:"ttl"`
}

// DefaultRedisConfig returns the defaults used when only an address is set.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "wordwise:",
		TTL:       48 * time.Hour,
	}
}

// RedisExerciseLog keeps each session's exercises in a sorted set scored
// by creation time. Sessions expire after TTL of inactivity.
type RedisExerciseLog struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// OpenRedisExerciseLog connects to Redis and verifies the connection.
func OpenRedisExerciseLog(ctx context.Context, cfg RedisConfig) (*RedisExerciseLog, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisExerciseLog(rdb, cfg.KeyPrefix, cfg.TTL), nil
}

// NewRedisExerciseLog wraps an existing client.
func NewRedisExerciseLog(rdb *goredis.Client, prefix string, ttl time.Duration) *RedisExerciseLog {
	if prefix == "" {
		prefix = "wordwise:"
	}
	return &RedisExerciseLog{rdb: rdb, prefix: prefix, ttl: ttl}
}

type redisExercise struct {
	ID        string   `json:"id"`
	Words     []string `json:"words"`
	CreatedAt int64    `json:"created_at"`
}

func (l *RedisExerciseLog) key(sessionID string) string {
	return l.prefix + "session:" + sessionID + ":exercises"
}

func (l *RedisExerciseLog) AppendExercise(ctx context.Context, ex Exercise) error {
	if len(ex.TargetWords) == 0 {
		return nil
	}
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(redisExercise{ID: ex.ID, Words: ex.TargetWords, CreatedAt: ex.CreatedAt.UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode exercise: %w", err)
	}

	key := l.key(ex.SessionID)
	_, err = l.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.ZAdd(ctx, key, goredis.Z{Score: float64(ex.CreatedAt.UnixMilli()), Member: raw})
		if l.ttl > 0 {
			p.Expire(ctx, key, l.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append exercise: %w", err)
	}
	return nil
}

func (l *RedisExerciseLog) RecentExercises(ctx context.Context, sessionID string, since time.Time) ([]Exercise, error) {
	members, err := l.rdb.ZRangeByScore(ctx, l.key(sessionID), &goredis.ZRangeBy{
		Min: strconv.FormatInt(toMillis(since), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("recent exercises: %w", err)
	}

	out := make([]Exercise, 0, len(members))
	for _, m := range members {
		var re redisExercise
		if err := json.Unmarshal([]byte(m), &re); err != nil {
			return nil, fmt.Errorf("decode exercise: %w", err)
		}
		out = append(out, Exercise{
			ID:          re.ID,
			SessionID:   sessionID,
			TargetWords: re.Words,
			CreatedAt:   fromMillis(re.CreatedAt),
		})
	}
	return out, nil
}

// Close closes the Redis client.
func (l *RedisExerciseLog) Close() error {
	return l.rdb.Close()
}

var _ ExerciseRepo = (*RedisExerciseLog)(nil)
