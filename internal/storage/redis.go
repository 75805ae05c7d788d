package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix はRedisストレージのデフォルトキープレフィックス。
const DefaultRedisPrefix = "smartlib:"

// Redis はRedisにキーを保存するStorage実装。
// 複数の端末やプロセスで同じログイン状態を共有する場合に使用する。
// キーには有効期限を設定しない（トークンの失効はバックエンドが判断する）。
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis はRedisストレージを生成する。prefixが空の場合はDefaultRedisPrefixを使う。
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// OpenRedis はURLからRedisクライアントを生成し、疎通確認を行う。
func OpenRedis(ctx context.Context, rawURL, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedis(client, prefix), nil
}

// Get はキーに対応する値を返す。
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, nil
}

// Set はキーに値を保存する。
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Remove はキーを削除する。
func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Close は内部のRedisクライアントを閉じる。
func (r *Redis) Close() error {
	return r.client.Close()
}
