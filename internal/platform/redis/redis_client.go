// Package redis はアイテムキャッシュ用のRedisクライアントを生成します。
package redis

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// Options はRedis接続先の設定です。
type Options struct {
	Host     string
	Port     string
	Password string
}

// Addr はhost:port形式の接続先を返します。
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// NewRedisClient はRedisクライアントを生成し、Pingで疎通を確認します。
// 接続できない場合はクライアントを閉じてエラーを返すため、呼び出し側はキャッシュなしで起動できます。
func NewRedisClient(ctx context.Context, o Options) (*redis.Client, error) {
	addr := o.Addr()
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: o.Password,
		DB:       0,
	})

	// 接続確認
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
