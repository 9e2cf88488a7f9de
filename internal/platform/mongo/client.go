// Package mongo はMongoDBクライアントの生成と起動時のインデックス作成を提供します。
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	retryInterval = 3 * time.Second
	pingTimeout   = 5 * time.Second
)

// IndexEnsurer は起動時に自身のコレクションのインデックスを作成するストアです。
type IndexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

// pinger はテストで差し替え可能な疎通確認関数です。
type pinger func(ctx context.Context) error

// Connect はURIからクライアントを生成し、タイムアウトまでPingを再試行します。
// 成功時は指定されたデータベースのハンドルとクライアントを返します。
func Connect(ctx context.Context, uri, dbName string, timeout time.Duration) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	ping := func(ctx context.Context) error {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return client.Ping(pctx, readpref.Primary())
	}
	if err := waitReady(ctx, ping, timeout, retryInterval); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	slog.Info("MongoDB connection successful", "database", dbName)
	return client, client.Database(dbName), nil
}

// waitReady はpingが成功するか期限を過ぎるまで一定間隔で再試行します。
func waitReady(ctx context.Context, ping pinger, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := ping(ctx)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("mongo ping failed after %s: %w", timeout, err)
		}
		slog.Warn("MongoDB not ready, retrying", "error", err, "retry_in", interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// EnsureIndexes は各ストアのインデックスを順に作成します。
func EnsureIndexes(ctx context.Context, stores ...IndexEnsurer) error {
	for _, s := range stores {
		if err := s.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
