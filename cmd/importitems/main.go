// Command importitems はアイテムカタログが空の場合にシードJSONを投入します。
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"secondchance_backend/internal/app/di"
	itemadapters "secondchance_backend/internal/feature/items/adapters"
	itemusecase "secondchance_backend/internal/feature/items/usecase"
	"secondchance_backend/internal/platform/config"
	"secondchance_backend/internal/platform/logger"
	platformredis "secondchance_backend/internal/platform/redis"
)

func main() {
	file := flag.String("file", "secondChanceItems.json", "path to the seed JSON ({\"docs\":[...]})")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall import timeout")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, *file, *timeout); err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, file string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	items, err := itemadapters.ReadSeed(f)
	if err != nil {
		return err
	}

	stores, err := di.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close(context.Background()) }()

	// 投入後に古い一覧がキャッシュに残らないよう、Redisがあればキャッシュ経由で書き込む
	var rdb *redis.Client
	if cfg.RedisEnabled() {
		if c, err := platformredis.NewRedisClient(ctx, platformredis.Options{
			Host: cfg.RedisHost, Port: cfg.RedisPort, Password: cfg.RedisPassword,
		}); err == nil {
			rdb = c
			defer func() { _ = rdb.Close() }()
		}
	}

	uc := itemusecase.NewItemUsecase(di.NewItemRepository(rdb, cfg.CacheTTL, stores.Items), nil)
	n, err := uc.Import(ctx, items)
	if errors.Is(err, itemusecase.ErrCatalogNotEmpty) {
		slog.Info("Items already exist in DB")
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("Inserted documents", "count", n, "file", file)
	return nil
}
