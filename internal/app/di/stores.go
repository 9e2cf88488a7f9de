// Package di はアプリケーションのコンポーネントを設定から組み立てるファクトリーを提供します。
package di

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"gorm.io/gorm"

	authadapters "secondchance_backend/internal/feature/auth/adapters"
	authusecase "secondchance_backend/internal/feature/auth/usecase"
	itemadapters "secondchance_backend/internal/feature/items/adapters"
	itemusecase "secondchance_backend/internal/feature/items/usecase"
	"secondchance_backend/internal/platform/cache"
	"secondchance_backend/internal/platform/config"
	"secondchance_backend/internal/platform/db"
	platformmongo "secondchance_backend/internal/platform/mongo"
)

// connectTimeout は起動時にストアへの接続を再試行する上限時間です。
const connectTimeout = 30 * time.Second

// Stores はバックエンドに応じて生成されたリポジトリと、その疎通確認・終了処理を保持します。
type Stores struct {
	Users authusecase.UserRepository
	Items itemusecase.ItemRepository
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

// Models はGORMバックエンドでマイグレーションするモデルの一覧です。
func Models() []any {
	return []any{&authadapters.UserModel{}, &itemadapters.ItemModel{}}
}

// OpenStores はDATABASE_URLのスキームに応じてMongoまたはGORMのストアを開きます。
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	if cfg.Backend == config.BackendMongo {
		client, database, err := platformmongo.Connect(ctx, cfg.DatabaseURL, cfg.DBName, connectTimeout)
		if err != nil {
			return nil, err
		}
		stores, err := NewMongoStores(ctx, client, database)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return stores, nil
	}

	gdb, err := db.Open(cfg.Backend, cfg.DatabaseURL, connectTimeout, cfg.RunMigrations, Models()...)
	if err != nil {
		return nil, err
	}
	return NewGormStores(gdb), nil
}

// NewMongoStores はMongoのリポジトリを生成し、一意インデックスを作成します。
func NewMongoStores(ctx context.Context, client *mongodriver.Client, database *mongodriver.Database) (*Stores, error) {
	users := authadapters.NewUserMongo(database)
	items := itemadapters.NewItemMongo(database)
	if err := platformmongo.EnsureIndexes(ctx, users, items); err != nil {
		return nil, err
	}
	return &Stores{
		Users: users,
		Items: items,
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Close: client.Disconnect,
	}, nil
}

// NewGormStores はGORM接続からリポジトリを生成します。
func NewGormStores(gdb *gorm.DB) *Stores {
	return &Stores{
		Users: authadapters.NewUserGorm(gdb),
		Items: itemadapters.NewItemGorm(gdb),
		Ping: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Close: func(context.Context) error { return db.Close(gdb) },
	}
}

// NewItemRepository はRedisが利用可能な場合にキャッシュ付きのリポジトリを返します。
// 利用できない場合はストアのリポジトリをそのまま返します。
func NewItemRepository(rdb *redis.Client, ttl time.Duration, inner itemusecase.ItemRepository) itemusecase.ItemRepository {
	if rdb != nil {
		return cache.NewCachingItemRepository(rdb, ttl, inner, "items")
	}
	return inner
}
