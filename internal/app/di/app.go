package di

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"secondchance_backend/internal/app/router"
	authhandler "secondchance_backend/internal/feature/auth/transport/handler"
	authusecase "secondchance_backend/internal/feature/auth/usecase"
	itemhandler "secondchance_backend/internal/feature/items/transport/handler"
	itemusecase "secondchance_backend/internal/feature/items/usecase"
	"secondchance_backend/internal/platform/config"
	healthhandler "secondchance_backend/internal/platform/http/handler"
	jwtmw "secondchance_backend/internal/platform/jwt"
	"secondchance_backend/internal/platform/metrics"
	"secondchance_backend/internal/platform/password"
	platformredis "secondchance_backend/internal/platform/redis"
)

// App は起動済みのHTTPエンジンと、終了時に解放する接続を保持します。
type App struct {
	Engine *gin.Engine
	stores *Stores
	rdb    *redis.Client
}

// NewApp は設定からストア・キャッシュ・画像ストア・ユースケース・ハンドラーを組み立てます。
// Redisに接続できない場合はキャッシュなしで起動します。
func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb, err = platformredis.NewRedisClient(ctx, platformredis.Options{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
			rdb = nil
		}
	}

	app := &App{stores: stores, rdb: rdb}
	engine, err := app.build(ctx, cfg, log)
	if err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}
	app.Engine = engine
	return app, nil
}

func (a *App) build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gin.Engine, error) {
	hasher, err := password.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	issuer, err := jwtmw.NewIssuer(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		return nil, err
	}
	images, imageDir, err := NewImageStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Usecase
	authUC := authusecase.NewAuthUsecase(a.stores.Users, hasher, issuer)
	itemUC := itemusecase.NewItemUsecase(NewItemRepository(a.rdb, cfg.CacheTTL, a.stores.Items), images)

	checks := map[string]healthhandler.CheckFunc{"store": a.stores.Ping}
	if a.rdb != nil {
		checks["cache"] = func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() }
	}

	return router.NewRouter(router.Deps{
		Auth:        authhandler.NewAuthHandler(authUC),
		Items:       itemhandler.NewItemHandler(itemUC),
		Health:      healthhandler.NewHealthHandler(checks),
		Metrics:     metrics.New(),
		Verifier:    issuer,
		ImageDir:    imageDir,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Logger:      log,
	}), nil
}

// Close はRedisとストアの接続を閉じます。
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.stores != nil && a.stores.Close != nil {
		errs = append(errs, a.stores.Close(ctx))
	}
	return errors.Join(errs...)
}
