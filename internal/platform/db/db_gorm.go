// Package db はGORM接続の生成とマイグレーションを提供します。
package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"secondchance_backend/internal/platform/config"
)

// retryInterval は接続リトライの待機時間です。
const retryInterval = 3 * time.Second

// Opener はDSNからGORM接続を開く関数です。テストで差し替えられます。
type Opener func(dsn string) (*gorm.DB, error)

// slowQueryThreshold を超えたクエリは警告として記録されます。
const slowQueryThreshold = 200 * time.Millisecond

// gormConfig は全接続共通のGORM設定です。
// TranslateErrorにより一意制約違反がgorm.ErrDuplicatedKeyに変換されます。
func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(slog.Default()),
	}
}

// slogWriter はGORMのログ出力をslogに流します。
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Warn(fmt.Sprintf(format, args...), "component", "gorm")
}

// newGormLogger は警告以上のみをslogに出力するGORMロガーを返します。
// 存在しないレコードの検索は通常の制御フローなので記録しません。
func newGormLogger(log *slog.Logger) logger.Interface {
	return logger.New(slogWriter{log: log}, logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// OpenerFor はバックエンドに対応するOpenerを返します。
func OpenerFor(backend config.Backend) (Opener, error) {
	switch backend {
	case config.BackendPostgres:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormConfig())
		}, nil
	case config.BackendSQLite:
		return func(dsn string) (*gorm.DB, error) {
			db, err := gorm.Open(sqlite.Open(SQLiteDSN(dsn)), gormConfig())
			if err != nil {
				return nil, err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return nil, err
			}
			// SQLiteは単一ライターのため接続を1本に制限する
			sqlDB.SetMaxOpenConns(1)
			return db, nil
		}, nil
	}
	return nil, fmt.Errorf("%w: backend %q is not served by GORM", config.ErrConfiguration, backend)
}

// SQLiteDSN は sqlite:// スキームを取り除き、ドライバが解釈できるDSNを返します。
// file: 形式や :memory: はそのまま渡します。
func SQLiteDSN(url string) string {
	return strings.TrimPrefix(url, "sqlite://")
}

// ConnectWithRetry はタイムアウトまで一定間隔で接続を再試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open はバックエンドに応じた接続を開き、必要ならマイグレーションを実行します。
func Open(backend config.Backend, dsn string, timeout time.Duration, migrate bool, models ...any) (*gorm.DB, error) {
	opener, err := OpenerFor(backend)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(dsn, timeout, opener)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		slog.Info("database migrated", "backend", backend, "models", len(models))
	}
	return db, nil
}

// Close はGORM接続の下層コネクションプールを閉じます。
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
