package di

import (
	"context"
	"log/slog"

	itemusecase "secondchance_backend/internal/feature/items/usecase"
	"secondchance_backend/internal/platform/config"
	"secondchance_backend/internal/platform/storage"
)

// ImagesRoute はローカル保存した画像を配信するルートです。
const ImagesRoute = "/images"

// NewImageStore はS3が設定されていればS3、そうでなければローカルディレクトリの画像ストアを返します。
// 2つ目の戻り値は静的配信すべきディレクトリで、S3の場合は空文字です。
func NewImageStore(ctx context.Context, cfg *config.Config) (itemusecase.ImageStore, string, error) {
	if cfg.S3Enabled() {
		s3, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, "", err
		}
		slog.Info("image store: s3", "bucket", cfg.S3Bucket)
		return s3, "", nil
	}

	local, err := storage.NewLocalStore(cfg.ImageDir, ImagesRoute)
	if err != nil {
		return nil, "", err
	}
	slog.Info("image store: local", "dir", local.Dir())
	return local, local.Dir(), nil
}
