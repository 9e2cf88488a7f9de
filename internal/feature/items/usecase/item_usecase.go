package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"secondchance_backend/internal/feature/items/domain/entity"
)

// importBatchSize は一括投入時に1回のInsertManyで書き込む件数です。
const importBatchSize = 100

// ItemRepository はアイテムの永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type ItemRepository interface {
	// List は全アイテムを取得します。該当なしの場合は空スライスを返します。
	List(ctx context.Context) ([]entity.Item, error)
	// FindByID はIDでアイテムを取得します。存在しない場合はErrItemNotFoundを返します。
	FindByID(ctx context.Context, id string) (*entity.Item, error)
	// Create は次の連番IDを採番してアイテムを保存し、item.IDに設定します。
	Create(ctx context.Context, item *entity.Item) error
	// Update は指定フィールドと更新日時を書き込みます。存在しない場合はErrItemNotFoundを返します。
	Update(ctx context.Context, id string, upd entity.ItemUpdate, updatedAt time.Time) error
	// Delete はアイテムを削除します。存在しない場合はErrItemNotFoundを返します。
	Delete(ctx context.Context, id string) error
	// Search はフィルタに一致するアイテムを返します。
	Search(ctx context.Context, f entity.SearchFilter) ([]entity.Item, error)
	// Count は保存されているアイテム数を返します。
	Count(ctx context.Context) (int64, error)
	// InsertMany はIDを保持したままアイテムを一括保存し、保存件数を返します。
	InsertMany(ctx context.Context, items []entity.Item) (int, error)
}

// ImageStore はアップロード画像の保存先を抽象化します。
type ImageStore interface {
	// Save は画像を保存し、アイテムのimageフィールドに設定する公開パスまたはURLを返します。
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

// ImageUpload はアイテム登録時に添付されたファイルです。
type ImageUpload struct {
	Name        string
	Body        io.Reader
	Size        int64
	ContentType string
}

// itemUsecase はアイテムカタログのユースケースを定義します。
type itemUsecase struct {
	items  ItemRepository
	images ImageStore
	now    func() time.Time
}

// NewItemUsecase はitemUsecaseの新しいインスタンスを生成します。
func NewItemUsecase(items ItemRepository, images ImageStore) *itemUsecase {
	return &itemUsecase{items: items, images: images, now: time.Now}
}

// List は全アイテムを返します。
func (u *itemUsecase) List(ctx context.Context) ([]entity.Item, error) {
	items, err := u.items.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []entity.Item{}
	}
	return items, nil
}

// Get はIDでアイテムを返します。
func (u *itemUsecase) Get(ctx context.Context, id string) (*entity.Item, error) {
	return u.items.FindByID(ctx, id)
}

// Create は画像を保存したうえでアイテムを登録します。
// date_addedは現在のUNIX秒、age_yearsはage_daysから算出します。
func (u *itemUsecase) Create(ctx context.Context, item entity.Item, upload *ImageUpload) (*entity.Item, error) {
	if upload != nil {
		path, err := u.images.Save(ctx, upload.Name, upload.Body, upload.Size, upload.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to save image: %w", err)
		}
		item.Image = path
	}

	item.ID = ""
	item.DateAdded = u.now().Unix()
	item.AgeYears = entity.AgeYearsFromDays(item.AgeDays)
	item.UpdatedAt = nil
	if item.Comments == nil {
		item.Comments = []entity.Comment{}
	}

	if err := u.items.Create(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update はカテゴリ・状態・経過日数・説明を置き換え、age_yearsを再計算します。
func (u *itemUsecase) Update(ctx context.Context, id string, upd entity.ItemUpdate) error {
	return u.items.Update(ctx, id, upd, u.now())
}

// Delete はアイテムを削除します。
func (u *itemUsecase) Delete(ctx context.Context, id string) error {
	return u.items.Delete(ctx, id)
}

// Search はフィルタに一致するアイテムを返します。
func (u *itemUsecase) Search(ctx context.Context, f entity.SearchFilter) ([]entity.Item, error) {
	items, err := u.items.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []entity.Item{}
	}
	return items, nil
}

// Import はストアが空の場合に限りシードデータを一括投入し、投入件数を返します。
// 既にアイテムが存在する場合はErrCatalogNotEmptyを返します。
func (u *itemUsecase) Import(ctx context.Context, items []entity.Item) (int, error) {
	n, err := u.items.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrCatalogNotEmpty
	}

	total := 0
	for start := 0; start < len(items); start += importBatchSize {
		end := min(start+importBatchSize, len(items))
		inserted, err := u.items.InsertMany(ctx, items[start:end])
		total += inserted
		if err != nil {
			return total, fmt.Errorf("failed to import items %d-%d: %w", start, end, err)
		}
		slog.Debug("imported item batch", "from", start, "to", end)
	}
	return total, nil
}
