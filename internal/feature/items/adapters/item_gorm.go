package adapters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"secondchance_backend/internal/feature/items/domain/entity"
	"secondchance_backend/internal/feature/items/usecase"
)

type itemGorm struct {
	db *gorm.DB
}

var _ usecase.ItemRepository = (*itemGorm)(nil)

// NewItemGorm はGORM接続を使うItemRepositoryを生成します。
func NewItemGorm(db *gorm.DB) *itemGorm {
	return &itemGorm{db: db}
}

func (r *itemGorm) List(ctx context.Context) ([]entity.Item, error) {
	var rows []ItemModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toItemEntities(rows), nil
}

func (r *itemGorm) FindByID(ctx context.Context, id string) (*entity.Item, error) {
	pk, ok := parseID(id)
	if !ok {
		return nil, usecase.ErrItemNotFound
	}
	var m ItemModel
	if err := r.db.WithContext(ctx).First(&m, pk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrItemNotFound
		}
		return nil, err
	}
	it := m.toEntity()
	return &it, nil
}

// Create はautoIncrementで次のIDを採番します。
func (r *itemGorm) Create(ctx context.Context, item *entity.Item) error {
	m := toItemModel(*item)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	item.ID = strconv.FormatUint(uint64(m.ID), 10)
	return nil
}

func (r *itemGorm) Update(ctx context.Context, id string, upd entity.ItemUpdate, updatedAt time.Time) error {
	pk, ok := parseID(id)
	if !ok {
		return usecase.ErrItemNotFound
	}
	res := r.db.WithContext(ctx).Model(&ItemModel{}).Where("id = ?", pk).Updates(map[string]any{
		"category":    upd.Category,
		"condition":   upd.Condition,
		"age_days":    upd.AgeDays,
		"age_years":   entity.AgeYearsFromDays(upd.AgeDays),
		"description": upd.Description,
		"updated_at":  updatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrItemNotFound
	}
	return nil
}

func (r *itemGorm) Delete(ctx context.Context, id string) error {
	pk, ok := parseID(id)
	if !ok {
		return usecase.ErrItemNotFound
	}
	res := r.db.WithContext(ctx).Delete(&ItemModel{}, pk)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrItemNotFound
	}
	return nil
}

// Search は名前の部分一致（大文字小文字を区別しない）と各フィルタでアイテムを検索します。
func (r *itemGorm) Search(ctx context.Context, f entity.SearchFilter) ([]entity.Item, error) {
	q := r.db.WithContext(ctx).Model(&ItemModel{})
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(name))+"%")
	}
	if f.Category != "" {
		q = q.Where(map[string]any{"category": f.Category})
	}
	if f.Condition != "" {
		q = q.Where(map[string]any{"condition": f.Condition})
	}
	if f.MaxAgeYears != nil {
		q = q.Where("age_years <= ?", *f.MaxAgeYears)
	}

	var rows []ItemModel
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toItemEntities(rows), nil
}

func (r *itemGorm) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ItemModel{}).Count(&n).Error
	return n, err
}

// InsertMany はシードデータのIDを保持したまま一括投入します。
// PostgreSQLでは明示IDの投入後にシーケンスを最大IDまで進めます。
func (r *itemGorm) InsertMany(ctx context.Context, items []entity.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	ms := make([]ItemModel, 0, len(items))
	for _, e := range items {
		ms = append(ms, toItemModel(e))
	}

	var inserted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ms)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected
		if tx.Dialector.Name() == "postgres" {
			return tx.Exec(`SELECT setval(pg_get_serial_sequence('second_chance_items', 'id'), (SELECT COALESCE(MAX(id), 1) FROM second_chance_items))`).Error
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert items: %w", err)
	}
	return int(inserted), nil
}

func parseID(id string) (uint64, bool) {
	pk, err := strconv.ParseUint(id, 10, 64)
	return pk, err == nil && pk > 0
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike はLIKEパターンのメタ文字をエスケープし、入力をリテラルとして扱います。
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
