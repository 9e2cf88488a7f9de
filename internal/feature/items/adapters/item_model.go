// Package adapters はアイテムカタログのリポジトリ実装を提供します。
package adapters

import (
	"strconv"
	"time"

	"secondchance_backend/internal/feature/items/domain/entity"
)

// ItemModel はsecond_chance_itemsテーブルのGORMモデルです。
// コメントはJSONシリアライザで1カラムに保存します。
type ItemModel struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:255;not null;index"`
	Category    string `gorm:"size:100;index"`
	Condition   string `gorm:"size:100"`
	PostedBy    string `gorm:"size:255"`
	Zipcode     string `gorm:"size:20"`
	DateAdded   int64  `gorm:"not null"`
	AgeDays     int    `gorm:"not null;default:0"`
	AgeYears    float64
	Description string
	Image       string           `gorm:"size:512"`
	Comments    []entity.Comment `gorm:"serializer:json"`
	UpdatedAt   *time.Time       `gorm:"autoUpdateTime:false"`
}

// TableName はGORMが使用するテーブル名を返します。
func (ItemModel) TableName() string { return "second_chance_items" }

func toItemModel(e entity.Item) ItemModel {
	m := ItemModel{
		Name:        e.Name,
		Category:    e.Category,
		Condition:   e.Condition,
		PostedBy:    e.PostedBy,
		Zipcode:     e.Zipcode,
		DateAdded:   e.DateAdded,
		AgeDays:     e.AgeDays,
		AgeYears:    e.AgeYears,
		Description: e.Description,
		Image:       e.Image,
		Comments:    e.Comments,
		UpdatedAt:   e.UpdatedAt,
	}
	// シードデータのIDは数値文字列のまま引き継ぐ
	if id, err := strconv.ParseUint(e.ID, 10, 64); err == nil {
		m.ID = uint(id)
	}
	return m
}

func (m ItemModel) toEntity() entity.Item {
	comments := m.Comments
	if comments == nil {
		comments = []entity.Comment{}
	}
	return entity.Item{
		ID:          strconv.FormatUint(uint64(m.ID), 10),
		Name:        m.Name,
		Category:    m.Category,
		Condition:   m.Condition,
		PostedBy:    m.PostedBy,
		Zipcode:     m.Zipcode,
		DateAdded:   m.DateAdded,
		AgeDays:     m.AgeDays,
		AgeYears:    m.AgeYears,
		Description: m.Description,
		Image:       m.Image,
		Comments:    comments,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toItemEntities(rows []ItemModel) []entity.Item {
	out := make([]entity.Item, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEntity())
	}
	return out
}
