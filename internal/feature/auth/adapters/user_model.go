// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"strconv"
	"time"

	"secondchance_backend/internal/feature/auth/domain/entity"
)

// UserModel はusersテーブルのGORMモデルです。
// パスワードダイジェストは既存データに合わせて password カラムに保存します。
type UserModel struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"`
	Email     string     `gorm:"size:255;not null;uniqueIndex"`
	FirstName string     `gorm:"size:100"`
	LastName  string     `gorm:"size:100"`
	Password  string     `gorm:"column:password;not null"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`
}

// TableName はGORMが使用するテーブル名を返します。
func (UserModel) TableName() string { return "users" }

func toUserModel(u *entity.User) *UserModel {
	return &UserModel{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Password:  u.PasswordHash,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (m *UserModel) toEntity() *entity.User {
	return &entity.User{
		ID:           strconv.FormatUint(uint64(m.ID), 10),
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PasswordHash: m.Password,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
