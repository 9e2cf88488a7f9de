// Package password はbcryptによるパスワードのハッシュ化と検証を提供します。
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"secondchance_backend/internal/platform/config"
)

// DefaultCost はbcryptのワークファクターの既定値です（10ラウンド）。
const DefaultCost = bcrypt.DefaultCost

// MaxBytes はbcryptが入力として扱える平文の最大バイト数です。
const MaxBytes = 72

var (
	// ErrInvalidCost はbcryptが受け付けないコストが指定された場合に返されます。
	ErrInvalidCost = fmt.Errorf("%w: invalid bcrypt cost", config.ErrConfiguration)

	// ErrPasswordTooLong はMaxBytesを超える平文をハッシュ化しようとした場合に返されます。
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// BcryptHasher はソルト付きの自己記述型ダイジェストを生成・検証します。
// ダイジェストにソルトとコストが埋め込まれるため、別途ソルトを保存する必要はありません。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は指定コストのBcryptHasherを生成します。
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash は平文パスワードからランダムソルト付きのダイジェストを生成します。
// MaxBytesを超える平文はErrPasswordTooLongで拒否します。
func (h *BcryptHasher) Hash(plain string) (string, error) {
	if len(plain) > MaxBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文がダイジェストと一致するかを定数時間で比較します。
// 不正な形式のダイジェストに対してはfalseを返します。
// bcryptは先頭72バイトしか比較しないため、MaxBytesを超える平文は常に不一致とします。
func (h *BcryptHasher) Verify(plain, digest string) bool {
	if len(plain) > MaxBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
