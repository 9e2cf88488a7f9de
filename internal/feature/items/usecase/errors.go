// Package usecase はアイテムカタログのビジネスロジックを実装します。
package usecase

import "errors"

var (
	// ErrItemNotFound is returned when no item has the requested id.
	ErrItemNotFound = errors.New("secondChanceItem not found")

	// ErrCatalogNotEmpty is returned by Import when the store already holds items.
	ErrCatalogNotEmpty = errors.New("items already exist in DB")
)
