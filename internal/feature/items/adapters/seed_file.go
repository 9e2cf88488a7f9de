package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"secondchance_backend/internal/feature/items/domain/entity"
)

// seedFile はシードJSONのトップレベル構造 {"docs":[...]} です。
type seedFile struct {
	Docs []seedItem `json:"docs"`
}

// seedItem はidを文字列・数値のどちらでも受け付けるためのラッパーです。
type seedItem struct {
	entity.Item
	ID json.RawMessage `json:"id"`
}

// ReadSeed はシードJSONを読み込み、保存用のアイテムに変換します。
// commentsが省略された項目は空配列として扱います。
func ReadSeed(r io.Reader) ([]entity.Item, error) {
	var f seedFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	if f.Docs == nil {
		return nil, fmt.Errorf("seed file has no docs array")
	}

	items := make([]entity.Item, 0, len(f.Docs))
	for i, d := range f.Docs {
		id, err := seedID(d.ID)
		if err != nil {
			return nil, fmt.Errorf("seed doc %d: %w", i, err)
		}
		item := d.Item
		item.ID = id
		if item.Comments == nil {
			item.Comments = []entity.Comment{}
		}
		items = append(items, item)
	}
	return items, nil
}

func seedID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("id is missing")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		if s == "" {
			return "", fmt.Errorf("id is empty")
		}
		return s, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return "", fmt.Errorf("id %s is not an integer", raw)
	}
	return strconv.FormatInt(n, 10), nil
}
