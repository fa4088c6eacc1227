package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// 保存形式のバージョン。互換性のない変更をしたら上げる。
const codecVersion = 1

var (
	// JSONとして読めない、または明細が不正
	ErrCorrupt = errors.New("cart: corrupt persisted data")
	// 別バージョンの形式
	ErrIncompatible = errors.New("cart: incompatible persisted version")
)

type envelope struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Lines   []Line    `json:"lines"`
}

// Encodeは明細を順序どおりに保存形式へ変換する。
func Encode(lines []Line, now time.Time) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(envelope{
		Version: codecVersion,
		SavedAt: now.UTC(),
		Lines:   lines,
	})
}

// Decodeは保存形式を検証して明細に戻す。
// 1件でも不正な明細があれば全体を不正扱いにする。
func Decode(b []byte) ([]Line, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if env.Version != codecVersion {
		return nil, fmt.Errorf("%w: got %d want %d", ErrIncompatible, env.Version, codecVersion)
	}

	seen := make(map[int64]struct{}, len(env.Lines))
	for i, l := range env.Lines {
		if l.ProductID <= 0 {
			return nil, fmt.Errorf("%w: line %d has invalid product id", ErrCorrupt, i)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: line %d has quantity %d", ErrCorrupt, i, l.Quantity)
		}
		if l.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: line %d has negative price", ErrCorrupt, i)
		}
		if _, dup := seen[l.ProductID]; dup {
			return nil, fmt.Errorf("%w: product %d appears twice", ErrCorrupt, l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
	}

	if env.Lines == nil {
		return []Line{}, nil
	}
	return env.Lines, nil
}
