package storage

import (
	"context"
	"errors"
)

// キーが存在しない
var ErrNotFound = errors.New("storage: key not found")

// ローカルに永続化するキー（形式を変えたら末尾のバージョンを上げる）
const (
	KeyCart  = "bazar.cart.v1"
	KeyToken = "bazar.token.v1"
)

// Storeはクライアントの永続領域（ブラウザのlocalStorage相当）を約束する。
type Store interface {
	// 無ければ ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// 無いキーの削除はエラーにしない
	Delete(ctx context.Context, key string) error
	Close() error
}
