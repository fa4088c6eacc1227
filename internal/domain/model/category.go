package model

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// 作成・更新の入力
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
