package model

import (
	"github.com/shopspring/decimal"
)

// 商品（APIの Product レコード）
type Product struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discountPrice"`
	Stock         int                 `json:"stock"`
	Image         string              `json:"image,omitempty"`
	Images        []string            `json:"images,omitempty"`
	CategoryID    int64               `json:"categoryId"`
	Category      *Category           `json:"Category,omitempty"`
	Brand         string              `json:"brand,omitempty"`
	Featured      bool                `json:"featured"`
}

// HasDiscountは割引価格が定価より安いときだけtrue。
func (p Product) HasDiscount() bool {
	return p.DiscountPrice.Valid &&
		p.DiscountPrice.Decimal.IsPositive() &&
		p.DiscountPrice.Decimal.LessThan(p.Price)
}

// EffectivePriceは実際に請求する単価。
func (p Product) EffectivePrice() decimal.Decimal {
	if p.HasDiscount() {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// 一覧検索の条件（ゼロ値は指定なし）
type ProductFilter struct {
	Limit      int
	CategoryID int64
	Search     string
	Featured   bool
}

// 管理画面から送る作成・更新の入力
type ProductInput struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discountPrice"`
	Stock         int                 `json:"stock"`
	CategoryID    int64               `json:"categoryId"`
	Image         string              `json:"image"`
	Images        []string            `json:"images,omitempty"`
	Brand         string              `json:"brand"`
	Featured      bool                `json:"featured"`
}
