package cart

import (
	"github.com/shopspring/decimal"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// Lineはカートの1明細。
// 価格と表示用の項目は追加時点のスナップショットで、商品APIを引き直さない。
type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	ListPrice decimal.Decimal `json:"listPrice"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

func newLine(p model.Product, quantity int) Line {
	return Line{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.Image,
		ListPrice: p.Price,
		UnitPrice: p.EffectivePrice(),
		Quantity:  quantity,
	}
}

// 明細の小計 = 単価 × 数量
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) Discounted() bool {
	return l.UnitPrice.LessThan(l.ListPrice)
}

// Snapshotはある時点のカートの読み取り専用コピー
type Snapshot struct {
	Lines      []Line
	TotalPrice decimal.Decimal
	TotalItems int
}

func newSnapshot(lines []Line) Snapshot {
	cp := make([]Line, len(lines))
	copy(cp, lines)
	return Snapshot{
		Lines:      cp,
		TotalPrice: totalPrice(lines),
		TotalItems: totalItems(lines),
	}
}

func totalPrice(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

func totalItems(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// ClampToStockは商品詳細の数量セレクタ用。1〜在庫数に収める。
// 在庫0のときも1を返す（追加できるかどうかは呼び出し側が InStock で判断する）。
func ClampToStock(quantity int, stock int) int {
	if quantity < 1 || stock < 1 {
		return 1
	}
	if quantity > stock {
		quantity = stock
	}
	return quantity
}

// 表示用に小数2桁へ丸める（保存値は丸めない）
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
