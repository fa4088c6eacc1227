package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
	"github.com/surajkumarsah0/bazar-frontend/internal/storage"
)

const defaultPersistTimeout = 2 * time.Second

// Engineはカートの状態コンテナ。
// 変更系の操作はすべて同期で、エラーを返さない。
// 変更のたびにStoreへ保存し、購読者へSnapshotを通知する。
type Engine struct {
	mu    sync.Mutex
	lines []Line

	store storage.Store
	// 読み込みに失敗した間は保存しない（保存済みカートを空で上書きしない）
	readFailed bool

	log     logrus.FieldLogger
	now     func() time.Time
	timeout time.Duration

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

// 登録順に通知する
type subscriber struct {
	id int
	fn func(Snapshot)
}

type Option func(*Engine)

// 保存1回あたりのタイムアウト
func WithPersistTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// DI
func New(store storage.Store, log logrus.FieldLogger, opts ...Option) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	e := &Engine{
		lines:   []Line{},
		store:   store,
		log:     log.WithField("component", "cart"),
		now:     time.Now,
		timeout: defaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Loadは保存済みのカートを復元する。
// 壊れたデータ・別バージョンは捨てて空カートにする（エラーにしない）。
// 読み込み自体に失敗したときは空カートのままエラーを返し、
// 次に Load が成功するまで保存もしない。
func (e *Engine) Load(ctx context.Context) error {
	b, err := e.store.Get(ctx, storage.KeyCart)
	if errors.Is(err, storage.ErrNotFound) {
		e.setReadFailed(false)
		e.replace([]Line{})
		return nil
	}
	if err != nil {
		e.setReadFailed(true)
		e.replace([]Line{})
		return err
	}
	e.setReadFailed(false)

	lines, err := Decode(b)
	if err != nil {
		e.log.WithError(err).Warn("discarding persisted cart")
		e.replace([]Line{})
		if delErr := e.store.Delete(ctx, storage.KeyCart); delErr != nil {
			e.log.WithError(delErr).Warn("failed to remove persisted cart")
		}
		return nil
	}

	e.replace(lines)
	return nil
}

// AddItemは同じ商品があれば数量を加算し、無ければ末尾に追加する。
// 1未満の数量は1に丸める。在庫上限はここでは見ない。
func (e *Engine) AddItem(p model.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	e.mutate(func(lines []Line) ([]Line, bool) {
		for i := range lines {
			if lines[i].ProductID == p.ID {
				lines[i].Quantity += quantity
				return lines, true
			}
		}
		return append(lines, newLine(p, quantity)), true
	})
}

// UpdateQuantityは数量を置き換える。1未満なら明細ごと削除。
// 無い商品IDは何もしない。
func (e *Engine) UpdateQuantity(productID int64, quantity int) {
	if quantity < 1 {
		e.RemoveItem(productID)
		return
	}

	e.mutate(func(lines []Line) ([]Line, bool) {
		for i := range lines {
			if lines[i].ProductID == productID {
				if lines[i].Quantity == quantity {
					return lines, false
				}
				lines[i].Quantity = quantity
				return lines, true
			}
		}
		return lines, false
	})
}

func (e *Engine) RemoveItem(productID int64) {
	e.mutate(func(lines []Line) ([]Line, bool) {
		for i := range lines {
			if lines[i].ProductID == productID {
				return append(lines[:i], lines[i+1:]...), true
			}
		}
		return lines, false
	})
}

func (e *Engine) Clear() {
	e.mutate(func(lines []Line) ([]Line, bool) {
		return []Line{}, true
	})
}

// TotalPriceは 単価×数量 の合計（丸めない）
func (e *Engine) TotalPrice() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return totalPrice(e.lines)
}

// TotalItemCountは数量の合計（バッジ表示用）
func (e *Engine) TotalItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return totalItems(e.lines)
}

// Linesは追加順の明細のコピー
func (e *Engine) Lines() []Line {
	return e.Snapshot().Lines
}

func (e *Engine) Line(productID int64) (Line, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, l := range e.lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return Line{}, false
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lines)
}

func (e *Engine) IsEmpty() bool {
	return e.Len() == 0
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return newSnapshot(e.lines)
}

// Subscribeは変更通知を登録する。戻り値を呼ぶと解除。
func (e *Engine) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextID
	e.nextID++
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		for i, sub := range e.subs {
			if sub.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// mutateは fn で明細を書き換え、変化があれば保存して通知する。
// 保存はロック中に行い、連続した操作の保存順を崩さない。
func (e *Engine) mutate(fn func(lines []Line) ([]Line, bool)) {
	e.mu.Lock()
	next, changed := fn(e.lines)
	if !changed {
		e.mu.Unlock()
		return
	}
	e.lines = next
	snap := newSnapshot(e.lines)
	e.persistLocked(snap.Lines)
	e.mu.Unlock()

	e.notify(snap)
}

func (e *Engine) setReadFailed(v bool) {
	e.mu.Lock()
	e.readFailed = v
	e.mu.Unlock()
}

// 保存に失敗してもメモリ上の状態は保つ
func (e *Engine) persistLocked(lines []Line) {
	if e.readFailed {
		e.log.WithField("lines", len(lines)).Warn("cart not persisted: stored cart could not be read")
		return
	}

	b, err := Encode(lines, e.now())
	if err != nil {
		e.log.WithError(err).Error("failed to encode cart")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	if err := e.store.Set(ctx, storage.KeyCart, b); err != nil {
		e.log.WithError(err).WithField("lines", len(lines)).Warn("failed to persist cart")
	}
}

func (e *Engine) replace(lines []Line) {
	e.mu.Lock()
	e.lines = lines
	snap := newSnapshot(e.lines)
	e.mu.Unlock()

	e.notify(snap)
}

func (e *Engine) notify(snap Snapshot) {
	e.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(e.subs))
	for _, sub := range e.subs {
		fns = append(fns, sub.fn)
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
