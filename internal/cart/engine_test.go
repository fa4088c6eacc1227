package cart

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
	"github.com/surajkumarsah0/bazar-frontend/internal/storage"
)

// =====================
// Helper
// =====================

func product(id int64, price string) model.Product {
	return model.Product{
		ID:    id,
		Name:  "item",
		Image: "https://img.example/x.png",
		Price: decimal.RequireFromString(price),
		Stock: 10,
	}
}

func discounted(id int64, price, discount string) model.Product {
	p := product(id, price)
	p.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString(discount))
	return p
}

func newEngine(t *testing.T) (*Engine, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return New(store, nil), store
}

// 小数の表現揺れ（1.50 と 1.5）を無視して比べる
func assertSameLines(t *testing.T, want, got []Line) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ProductID, got[i].ProductID, "line %d", i)
		assert.Equal(t, want[i].Quantity, got[i].Quantity, "line %d", i)
		assert.Equal(t, want[i].Name, got[i].Name, "line %d", i)
		assert.Equal(t, want[i].Image, got[i].Image, "line %d", i)
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice), "line %d unit price %s != %s", i, want[i].UnitPrice, got[i].UnitPrice)
		assert.True(t, want[i].ListPrice.Equal(got[i].ListPrice), "line %d list price", i)
	}
}

func assertInvariants(t *testing.T, e *Engine) {
	t.Helper()
	seen := map[int64]bool{}
	sum := decimal.Zero
	count := 0
	for _, l := range e.Lines() {
		assert.False(t, seen[l.ProductID], "duplicate product %d", l.ProductID)
		seen[l.ProductID] = true
		assert.GreaterOrEqual(t, l.Quantity, 1)
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		count += l.Quantity
	}
	assert.True(t, sum.Equal(e.TotalPrice()), "total %s != %s", e.TotalPrice(), sum)
	assert.Equal(t, count, e.TotalItemCount())
}

// =====================
// AddItem
// =====================

func TestEngine_AddItem_MergesQuantity(t *testing.T) {
	e, _ := newEngine(t)
	p := product(1, "10.00")

	e.AddItem(p, 2)
	e.AddItem(p, 3)

	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 5, e.TotalItemCount())
}

func TestEngine_AddItem_KeepsInsertionOrder(t *testing.T) {
	e, _ := newEngine(t)

	e.AddItem(product(3, "1"), 1)
	e.AddItem(product(1, "1"), 1)
	e.AddItem(product(2, "1"), 1)
	e.AddItem(product(3, "1"), 1)

	var ids []int64
	for _, l := range e.Lines() {
		ids = append(ids, l.ProductID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

func TestEngine_AddItem_ClampsNonPositiveQuantity(t *testing.T) {
	e, _ := newEngine(t)

	e.AddItem(product(1, "5"), 0)
	e.AddItem(product(2, "5"), -4)

	l1, ok := e.Line(1)
	require.True(t, ok)
	assert.Equal(t, 1, l1.Quantity)

	l2, ok := e.Line(2)
	require.True(t, ok)
	assert.Equal(t, 1, l2.Quantity)

	// 既存明細への加算も1扱い
	e.AddItem(product(1, "5"), -1)
	l1, _ = e.Line(1)
	assert.Equal(t, 2, l1.Quantity)
}

func TestEngine_AddItem_SnapshotsEffectivePrice(t *testing.T) {
	e, _ := newEngine(t)

	p := discounted(1, "100.00", "80.00")
	e.AddItem(p, 1)

	// 後から商品の価格が変わってもカートの単価は変わらない
	p.DiscountPrice = decimal.NullDecimal{}
	e.AddItem(p, 1)

	l, ok := e.Line(1)
	require.True(t, ok)
	assert.True(t, l.UnitPrice.Equal(decimal.RequireFromString("80")))
	assert.True(t, l.ListPrice.Equal(decimal.RequireFromString("100")))
	assert.True(t, l.Discounted())
	assert.Equal(t, 2, l.Quantity)

	// 割引が定価以上なら定価
	e.AddItem(discounted(2, "50.00", "60.00"), 1)
	l2, _ := e.Line(2)
	assert.True(t, l2.UnitPrice.Equal(decimal.RequireFromString("50")))
	assert.False(t, l2.Discounted())
}

// =====================
// UpdateQuantity / RemoveItem / Clear
// =====================

func TestEngine_UpdateQuantity_ZeroRemoves(t *testing.T) {
	e, _ := newEngine(t)
	e.AddItem(product(1, "2.50"), 4)
	e.AddItem(product(2, "1.00"), 1)

	before := e.TotalItemCount()
	e.UpdateQuantity(1, 0)

	_, ok := e.Line(1)
	assert.False(t, ok)
	assert.Equal(t, before-4, e.TotalItemCount())
	assert.Equal(t, 1, e.Len())
}

func TestEngine_UpdateQuantity_SetsAndIgnoresUnknown(t *testing.T) {
	e, _ := newEngine(t)
	e.AddItem(product(1, "3"), 1)

	e.UpdateQuantity(1, 7)
	l, _ := e.Line(1)
	assert.Equal(t, 7, l.Quantity)

	e.UpdateQuantity(99, 3)
	assert.Equal(t, 1, e.Len())
	assert.Equal(t, 7, e.TotalItemCount())

	e.UpdateQuantity(1, -2)
	assert.True(t, e.IsEmpty())
}

func TestEngine_UpdateQuantity_RapidCallsApplyInOrder(t *testing.T) {
	e, store := newEngine(t)
	e.AddItem(product(1, "1"), 1)

	e.UpdateQuantity(1, 2)
	e.UpdateQuantity(1, 3)

	l, _ := e.Line(1)
	assert.Equal(t, 3, l.Quantity)

	// 保存されているのも最後の値
	reloaded := New(store, nil)
	require.NoError(t, reloaded.Load(context.Background()))
	l, _ = reloaded.Line(1)
	assert.Equal(t, 3, l.Quantity)
}

func TestEngine_RemoveItem(t *testing.T) {
	e, _ := newEngine(t)
	e.AddItem(product(1, "1"), 1)
	e.AddItem(product(2, "1"), 1)
	e.AddItem(product(3, "1"), 1)

	e.RemoveItem(2)
	e.RemoveItem(42)

	var ids []int64
	for _, l := range e.Lines() {
		ids = append(ids, l.ProductID)
	}
	assert.Equal(t, []int64{1, 3}, ids)
}

func TestEngine_Clear(t *testing.T) {
	e, store := newEngine(t)
	e.AddItem(product(1, "1"), 1)

	e.Clear()
	assert.True(t, e.IsEmpty())
	assert.True(t, e.TotalPrice().IsZero())

	reloaded := New(store, nil)
	require.NoError(t, reloaded.Load(context.Background()))
	assert.True(t, reloaded.IsEmpty())
}

// =====================
// Totals
// =====================

func TestEngine_TotalPrice_IsExact(t *testing.T) {
	e, _ := newEngine(t)

	// floatなら誤差が出る組み合わせ
	for i := int64(1); i <= 10; i++ {
		e.AddItem(product(i, "0.10"), 1)
	}
	e.AddItem(product(11, "0.20"), 3)

	assert.Equal(t, "1.6", e.TotalPrice().String())
	assert.Equal(t, "1.60", FormatAmount(e.TotalPrice()))
}

func TestEngine_RandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e, store := newEngine(t)

	prices := []string{"0.99", "10.00", "12.35", "199.90", "3.33"}
	for step := 0; step < 500; step++ {
		id := int64(rng.Intn(6) + 1)
		switch rng.Intn(4) {
		case 0, 1:
			e.AddItem(product(id, prices[rng.Intn(len(prices))]), rng.Intn(5)-1)
		case 2:
			e.UpdateQuantity(id, rng.Intn(6)-2)
		case 3:
			e.RemoveItem(id)
		}
		assertInvariants(t, e)
	}

	// 保存→復元で明細と合計が一致
	reloaded := New(store, nil)
	require.NoError(t, reloaded.Load(context.Background()))
	assertSameLines(t, e.Lines(), reloaded.Lines())
	assert.True(t, e.TotalPrice().Equal(reloaded.TotalPrice()))
}

// =====================
// Persistence
// =====================

func TestEngine_PersistReloadRoundTrip(t *testing.T) {
	e, store := newEngine(t)
	e.AddItem(discounted(5, "1299.00", "999.50"), 2)
	e.AddItem(product(2, "45.25"), 1)
	e.AddItem(product(9, "0.01"), 3)

	reloaded := New(store, nil)
	require.NoError(t, reloaded.Load(context.Background()))

	assertSameLines(t, e.Lines(), reloaded.Lines())
	assert.Equal(t, "2044.28", FormatAmount(reloaded.TotalPrice()))
	assert.True(t, e.TotalPrice().Equal(reloaded.TotalPrice()))
}

func TestEngine_Load_Empty(t *testing.T) {
	e, _ := newEngine(t)
	require.NoError(t, e.Load(context.Background()))
	assert.True(t, e.IsEmpty())
}

func TestEngine_Load_CorruptDataResetsToEmpty(t *testing.T) {
	cases := map[string]string{
		"not json":      `{{{`,
		"old version":   `{"version":0,"lines":[]}`,
		"zero quantity": `{"version":1,"lines":[{"productId":1,"unitPrice":"1","quantity":0}]}`,
		"duplicate":     `{"version":1,"lines":[{"productId":1,"unitPrice":"1","quantity":1},{"productId":1,"unitPrice":"1","quantity":2}]}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(ctx, storage.KeyCart, []byte(raw)))

			e := New(store, nil)
			require.NoError(t, e.Load(ctx))
			assert.True(t, e.IsEmpty())

			// 壊れたデータは消える
			_, err := store.Get(ctx, storage.KeyCart)
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

// =====================
// Mock: Store
// =====================

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockStore) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStore) Close() error { return nil }

func TestEngine_PersistFailureKeepsState(t *testing.T) {
	store := new(MockStore)
	store.On("Set", mock.Anything, storage.KeyCart, mock.Anything).Return(errors.New("disk full"))

	e := New(store, nil)
	e.AddItem(product(1, "4.00"), 2)

	assert.Equal(t, 2, e.TotalItemCount())
	store.AssertNumberOfCalls(t, "Set", 1)
}

func TestEngine_Load_ReadErrorStartsEmpty(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, storage.KeyCart).Return(nil, errors.New("connection refused"))

	e := New(store, nil)
	err := e.Load(context.Background())
	assert.Error(t, err)
	assert.True(t, e.IsEmpty())
}

// Getだけ失敗する（Redisのタイムアウト相当）
type unreadableStore struct {
	*storage.MemoryStore
}

func (unreadableStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("i/o timeout")
}

func TestEngine_Load_ReadErrorKeepsStoredCart(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := New(store, nil)
	first.AddItem(product(1, "3.00"), 5)

	second := New(unreadableStore{store}, nil)
	require.Error(t, second.Load(ctx))
	second.AddItem(product(2, "1.00"), 1)
	second.Clear()
	assert.True(t, second.IsEmpty())

	reloaded := New(store, nil)
	require.NoError(t, reloaded.Load(ctx))
	l, ok := reloaded.Line(1)
	require.True(t, ok)
	assert.Equal(t, 5, l.Quantity)
	assert.Equal(t, 1, reloaded.Len())
}

func TestEngine_Load_RecoversAfterReadError(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("Get", mock.Anything, storage.KeyCart).Return(nil, errors.New("connection refused")).Once()
	store.On("Get", mock.Anything, storage.KeyCart).Return(nil, storage.ErrNotFound).Once()
	store.On("Set", mock.Anything, storage.KeyCart, mock.Anything).Return(nil)

	e := New(store, nil)
	require.Error(t, e.Load(ctx))
	e.AddItem(product(1, "1.00"), 1)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)

	require.NoError(t, e.Load(ctx))
	e.AddItem(product(1, "1.00"), 1)
	store.AssertNumberOfCalls(t, "Set", 1)
}

func TestEngine_NoopMutationsDoNotPersist(t *testing.T) {
	store := new(MockStore)
	e := New(store, nil)

	e.UpdateQuantity(1, 3)
	e.RemoveItem(1)

	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// Subscribe
// =====================

func TestEngine_SubscribeSeesEveryMutation(t *testing.T) {
	e, _ := newEngine(t)

	var got []int
	unsubscribe := e.Subscribe(func(s Snapshot) {
		got = append(got, s.TotalItems)
	})

	e.AddItem(product(1, "1"), 2)
	e.UpdateQuantity(1, 5)
	e.UpdateQuantity(7, 1) // 変化なし
	e.RemoveItem(1)

	assert.Equal(t, []int{2, 5, 0}, got)

	unsubscribe()
	e.AddItem(product(1, "1"), 1)
	assert.Len(t, got, 3)
}

func TestEngine_SubscribersRunInOrder(t *testing.T) {
	e, _ := newEngine(t)

	var order []int
	for i := 0; i < 8; i++ {
		e.Subscribe(func(Snapshot) { order = append(order, i) })
	}
	unsubscribe := e.Subscribe(func(Snapshot) { order = append(order, 99) })
	e.Subscribe(func(Snapshot) { order = append(order, 8) })
	unsubscribe()

	e.AddItem(product(1, "1"), 1)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, order)
}

func TestEngine_SnapshotIsACopy(t *testing.T) {
	e, _ := newEngine(t)
	e.AddItem(product(1, "1"), 1)

	snap := e.Snapshot()
	snap.Lines[0].Quantity = 99

	l, _ := e.Line(1)
	assert.Equal(t, 1, l.Quantity)
}

func TestClampToStock(t *testing.T) {
	assert.Equal(t, 1, ClampToStock(0, 5))
	assert.Equal(t, 3, ClampToStock(3, 5))
	assert.Equal(t, 5, ClampToStock(9, 5))
	assert.Equal(t, 1, ClampToStock(4, 0))
	assert.Equal(t, 1, ClampToStock(4, -1))
	assert.Equal(t, 1, ClampToStock(-2, -1))
}
