package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// httpErrorはハンドラがそのままレスポンスにする失敗
type httpError struct {
	Status  int
	Message string
	Field   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func newHTTPError(status int, message string) error {
	return &httpError{Status: status, Message: message}
}

func newFieldError(status int, field, message string) error {
	return &httpError{Status: status, Message: message, Field: field}
}

func asHTTPError(err error) (*httpError, bool) {
	var he *httpError
	ok := errors.As(err, &he)
	return he, ok
}

type account struct {
	user         model.User
	passwordHash string
	// 一致しないトークンは失効扱い
	tokenVersion int
}

// backendはメモリ上の店舗データ。全操作を mu で直列化する。
type backend struct {
	mu sync.Mutex

	accounts   map[int64]*account
	products   map[int64]model.Product
	categories map[int64]model.Category
	orders     map[int64]model.Order
	// userID → Idempotency-Key → orderID
	idempotency map[int64]map[string]int64

	nextUserID     int64
	nextProductID  int64
	nextCategoryID int64
	nextOrderID    int64
	nextItemID     int64

	now func() time.Time
}

func newBackend() *backend {
	return &backend{
		accounts:       make(map[int64]*account),
		products:       make(map[int64]model.Product),
		categories:     make(map[int64]model.Category),
		orders:         make(map[int64]model.Order),
		idempotency:    make(map[int64]map[string]int64),
		nextUserID:     1,
		nextProductID:  1,
		nextCategoryID: 1,
		nextOrderID:    1,
		nextItemID:     1,
		now:            time.Now,
	}
}

// =====================
// users
// =====================

func (b *backend) register(in model.RegisterInput) (*account, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if strings.TrimSpace(in.Name) == "" {
		return nil, newFieldError(http.StatusBadRequest, "name", "Name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, newFieldError(http.StatusBadRequest, "email", "Valid email is required")
	}
	if len(in.Password) < 6 {
		return nil, newFieldError(http.StatusBadRequest, "password", "Password must be at least 6 characters")
	}
	role := in.Role
	if role == "" {
		role = model.RoleCustomer
	}
	if !role.Valid() {
		return nil, newFieldError(http.StatusBadRequest, "role", "Invalid role")
	}

	// bcryptは遅いのでロックの外で作る
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, a := range b.accounts {
		if a.user.Email == email {
			return nil, newFieldError(http.StatusConflict, "email", "User already exists")
		}
	}

	a := &account{
		user: model.User{
			ID:    b.nextUserID,
			Name:  strings.TrimSpace(in.Name),
			Email: email,
			Role:  role,
		},
		passwordHash: string(hash),
	}
	b.nextUserID++
	b.accounts[a.user.ID] = a

	cp := *a
	return &cp, nil
}

func (b *backend) authenticate(in model.LoginInput) (*account, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	b.mu.Lock()
	var found *account
	for _, a := range b.accounts {
		if a.user.Email == email {
			cp := *a
			found = &cp
			break
		}
	}
	b.mu.Unlock()

	if found == nil {
		return nil, newHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(found.passwordHash), []byte(in.Password)) != nil {
		return nil, newHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	return found, nil
}

func (b *backend) account(id int64) (*account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[id]
	if !ok {
		return nil, false
	}
	cp := *a
	return &cp, true
}

// 発行済みトークンをすべて失効させる
func (b *backend) revoke(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if a, ok := b.accounts[id]; ok {
		a.tokenVersion++
	}
}

// =====================
// categories
// =====================

func (b *backend) listCategories() []model.Category {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.Category, 0, len(b.categories))
	for _, c := range b.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *backend) saveCategory(id int64, in model.CategoryInput) (model.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Category{}, newFieldError(http.StatusBadRequest, "name", "Name is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if id == 0 {
		id = b.nextCategoryID
		b.nextCategoryID++
	} else if _, ok := b.categories[id]; !ok {
		return model.Category{}, newHTTPError(http.StatusNotFound, "Category not found")
	}

	c := model.Category{ID: id, Name: strings.TrimSpace(in.Name), Description: in.Description}
	b.categories[id] = c
	return c, nil
}

func (b *backend) deleteCategory(id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.categories[id]; !ok {
		return newHTTPError(http.StatusNotFound, "Category not found")
	}
	delete(b.categories, id)
	return nil
}

// =====================
// products
// =====================

func (b *backend) listProducts(f model.ProductFilter) []model.Product {
	b.mu.Lock()
	defer b.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.Product, 0, len(b.products))
	for _, p := range b.products {
		if f.CategoryID > 0 && p.CategoryID != f.CategoryID {
			continue
		}
		if f.Featured && !p.Featured {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) {
			continue
		}
		out = append(out, b.withCategoryLocked(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (b *backend) product(id int64) (model.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.products[id]
	if !ok {
		return model.Product{}, newHTTPError(http.StatusNotFound, "Product not found")
	}
	return b.withCategoryLocked(p), nil
}

func (b *backend) saveProduct(id int64, in model.ProductInput) (model.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Product{}, newFieldError(http.StatusBadRequest, "name", "Name is required")
	}
	if in.Price.IsNegative() {
		return model.Product{}, newFieldError(http.StatusBadRequest, "price", "Price must not be negative")
	}
	if in.Stock < 0 {
		return model.Product{}, newFieldError(http.StatusBadRequest, "stock", "Stock must not be negative")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if in.CategoryID > 0 {
		if _, ok := b.categories[in.CategoryID]; !ok {
			return model.Product{}, newFieldError(http.StatusBadRequest, "categoryId", "Category not found")
		}
	}
	if id == 0 {
		id = b.nextProductID
		b.nextProductID++
	} else if _, ok := b.products[id]; !ok {
		return model.Product{}, newHTTPError(http.StatusNotFound, "Product not found")
	}

	p := model.Product{
		ID:            id,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Price:         in.Price,
		DiscountPrice: in.DiscountPrice,
		Stock:         in.Stock,
		Image:         in.Image,
		Images:        in.Images,
		CategoryID:    in.CategoryID,
		Brand:         in.Brand,
		Featured:      in.Featured,
	}
	b.products[id] = p
	return b.withCategoryLocked(p), nil
}

func (b *backend) deleteProduct(id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.products[id]; !ok {
		return newHTTPError(http.StatusNotFound, "Product not found")
	}
	delete(b.products, id)
	return nil
}

func (b *backend) withCategoryLocked(p model.Product) model.Product {
	if c, ok := b.categories[p.CategoryID]; ok {
		cp := c
		p.Category = &cp
	}
	return p
}

// =====================
// orders
// =====================

// placeOrderは在庫を確定時に確認して減らす。
// 同じユーザー・同じキーなら既存の注文を返す。
func (b *backend) placeOrder(userID int64, key string, in model.OrderRequest) (model.Order, error) {
	if len(in.Items) == 0 {
		return model.Order{}, newFieldError(http.StatusBadRequest, "items", "Order must contain items")
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return model.Order{}, newFieldError(http.StatusBadRequest, "shippingAddress", "Shipping address is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return model.Order{}, newFieldError(http.StatusBadRequest, "phone", "Phone is required")
	}
	if !in.PaymentMethod.Valid() {
		return model.Order{}, newFieldError(http.StatusBadRequest, "paymentMethod", "Invalid payment method")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// 同じキーなら同じ結果
	if key != "" {
		if id, ok := b.idempotency[userID][key]; ok {
			return b.orderLocked(b.orders[id], false), nil
		}
	}

	// 先に全明細を検証してから在庫を減らす
	for _, line := range in.Items {
		p, ok := b.products[line.ProductID]
		if !ok {
			return model.Order{}, newFieldError(http.StatusBadRequest, "items", fmt.Sprintf("Product %d not found", line.ProductID))
		}
		if line.Quantity < 1 {
			return model.Order{}, newFieldError(http.StatusBadRequest, "items", "Quantity must be at least 1")
		}
		if p.Stock < line.Quantity {
			return model.Order{}, newFieldError(http.StatusBadRequest, "items", fmt.Sprintf("Insufficient stock for %s", p.Name))
		}
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		p := b.products[line.ProductID]
		p.Stock -= line.Quantity
		b.products[p.ID] = p

		price := p.EffectivePrice()
		items = append(items, model.OrderItem{
			ID:        b.nextItemID,
			ProductID: p.ID,
			Quantity:  line.Quantity,
			Price:     price,
		})
		b.nextItemID++
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	o := model.Order{
		ID:              b.nextOrderID,
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		Status:          model.OrderStatusPending,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		Phone:           strings.TrimSpace(in.Phone),
		PaymentMethod:   in.PaymentMethod,
		CreatedAt:       b.now().UTC(),
	}
	b.nextOrderID++
	b.orders[o.ID] = o

	if key != "" {
		if b.idempotency[userID] == nil {
			b.idempotency[userID] = make(map[string]int64)
		}
		b.idempotency[userID][key] = o.ID
	}
	return b.orderLocked(o, false), nil
}

// userID が0なら全件（管理者）
func (b *backend) listOrders(userID int64) []model.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.Order, 0)
	for _, o := range b.orders {
		if userID != 0 && o.UserID != userID {
			continue
		}
		out = append(out, b.orderLocked(o, userID == 0))
	}
	// 新しい順
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (b *backend) updateOrderStatus(id int64, status model.OrderStatus) (model.Order, error) {
	if !status.Valid() {
		return model.Order{}, newFieldError(http.StatusBadRequest, "status", "Invalid status")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return model.Order{}, newHTTPError(http.StatusNotFound, "Order not found")
	}
	o.Status = status
	b.orders[id] = o
	return b.orderLocked(o, true), nil
}

// レスポンス用に商品・ユーザーを埋め込んだコピーを作る
func (b *backend) orderLocked(o model.Order, withUser bool) model.Order {
	items := make([]model.OrderItem, len(o.Items))
	for i, it := range o.Items {
		if p, ok := b.products[it.ProductID]; ok {
			cp := p
			it.Product = &cp
		}
		items[i] = it
	}
	o.Items = items

	if withUser {
		if a, ok := b.accounts[o.UserID]; ok {
			u := a.user
			o.User = &u
		}
	}
	return o
}
