package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// 同じ注文の再送を二重計上させないためのヘッダ
const HeaderIdempotencyKey = "Idempotency-Key"

// NewIdempotencyKeyは注文1回分のキーを作る。再送時は同じキーを使う。
func NewIdempotencyKey() string {
	return uuid.NewString()
}

// POST /orders
// key が空なら新しく発行する。
func (c *Client) CreateOrder(ctx context.Context, in model.OrderRequest, key string) (*model.Order, error) {
	if key == "" {
		key = NewIdempotencyKey()
	}

	var o model.Order
	r := request{
		method: http.MethodPost,
		path:   "/orders",
		body:   in,
		header: http.Header{HeaderIdempotencyKey: []string{key}},
	}
	if err := c.do(ctx, r, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// GET /orders/my-orders
func (c *Client) MyOrders(ctx context.Context) ([]model.Order, error) {
	orders := []model.Order{}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/my-orders"}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GET /orders（管理者）
func (c *Client) AllOrders(ctx context.Context) ([]model.Order, error) {
	orders := []model.Order{}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders"}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

type statusBody struct {
	Status model.OrderStatus `json:"status"`
}

// PUT /orders/{id}/status（管理者）
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	var o model.Order
	r := request{
		method: http.MethodPut,
		path:   "/orders/" + strconv.FormatInt(id, 10) + "/status",
		body:   statusBody{Status: status},
	}
	if err := c.do(ctx, r, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
