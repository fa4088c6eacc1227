package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// GET /products?limit&category&search&featured
func (c *Client) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	q := url.Values{}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.CategoryID > 0 {
		q.Set("category", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Featured {
		q.Set("featured", "true")
	}

	products := []model.Product{}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products", query: q}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GET /products/{id}
func (c *Client) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: productPath(id)}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// POST /products（管理者）
func (c *Client) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, request{method: http.MethodPost, path: "/products", body: in}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PUT /products/{id}（管理者）
func (c *Client) UpdateProduct(ctx context.Context, id int64, in model.ProductInput) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, request{method: http.MethodPut, path: productPath(id), body: in}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DELETE /products/{id}（管理者）
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: productPath(id)}, nil)
}

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10)
}
