package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// GET /categories
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/categories"}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	var cat model.Category
	if err := c.do(ctx, request{method: http.MethodPost, path: "/categories", body: in}, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, in model.CategoryInput) (*model.Category, error) {
	var cat model.Category
	if err := c.do(ctx, request{method: http.MethodPut, path: categoryPath(id), body: in}, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: categoryPath(id)}, nil)
}

func categoryPath(id int64) string {
	return "/categories/" + strconv.FormatInt(id, 10)
}
