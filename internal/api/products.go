package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/storefront/internal/model"
)

// ListParams filters and pages the product catalog.
type ListParams struct {
	Title      string
	PriceMin   int
	PriceMax   int
	CategoryID string
	Limit      int
	Offset     int
}

func (p ListParams) query() string {
	q := url.Values{}
	if p.Title != "" {
		q.Set("title", p.Title)
	}
	if p.PriceMin > 0 {
		q.Set("price_min", strconv.Itoa(p.PriceMin))
	}
	if p.PriceMax > 0 {
		q.Set("price_max", strconv.Itoa(p.PriceMax))
	}
	if p.CategoryID != "" {
		q.Set("categoryId", p.CategoryID)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Products lists catalog products matching params.
func (c *Client) Products(ctx context.Context, params ListParams) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/products"+params.query(), nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product fetches one catalog product by id.
func (c *Client) Product(ctx context.Context, id int) (*model.Product, error) {
	var product model.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}
