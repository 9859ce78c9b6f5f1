package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/storefront/internal/model"
)

// Favorites pages through the authenticated user's favorites list.
func (c *Client) Favorites(ctx context.Context, limit, offset int) ([]model.FavoriteProduct, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var favorites []model.FavoriteProduct
	if err := c.do(ctx, http.MethodGet, "/favorites?"+q.Encode(), nil, nil, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

// AddFavorite puts a product on the favorites list and returns the stored
// entry.
func (c *Client) AddFavorite(ctx context.Context, productID int) (*model.FavoriteProduct, error) {
	body := struct {
		ProductID int `json:"productId"`
	}{ProductID: productID}

	var favorite model.FavoriteProduct
	if err := c.do(ctx, http.MethodPost, "/favorites", nil, body, &favorite); err != nil {
		return nil, err
	}
	return &favorite, nil
}

// RemoveFavorite takes a product off the favorites list.
func (c *Client) RemoveFavorite(ctx context.Context, productID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/favorites/%d", productID), nil, nil, nil)
}
