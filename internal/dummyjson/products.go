package dummyjson

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"dummyshop/storefront/internal/domain"
)

type productPageResponse struct {
	Products []domain.ProductSummary `json:"products"`
	Total    *int                    `json:"total"`
	Skip     int                     `json:"skip"`
	Limit    int                     `json:"limit"`
}

// Products runs a listing query. segments is the path below the base URL
// (for example "products", "search") and params its query string.
func (c *Client) Products(ctx context.Context, segments []string, params url.Values) (domain.ProductPage, error) {
	const op = "list products"
	u := c.endpoint(segments...)
	u.RawQuery = params.Encode()

	var resp productPageResponse
	if err := c.get(ctx, op, u, &resp); err != nil {
		return domain.ProductPage{}, err
	}
	if resp.Total == nil || *resp.Total < 0 {
		return domain.ProductPage{}, invalid(op, "missing or negative total")
	}
	if resp.Skip < 0 || resp.Limit < 0 {
		return domain.ProductPage{}, invalid(op, "negative skip or limit")
	}
	for _, p := range resp.Products {
		if p.ID <= 0 {
			return domain.ProductPage{}, invalid(op, "product id %d", p.ID)
		}
	}
	products := resp.Products
	if products == nil {
		products = []domain.ProductSummary{}
	}
	return domain.ProductPage{
		Products: products,
		Total:    *resp.Total,
		Skip:     resp.Skip,
		Limit:    resp.Limit,
	}, nil
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	const op = "list categories"
	var resp []domain.Category
	if err := c.get(ctx, op, c.endpoint("products", "categories"), &resp); err != nil {
		return nil, err
	}
	for _, cat := range resp {
		if strings.TrimSpace(cat.Slug) == "" {
			return nil, invalid(op, "category without slug")
		}
	}
	return resp, nil
}

func (c *Client) Product(ctx context.Context, id int) (domain.Product, error) {
	const op = "get product"
	var resp domain.Product
	if err := c.get(ctx, op, c.endpoint("products", strconv.Itoa(id)), &resp); err != nil {
		return domain.Product{}, err
	}
	if resp.ID != id {
		return domain.Product{}, invalid(op, "expected product %d, got %d", id, resp.ID)
	}
	return resp, nil
}
