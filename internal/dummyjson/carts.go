package dummyjson

import (
	"context"
	"net/http"
	"strconv"

	"dummyshop/storefront/internal/domain"
)

type cartsResponse struct {
	Carts []domain.Cart `json:"carts"`
	Total int           `json:"total"`
}

type cartUpdateRequest struct {
	Merge    bool              `json:"merge"`
	Products []domain.CartLine `json:"products"`
}

func validCart(op string, c domain.Cart) error {
	if c.ID <= 0 {
		return invalid(op, "cart id %d", c.ID)
	}
	for _, it := range c.Products {
		if it.ID <= 0 || it.Quantity < 0 {
			return invalid(op, "cart line id=%d quantity=%d", it.ID, it.Quantity)
		}
	}
	return nil
}

func (c *Client) CartsByUser(ctx context.Context, userID int) ([]domain.Cart, error) {
	const op = "get user carts"
	var resp cartsResponse
	if err := c.get(ctx, op, c.endpoint("carts", "user", strconv.Itoa(userID)), &resp); err != nil {
		return nil, err
	}
	for _, cart := range resp.Carts {
		if err := validCart(op, cart); err != nil {
			return nil, err
		}
	}
	return resp.Carts, nil
}

// UpdateCart merges lines into the existing cart contents.
func (c *Client) UpdateCart(ctx context.Context, cartID int, lines []domain.CartLine) (domain.Cart, error) {
	const op = "update cart"
	body := cartUpdateRequest{Merge: true, Products: lines}
	var resp domain.Cart
	if err := c.do(ctx, op, http.MethodPatch, c.endpoint("carts", strconv.Itoa(cartID)), body, &resp); err != nil {
		return domain.Cart{}, err
	}
	if err := validCart(op, resp); err != nil {
		return domain.Cart{}, err
	}
	return resp, nil
}
