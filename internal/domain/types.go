package domain

import "github.com/shopspring/decimal"

// User is the trusted record returned by the remote login/register calls.
type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Image    string `json:"image"`
}

type ProductSummary struct {
	ID        int             `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Thumbnail string          `json:"thumbnail"`
}

// ProductPage is one page of a paginated product listing.
type ProductPage struct {
	Products []ProductSummary `json:"products"`
	Total    int              `json:"total"`
	Skip     int              `json:"skip"`
	Limit    int              `json:"limit"`
}

// Fetched is the cumulative number of items covered once this page is loaded.
func (p ProductPage) Fetched() int {
	return p.Skip + len(p.Products)
}

type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Review struct {
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	Date          string `json:"date"`
	ReviewerName  string `json:"reviewerName"`
	ReviewerEmail string `json:"reviewerEmail"`
}

type Product struct {
	ID                 int             `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Brand              string          `json:"brand,omitempty"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Rating             decimal.Decimal `json:"rating"`
	Stock              int             `json:"stock"`
	Thumbnail          string          `json:"thumbnail"`
	Images             []string        `json:"images"`
	Reviews            []Review        `json:"reviews"`
}

type CartItem struct {
	ID                 int             `json:"id"`
	Title              string          `json:"title"`
	Price              decimal.Decimal `json:"price"`
	Quantity           int             `json:"quantity"`
	Total              decimal.Decimal `json:"total"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	DiscountedTotal    decimal.Decimal `json:"discountedTotal"`
	Thumbnail          string          `json:"thumbnail"`
}

// Discounted reports whether a discount actually changes the item subtotal.
func (i CartItem) Discounted() bool {
	return !i.DiscountedTotal.IsZero() && !i.DiscountedTotal.Equal(i.Total)
}

type Cart struct {
	ID              int             `json:"id"`
	UserID          int             `json:"userId"`
	Products        []CartItem      `json:"products"`
	Total           decimal.Decimal `json:"total"`
	DiscountedTotal decimal.Decimal `json:"discountedTotal"`
	TotalProducts   int             `json:"totalProducts"`
	TotalQuantity   int             `json:"totalQuantity"`
}

// Item returns the line for productID, if present.
func (c Cart) Item(productID int) (CartItem, bool) {
	for _, it := range c.Products {
		if it.ID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

// CartLine is the {id, quantity} pair sent in a merge update.
type CartLine struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}
