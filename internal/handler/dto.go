package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/cart"
	"github.com/xenking/local-market/internal/domain/catalog"
	"github.com/xenking/local-market/internal/domain/discount"
	"github.com/xenking/local-market/internal/domain/order"
	"github.com/xenking/local-market/internal/domain/pricing"
	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/domain/review"
	"github.com/xenking/local-market/internal/domain/user"
	"github.com/xenking/local-market/internal/domain/wishlist"
)

// money renders as a JSON number with exactly two decimals.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

// number renders a decimal as a plain JSON number.
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

type bannerResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

type categoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BannerID  *string   `json:"banner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type imageResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	URL       string `json:"url"`
}

type discountSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Percentage number    `json:"percentage"`
	EndDate    time.Time `json:"end_date"`
}

type productResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Brand           string           `json:"brand"`
	Description     string           `json:"description"`
	Price           money            `json:"price"`
	DiscountedPrice money            `json:"discounted_price"`
	ActiveDiscount  *discountSummary `json:"active_discount"`
	Amount          int              `json:"amount"`
	Rating          number           `json:"rating"`
	IsAvailable     bool             `json:"is_available"`
	CategoryID      string           `json:"category_id"`
	Images          []imageResponse  `json:"images"`
	CreatedAt       time.Time        `json:"created_at"`
}

type discountResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	ProductID  string    `json:"product_id"`
	Percentage number    `json:"percentage"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

type cartLineResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	ListPrice   money  `json:"list_price"`
	UnitPrice   money  `json:"unit_price"`
	Total       money  `json:"total"`
}

type cartResponse struct {
	ID    string             `json:"id"`
	Items []cartLineResponse `json:"items"`
	Total money              `json:"total"`
}

type cartItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type orderItemResponse struct {
	ID          string  `json:"id"`
	ProductID   *string `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	TotalPrice  money   `json:"total_price"`
}

type orderResponse struct {
	ID           string              `json:"id"`
	UserID       *string             `json:"user_id"`
	FirstName    string              `json:"first_name"`
	LastName     string              `json:"last_name"`
	Phone        string              `json:"phone"`
	Address      string              `json:"address"`
	Status       order.Status        `json:"status"`
	Items        []orderItemResponse `json:"items"`
	OverallPrice money               `json:"overall_price"`
	CreatedAt    time.Time           `json:"created_at"`
}

type reviewResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    *string   `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type wishlistResponse struct {
	ID        string           `json:"id"`
	ProductID *string          `json:"product_id"`
	Product   *productResponse `json:"product"`
	CreatedAt time.Time        `json:"created_at"`
}

type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

func toBanner(b catalog.Banner) bannerResponse {
	return bannerResponse{ID: b.ID, Title: b.Title, Image: b.Image, CreatedAt: b.CreatedAt}
}

func toCategory(c catalog.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, BannerID: c.BannerID, CreatedAt: c.CreatedAt}
}

func (h *Handler) imageURL(path string) string {
	if h.cfg.ImageBaseURL == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(h.cfg.ImageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (h *Handler) toImage(img catalog.Image) imageResponse {
	return imageResponse{ID: img.ID, ProductID: img.ProductID, URL: h.imageURL(img.Path)}
}

func (h *Handler) toProduct(p product.Product, q pricing.Quote, images []catalog.Image) productResponse {
	resp := productResponse{
		ID:              p.ID,
		Name:            p.Name,
		Brand:           p.Brand,
		Description:     p.Description,
		Price:           money(p.Price),
		DiscountedPrice: money(q.UnitPrice),
		Amount:          p.Amount,
		Rating:          number(p.Rating),
		IsAvailable:     p.IsAvailable,
		CategoryID:      p.CategoryID,
		Images:          make([]imageResponse, 0, len(images)),
		CreatedAt:       p.CreatedAt,
	}
	if d := q.Discount; d != nil {
		resp.ActiveDiscount = &discountSummary{
			ID:         d.ID,
			Title:      d.Title,
			Percentage: number(d.Percentage),
			EndDate:    d.EndDate,
		}
	}
	for _, img := range images {
		resp.Images = append(resp.Images, h.toImage(img))
	}
	return resp
}

func toDiscount(d discount.Discount) discountResponse {
	return discountResponse{
		ID:         d.ID,
		Title:      d.Title,
		ProductID:  d.ProductID,
		Percentage: number(d.Percentage),
		StartDate:  d.StartDate,
		EndDate:    d.EndDate,
		Active:     d.Active,
		CreatedAt:  d.CreatedAt,
	}
}

func toCart(v *cart.View) cartResponse {
	resp := cartResponse{
		ID:    v.Cart.ID,
		Items: make([]cartLineResponse, 0, len(v.Lines)),
		Total: money(v.Total),
	}
	for _, l := range v.Lines {
		resp.Items = append(resp.Items, cartLineResponse{
			ID:          l.Item.ID,
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Item.Quantity,
			ListPrice:   money(l.Quote.ListPrice),
			UnitPrice:   money(l.Quote.UnitPrice),
			Total:       money(l.Total),
		})
	}
	return resp
}

func toCartItem(it *cart.Item) cartItemResponse {
	return cartItemResponse{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity}
}

func toOrder(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:           o.ID,
		UserID:       o.UserID,
		FirstName:    o.Contact.FirstName,
		LastName:     o.Contact.LastName,
		Phone:        o.Contact.Phone,
		Address:      o.Contact.Address,
		Status:       o.Status,
		Items:        make([]orderItemResponse, 0, len(o.Items)),
		OverallPrice: money(o.OverallPrice()),
		CreatedAt:    o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			TotalPrice:  money(it.TotalPrice),
		})
	}
	return resp
}

func toReview(r review.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func toWishlist(e wishlist.Entry, p *productResponse) wishlistResponse {
	return wishlistResponse{ID: e.ID, ProductID: e.ProductID, Product: p, CreatedAt: e.CreatedAt}
}

func toUser(u user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		Phone:     u.Phone,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		City:      u.City,
		Country:   u.Country,
	}
}
