// Package catalog manages the merchandising records around products:
// banners, categories and product images.
package catalog

import (
	"context"
	"time"

	"github.com/xenking/local-market/internal/domain/apperr"
)

var (
	ErrBannerNotFound   = apperr.NotFound("banner not found")
	ErrCategoryNotFound = apperr.NotFound("category not found")
	ErrImageNotFound    = apperr.NotFound("image not found")
)

// Banner is a promotional image that categories may be grouped under.
type Banner struct {
	ID        string
	Title     string
	Image     string
	CreatedAt time.Time
}

// Category groups products. BannerID is nil when the banner was removed.
type Category struct {
	ID        string
	Name      string
	BannerID  *string
	CreatedAt time.Time
}

// Image is a product picture stored as a path relative to the image base URL.
type Image struct {
	ID        string
	ProductID string
	Path      string
	CreatedAt time.Time
}

// BannerRepository defines persistence operations for banners.
type BannerRepository interface {
	List(ctx context.Context) ([]Banner, error)
	GetByID(ctx context.Context, id string) (*Banner, error)
	Create(ctx context.Context, b *Banner) error
	Update(ctx context.Context, b *Banner) error
	// Delete removes the banner and detaches the categories pointing at it.
	Delete(ctx context.Context, id string) error
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	// Delete removes the category and every product in it.
	Delete(ctx context.Context, id string) error
}

// ImageRepository defines persistence operations for product images.
type ImageRepository interface {
	ListByProducts(ctx context.Context, productIDs []string) ([]Image, error)
	GetByID(ctx context.Context, id string) (*Image, error)
	Create(ctx context.Context, img *Image) error
	Delete(ctx context.Context, id string) error
}

// GroupByProduct indexes images by their product ID, preserving order.
func GroupByProduct(images []Image) map[string][]Image {
	out := make(map[string][]Image)
	for _, img := range images {
		out[img.ProductID] = append(out[img.ProductID], img)
	}
	return out
}
