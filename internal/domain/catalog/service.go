package catalog

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/local-market/internal/domain/apperr"
	"github.com/xenking/local-market/internal/domain/product"
)

const maxLabelLen = 31

// Service manages banners, categories and images.
type Service struct {
	banners    BannerRepository
	categories CategoryRepository
	images     ImageRepository
	products   product.Repository
	now        func() time.Time
}

// NewService creates a catalog Service.
func NewService(
	banners BannerRepository,
	categories CategoryRepository,
	images ImageRepository,
	products product.Repository,
) *Service {
	return &Service{
		banners:    banners,
		categories: categories,
		images:     images,
		products:   products,
		now:        time.Now,
	}
}

func validLabel(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" || utf8.RuneCountInString(v) > maxLabelLen {
		return "", apperr.Validationf("%s must be 1..%d characters", field, maxLabelLen)
	}
	return v, nil
}

// Banners returns every banner.
func (s *Service) Banners(ctx context.Context) ([]Banner, error) {
	return s.banners.List(ctx)
}

// Banner returns a single banner.
func (s *Service) Banner(ctx context.Context, id string) (*Banner, error) {
	return s.banners.GetByID(ctx, id)
}

// CreateBanner stores a new banner.
func (s *Service) CreateBanner(ctx context.Context, title, image string) (*Banner, error) {
	title, err := validLabel("title", title)
	if err != nil {
		return nil, err
	}
	if image == "" {
		return nil, apperr.Validation("image is required")
	}
	b := &Banner{ID: uuid.New().String(), Title: title, Image: image, CreatedAt: s.now().UTC()}
	if err := s.banners.Create(ctx, b); err != nil {
		return nil, errors.Wrap(err, "create banner")
	}
	return b, nil
}

// UpdateBanner replaces a banner's title and image.
func (s *Service) UpdateBanner(ctx context.Context, id, title, image string) (*Banner, error) {
	title, err := validLabel("title", title)
	if err != nil {
		return nil, err
	}
	if image == "" {
		return nil, apperr.Validation("image is required")
	}
	b, err := s.banners.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Title, b.Image = title, image
	if err := s.banners.Update(ctx, b); err != nil {
		return nil, errors.Wrap(err, "update banner")
	}
	return b, nil
}

// DeleteBanner removes a banner.
func (s *Service) DeleteBanner(ctx context.Context, id string) error {
	return s.banners.Delete(ctx, id)
}

// Categories returns every category.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.categories.List(ctx)
}

// Category returns a single category.
func (s *Service) Category(ctx context.Context, id string) (*Category, error) {
	return s.categories.GetByID(ctx, id)
}

// CreateCategory stores a new category, optionally bound to a banner.
func (s *Service) CreateCategory(ctx context.Context, name string, bannerID *string) (*Category, error) {
	name, err := validLabel("name", name)
	if err != nil {
		return nil, err
	}
	if err := s.checkBanner(ctx, bannerID); err != nil {
		return nil, err
	}
	c := &Category{ID: uuid.New().String(), Name: name, BannerID: bannerID, CreatedAt: s.now().UTC()}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	return c, nil
}

// UpdateCategory replaces a category's name and banner.
func (s *Service) UpdateCategory(ctx context.Context, id, name string, bannerID *string) (*Category, error) {
	name, err := validLabel("name", name)
	if err != nil {
		return nil, err
	}
	if err := s.checkBanner(ctx, bannerID); err != nil {
		return nil, err
	}
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name, c.BannerID = name, bannerID
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update category")
	}
	return c, nil
}

// DeleteCategory removes a category and its products.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.categories.Delete(ctx, id)
}

func (s *Service) checkBanner(ctx context.Context, bannerID *string) error {
	if bannerID == nil {
		return nil
	}
	if _, err := s.banners.GetByID(ctx, *bannerID); err != nil {
		if errors.Is(err, ErrBannerNotFound) {
			return apperr.Validationf("banner %s does not exist", *bannerID)
		}
		return errors.Wrap(err, "lookup banner")
	}
	return nil
}

// Images returns the images of the given products.
func (s *Service) Images(ctx context.Context, productIDs []string) ([]Image, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	return s.images.ListByProducts(ctx, productIDs)
}

// AddImage attaches an image to an existing product.
func (s *Service) AddImage(ctx context.Context, productID, path string) (*Image, error) {
	if strings.TrimSpace(path) == "" {
		return nil, apperr.Validation("image path is required")
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	img := &Image{ID: uuid.New().String(), ProductID: productID, Path: path, CreatedAt: s.now().UTC()}
	if err := s.images.Create(ctx, img); err != nil {
		return nil, errors.Wrap(err, "create image")
	}
	return img, nil
}

// DeleteImage removes a product image.
func (s *Service) DeleteImage(ctx context.Context, id string) error {
	return s.images.Delete(ctx, id)
}
