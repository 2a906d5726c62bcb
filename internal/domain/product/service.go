package product

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/apperr"
)

const (
	maxNameLen  = 200
	maxBrandLen = 50
)

// Draft holds the admin-editable fields of a product.
type Draft struct {
	Name        string
	Brand       string
	Description string
	Price       decimal.Decimal
	Amount      int
	IsAvailable bool
	CategoryID  string
}

// Validate checks field constraints that do not require the store.
func (d Draft) Validate() error {
	name := strings.TrimSpace(d.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return apperr.Validationf("name must be 1..%d characters", maxNameLen)
	}
	if utf8.RuneCountInString(d.Brand) > maxBrandLen {
		return apperr.Validationf("brand must be at most %d characters", maxBrandLen)
	}
	if d.Price.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	if d.Amount < 0 {
		return apperr.Validation("amount must not be negative")
	}
	if d.CategoryID == "" {
		return apperr.Validation("category is required")
	}
	return nil
}

// Service encapsulates catalog product management.
type Service struct {
	products   Repository
	categories CategoryLookup
	now        func() time.Time
}

// NewService creates a product Service.
func NewService(products Repository, categories CategoryLookup) *Service {
	return &Service{products: products, categories: categories, now: time.Now}
}

// List returns the products matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]Product, error) {
	if f.Ordering == "" {
		f.Ordering = DefaultOrdering
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, apperr.Validation("min_price must not exceed max_price")
	}
	products, err := s.products.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.products.GetByID(ctx, id)
}

// GetMany returns the products with the given IDs. Unknown IDs are skipped.
func (s *Service) GetMany(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	return products, nil
}

// Create validates and stores a new product. New products start unrated.
func (s *Service) Create(ctx context.Context, d Draft) (*Product, error) {
	if err := s.check(ctx, d); err != nil {
		return nil, err
	}

	p := &Product{
		ID:        uuid.New().String(),
		Rating:    decimal.Zero,
		CreatedAt: s.now().UTC(),
	}
	d.apply(p)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// Update replaces the editable fields of an existing product.
func (s *Service) Update(ctx context.Context, id string, d Draft) (*Product, error) {
	if err := s.check(ctx, d); err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.apply(p)
	if err := s.products.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return p, nil
}

// Delete removes a product together with the records it owns.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

func (s *Service) check(ctx context.Context, d Draft) error {
	if err := d.Validate(); err != nil {
		return err
	}
	ok, err := s.categories.CategoryExists(ctx, d.CategoryID)
	if err != nil {
		return errors.Wrap(err, "lookup category")
	}
	if !ok {
		return apperr.Validationf("category %s does not exist", d.CategoryID)
	}
	return nil
}

func (d Draft) apply(p *Product) {
	p.Name = strings.TrimSpace(d.Name)
	p.Brand = d.Brand
	p.Description = d.Description
	p.Price = d.Price.Round(2)
	p.Amount = d.Amount
	p.IsAvailable = d.IsAvailable
	p.CategoryID = d.CategoryID
}
