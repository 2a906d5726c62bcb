package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/domain/txn"
)

// Draft holds the admin-editable fields of a discount.
type Draft struct {
	Title      string
	ProductID  string
	Percentage decimal.Decimal
	StartDate  time.Time
	EndDate    time.Time
	Active     bool
}

// Service manages discounts. Writes run the overlap check and the write in
// one transaction.
type Service struct {
	discounts Repository
	products  product.Repository
	tx        txn.Manager
	now       func() time.Time
}

// NewService creates a discount Service.
func NewService(discounts Repository, products product.Repository, tx txn.Manager) *Service {
	return &Service{discounts: discounts, products: products, tx: tx, now: time.Now}
}

// List returns every discount.
func (s *Service) List(ctx context.Context) ([]Discount, error) {
	return s.discounts.List(ctx)
}

// Get returns a single discount.
func (s *Service) Get(ctx context.Context, id string) (*Discount, error) {
	return s.discounts.GetByID(ctx, id)
}

// Create validates and stores a new discount.
func (s *Service) Create(ctx context.Context, dr Draft) (*Discount, error) {
	d := &Discount{ID: uuid.New().String(), CreatedAt: s.now().UTC()}
	dr.apply(d)
	if err := d.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.guard(ctx, *d); err != nil {
			return err
		}
		return s.discounts.Create(ctx, d)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create discount")
	}
	return d, nil
}

// Update replaces the fields of an existing discount.
func (s *Service) Update(ctx context.Context, id string, dr Draft) (*Discount, error) {
	var d *Discount
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.discounts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		dr.apply(cur)
		if err := cur.Validate(); err != nil {
			return err
		}
		if err := s.guard(ctx, *cur); err != nil {
			return err
		}
		d = cur
		return s.discounts.Update(ctx, cur)
	})
	if err != nil {
		return nil, errors.Wrap(err, "update discount")
	}
	return d, nil
}

// Delete removes a discount.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.discounts.Delete(ctx, id)
}

func (s *Service) guard(ctx context.Context, d Discount) error {
	if _, err := s.products.GetByID(ctx, d.ProductID); err != nil {
		return err
	}
	if !d.Active {
		return nil
	}
	existing, err := s.discounts.ListActiveByProduct(ctx, d.ProductID)
	if err != nil {
		return errors.Wrap(err, "list active discounts")
	}
	return CheckOverlap(d, existing)
}

func (dr Draft) apply(d *Discount) {
	d.Title = dr.Title
	d.ProductID = dr.ProductID
	d.Percentage = dr.Percentage
	d.StartDate = dr.StartDate.UTC()
	d.EndDate = dr.EndDate.UTC()
	d.Active = dr.Active
}
