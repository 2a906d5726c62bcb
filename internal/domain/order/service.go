package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/pricing"
	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/domain/txn"
)

const instrumentationName = "github.com/xenking/local-market/internal/domain/order"

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider sets the provider used for order spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider sets the provider used for order metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter(instrumentationName) }
}

// Service encapsulates order placement and administration.
type Service struct {
	products product.Repository
	prices   *pricing.Resolver
	orders   Repository
	tx       txn.Manager

	tracer  trace.Tracer
	meter   metric.Meter
	created metric.Int64Counter
	value   metric.Float64Histogram
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	prices *pricing.Resolver,
	orders Repository,
	tx txn.Manager,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		products: products,
		prices:   prices,
		orders:   orders,
		tx:       tx,
		tracer:   tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:    metricnoop.NewMeterProvider().Meter(instrumentationName),
	}
	for _, o := range opts {
		o(s)
	}

	var err error
	if s.created, err = s.meter.Int64Counter("market.orders.created",
		metric.WithDescription("Number of orders placed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	if s.value, err = s.meter.Float64Histogram("market.orders.value",
		metric.WithDescription("Overall price of placed orders"),
	); err != nil {
		return nil, errors.Wrap(err, "order value histogram")
	}
	return s, nil
}

// Create materializes an order for the actor. Every line's total is priced
// once, here, and stored with the item; the order and its items are written
// atomically.
func (s *Service) Create(ctx context.Context, actor access.Actor, contact Contact, lines []LineRequest) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Create",
		trace.WithAttributes(attribute.Int("order.lines", len(lines))),
	)
	defer span.End()

	if err := access.Authorize(actor, access.ActionCreate, access.OwnedBy(access.KindOrder, actor.UserID)); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyItems
	}
	if err := contact.Validate(); err != nil {
		return nil, err
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		if l.Quantity < 1 || l.Quantity > MaxQuantity {
			return nil, &InvalidQuantityError{ProductID: l.ProductID}
		}
		ids[i] = l.ProductID
	}

	userID := actor.UserID
	o := &Order{
		ID:        uuid.New().String(),
		UserID:    &userID,
		Contact:   contact,
		Status:    StatusPending,
		CreatedAt: s.prices.Now().UTC(),
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		fetched, err := s.products.GetByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("get products: %w", err)
		}
		byID := make(map[string]product.Product, len(fetched))
		for _, p := range fetched {
			byID[p.ID] = p
		}
		products := make([]product.Product, 0, len(lines))
		for _, l := range lines {
			p, ok := byID[l.ProductID]
			if !ok {
				return &ProductNotFoundError{ProductID: l.ProductID}
			}
			products = append(products, p)
		}

		quotes, err := s.prices.QuoteMany(ctx, products, o.CreatedAt)
		if err != nil {
			return fmt.Errorf("quote products: %w", err)
		}

		o.Items = make([]Item, len(lines))
		for i, l := range lines {
			p := products[i]
			pid := p.ID
			unit := quotes[p.ID].UnitPrice
			o.Items[i] = Item{
				ID:          uuid.New().String(),
				OrderID:     o.ID,
				ProductID:   &pid,
				ProductName: p.Name,
				Quantity:    l.Quantity,
				TotalPrice:  unit.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2),
			}
		}
		return s.orders.Create(ctx, o)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.Wrap(err, "create order")
	}

	total := o.OverallPrice()
	span.SetAttributes(attribute.String("order.id", o.ID), attribute.String("order.total", total.String()))
	s.created.Add(ctx, 1)
	s.value.Record(ctx, total.InexactFloat64())
	return o, nil
}

// List returns the actor's orders; admins see every order.
func (s *Service) List(ctx context.Context, actor access.Actor, status Status) ([]Order, error) {
	f := Filter{Status: status}
	if !actor.IsAdmin() {
		f.UserID = actor.UserID
	}
	if err := access.Authorize(actor, access.ActionList, access.OwnedBy(access.KindOrder, f.UserID)); err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Get returns one order visible to the actor.
func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (*Order, error) {
	if err := access.Authorize(actor, access.ActionRetrieve, access.OwnedBy(access.KindOrder, actor.UserID)); err != nil {
		return nil, err
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.ActionRetrieve, access.OwnedBy(access.KindOrder, o.OwnerID())); err != nil {
		return nil, err
	}
	return o, nil
}

// SetStatus sets any known status on an order. Only admins may change
// status; setting the current status again is a no-op.
func (s *Service) SetStatus(ctx context.Context, actor access.Actor, id string, next Status) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.SetStatus",
		trace.WithAttributes(attribute.String("order.id", id), attribute.String("order.status", string(next))),
	)
	defer span.End()

	if err := access.Authorize(actor, access.ActionSetStatus, access.Of(access.KindOrder)); err != nil {
		return nil, err
	}
	if _, err := ParseStatus(string(next)); err != nil {
		return nil, err
	}

	var o *Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		o = cur
		if cur.Status == next {
			return nil
		}
		if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
			return err
		}
		cur.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Delete removes an order and its items.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	if err := access.Authorize(actor, access.ActionDelete, access.Of(access.KindOrder)); err != nil {
		return err
	}
	return s.orders.Delete(ctx, id)
}
