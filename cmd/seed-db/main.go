// Command seed-db loads catalog, discount and account fixtures into
// PostgreSQL. Records that already exist are left untouched, so the command
// can be re-run safely.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/auth"
	"github.com/xenking/local-market/internal/domain/catalog"
	"github.com/xenking/local-market/internal/domain/discount"
	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/domain/user"
	"github.com/xenking/local-market/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		fixtures    string
		pepper      string
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtures, "fixtures", "db/seed/catalog.json", "comma separated fixture files (.json or gzip)")
	flag.StringVar(&pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or MARKET_API_KEY_PEPPER env)")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	if pepper == "" {
		pepper = os.Getenv("MARKET_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, splitPaths(fixtures), []byte(pepper)); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string, paths []string, pepper []byte) error {
	f, err := loadFixtures(ctx, paths)
	if err != nil {
		return errors.Wrap(err, "load fixtures")
	}
	lg.Info("Fixtures loaded",
		zap.Int("banners", len(f.Banners)),
		zap.Int("categories", len(f.Categories)),
		zap.Int("products", len(f.Products)),
		zap.Int("discounts", len(f.Discounts)),
		zap.Int("users", len(f.Users)),
	)

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	s := &seeder{lg: lg, repos: postgres.NewRepositories(pool), pepper: pepper, now: time.Now().UTC()}
	return s.repos.DB.WithTransaction(ctx, func(ctx context.Context) error {
		for _, step := range []struct {
			name string
			fn   func(context.Context, fixture) error
		}{
			{"banners", s.banners},
			{"categories", s.categories},
			{"products", s.products},
			{"discounts", s.discounts},
			{"users", s.users},
		} {
			if err := step.fn(ctx, f); err != nil {
				return errors.Wrapf(err, "seed %s", step.name)
			}
		}
		return nil
	})
}

type seeder struct {
	lg     *zap.Logger
	repos  *postgres.Repositories
	pepper []byte
	now    time.Time
}

// present maps the result of a lookup to whether the record exists.
func present(err, notFound error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, notFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *seeder) skip(kind, id string) {
	s.lg.Debug("Already present", zap.String("kind", kind), zap.String("id", id))
}

func (s *seeder) banners(ctx context.Context, f fixture) error {
	for _, b := range f.Banners {
		_, err := s.repos.Banners.GetByID(ctx, b.ID)
		ok, err := present(err, catalog.ErrBannerNotFound)
		if err != nil {
			return err
		}
		if ok {
			s.skip("banner", b.ID)
			continue
		}
		if err := s.repos.Banners.Create(ctx, &catalog.Banner{ID: b.ID, Title: b.Title, Image: b.Image, CreatedAt: s.now}); err != nil {
			return errors.Wrapf(err, "banner %s", b.ID)
		}
		s.lg.Info("Seeded banner", zap.String("id", b.ID), zap.String("title", b.Title))
	}
	return nil
}

func (s *seeder) categories(ctx context.Context, f fixture) error {
	for _, c := range f.Categories {
		_, err := s.repos.Categories.GetByID(ctx, c.ID)
		ok, err := present(err, catalog.ErrCategoryNotFound)
		if err != nil {
			return err
		}
		if ok {
			s.skip("category", c.ID)
			continue
		}
		if err := s.repos.Categories.Create(ctx, &catalog.Category{ID: c.ID, Name: c.Name, BannerID: c.BannerID, CreatedAt: s.now}); err != nil {
			return errors.Wrapf(err, "category %s", c.ID)
		}
		s.lg.Info("Seeded category", zap.String("id", c.ID), zap.String("name", c.Name))
	}
	return nil
}

func (s *seeder) products(ctx context.Context, f fixture) error {
	for _, p := range f.Products {
		_, err := s.repos.Products.GetByID(ctx, p.ID)
		ok, err := present(err, product.ErrNotFound)
		if err != nil {
			return err
		}
		if ok {
			s.skip("product", p.ID)
			continue
		}

		available := p.IsAvailable == nil || *p.IsAvailable
		d := product.Draft{
			Name:        p.Name,
			Brand:       p.Brand,
			Description: p.Description,
			Price:       p.Price,
			Amount:      p.Amount,
			IsAvailable: available,
			CategoryID:  p.CategoryID,
		}
		if err := d.Validate(); err != nil {
			return errors.Wrapf(err, "product %s", p.ID)
		}
		if err := s.repos.Products.Create(ctx, &product.Product{
			ID:          p.ID,
			Name:        strings.TrimSpace(p.Name),
			Brand:       p.Brand,
			Description: p.Description,
			Price:       p.Price.Round(2),
			Amount:      p.Amount,
			IsAvailable: available,
			CategoryID:  p.CategoryID,
			CreatedAt:   s.now,
		}); err != nil {
			return errors.Wrapf(err, "product %s", p.ID)
		}
		for _, path := range p.Images {
			if err := s.repos.Images.Create(ctx, &catalog.Image{
				ID: uuid.NewString(), ProductID: p.ID, Path: path, CreatedAt: s.now,
			}); err != nil {
				return errors.Wrapf(err, "image of product %s", p.ID)
			}
		}
		s.lg.Info("Seeded product", zap.String("id", p.ID), zap.String("name", p.Name), zap.Int("images", len(p.Images)))
	}
	return nil
}

func (s *seeder) discounts(ctx context.Context, f fixture) error {
	for _, d := range f.Discounts {
		_, err := s.repos.Discounts.GetByID(ctx, d.ID)
		ok, err := present(err, discount.ErrNotFound)
		if err != nil {
			return err
		}
		if ok {
			s.skip("discount", d.ID)
			continue
		}

		start, err := parseWhen(d.StartDate, s.now)
		if err != nil {
			return errors.Wrapf(err, "discount %s start_date", d.ID)
		}
		end, err := parseWhen(d.EndDate, s.now)
		if err != nil {
			return errors.Wrapf(err, "discount %s end_date", d.ID)
		}
		row := &discount.Discount{
			ID:         d.ID,
			Title:      d.Title,
			ProductID:  d.ProductID,
			Percentage: d.Percentage,
			StartDate:  start,
			EndDate:    end,
			Active:     d.Active,
			CreatedAt:  s.now,
		}
		if err := row.Validate(); err != nil {
			return errors.Wrapf(err, "discount %s", d.ID)
		}
		existing, err := s.repos.Discounts.ListActiveByProduct(ctx, d.ProductID)
		if err != nil {
			return errors.Wrapf(err, "discounts of product %s", d.ProductID)
		}
		if err := discount.CheckOverlap(*row, existing); err != nil {
			return errors.Wrapf(err, "discount %s", d.ID)
		}
		if err := s.repos.Discounts.Create(ctx, row); err != nil {
			return errors.Wrapf(err, "discount %s", d.ID)
		}
		s.lg.Info("Seeded discount", zap.String("id", d.ID), zap.String("product", d.ProductID))
	}
	return nil
}

func (s *seeder) users(ctx context.Context, f fixture) error {
	for _, u := range f.Users {
		role, err := access.ParseRole(u.Role)
		if err != nil {
			return errors.Wrapf(err, "user %s", u.ID)
		}
		_, err = s.repos.Users.GetByID(ctx, u.ID)
		ok, err := present(err, user.ErrNotFound)
		if err != nil {
			return err
		}
		if !ok {
			if err := s.repos.Users.Create(ctx, &user.User{
				ID:        u.ID,
				Username:  u.Username,
				Role:      role,
				Phone:     u.Phone,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				City:      u.City,
				Country:   u.Country,
				CreatedAt: s.now,
			}); err != nil {
				return errors.Wrapf(err, "user %s", u.ID)
			}
			s.lg.Info("Seeded user", zap.String("id", u.ID), zap.String("role", string(role)))
		}

		if u.APIKey == "" {
			continue
		}
		hash := auth.HashKey(s.pepper, u.APIKey)
		_, err = s.repos.APIKeys.FindByHash(ctx, hash)
		ok, err = present(err, auth.ErrUnknownKey)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if err := s.repos.APIKeys.Create(ctx, &auth.APIKeyInfo{
			ID: uuid.NewString(), KeyHash: hash, Name: u.Username, UserID: u.ID,
		}); err != nil {
			return errors.Wrapf(err, "api key of user %s", u.ID)
		}
		s.lg.Info("Seeded API key", zap.String("user", u.ID))
	}
	return nil
}

// parseWhen accepts an RFC 3339 timestamp or a day offset from now such as
// "-1d" or "+30d".
func parseWhen(v string, now time.Time) (time.Time, error) {
	if days, ok := strings.CutSuffix(v, "d"); ok && (strings.HasPrefix(v, "+") || strings.HasPrefix(v, "-")) {
		n, err := strconv.Atoi(days)
		if err != nil {
			return time.Time{}, errors.Wrap(err, "parse day offset")
		}
		return now.AddDate(0, 0, n), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parse timestamp")
	}
	return t.UTC(), nil
}
