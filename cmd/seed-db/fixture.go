package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type bannerFixture struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
}

type categoryFixture struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	BannerID *string `json:"banner_id"`
}

type productFixture struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Amount      int             `json:"amount"`
	IsAvailable *bool           `json:"is_available"`
	CategoryID  string          `json:"category_id"`
	Images      []string        `json:"images"`
}

type discountFixture struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	ProductID  string          `json:"product_id"`
	Percentage decimal.Decimal `json:"percentage"`
	// StartDate and EndDate are RFC 3339 timestamps or day offsets from now
	// such as "-1d" and "+30d".
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Active    bool   `json:"active"`
}

type userFixture struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	Country   string `json:"country"`
	// APIKey, when set, is registered for the user.
	APIKey string `json:"api_key"`
}

// fixture is the content of one seed file. Files are merged in the order
// they are given.
type fixture struct {
	Banners    []bannerFixture   `json:"banners"`
	Categories []categoryFixture `json:"categories"`
	Products   []productFixture  `json:"products"`
	Discounts  []discountFixture `json:"discounts"`
	Users      []userFixture     `json:"users"`
}

func (f *fixture) merge(other fixture) {
	f.Banners = append(f.Banners, other.Banners...)
	f.Categories = append(f.Categories, other.Categories...)
	f.Products = append(f.Products, other.Products...)
	f.Discounts = append(f.Discounts, other.Discounts...)
	f.Users = append(f.Users, other.Users...)
}

// decodeFixture reads a JSON fixture. Gzip input is detected by its magic
// bytes and decompressed with pgzip.
func decodeFixture(r io.Reader) (fixture, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := pgzip.NewReader(br)
		if err != nil {
			return fixture{}, errors.Wrap(err, "open gzip")
		}
		defer func() { _ = zr.Close() }()
		src = zr
	}

	var f fixture
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return fixture{}, errors.Wrap(err, "decode fixture")
	}
	return f, nil
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func loadFixtureFile(ctx context.Context, path string) (fixture, error) {
	if err := ctx.Err(); err != nil {
		return fixture{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return fixture{}, errors.Wrap(err, "open")
	}
	defer func() { _ = file.Close() }()
	return decodeFixture(ctxReader{ctx: ctx, r: file})
}

// loadFixtures decodes every file concurrently and merges the results in
// argument order. The first failure cancels the remaining readers.
func loadFixtures(ctx context.Context, paths []string) (fixture, error) {
	parts := make([]fixture, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			f, err := loadFixtureFile(ctx, path)
			if err != nil {
				return errors.Wrapf(err, "load %s", path)
			}
			parts[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fixture{}, err
	}

	var all fixture
	for _, p := range parts {
		all.merge(p)
	}
	return all, nil
}

// splitPaths parses a comma separated flag value.
func splitPaths(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
