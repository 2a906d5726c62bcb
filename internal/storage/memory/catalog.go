package memory

import (
	"context"
	"slices"

	"github.com/xenking/local-market/internal/domain/catalog"
	"github.com/xenking/local-market/internal/domain/product"
)

var (
	_ catalog.BannerRepository   = (*BannerRepository)(nil)
	_ catalog.CategoryRepository = (*CategoryRepository)(nil)
	_ catalog.ImageRepository    = (*ImageRepository)(nil)
	_ product.CategoryLookup     = (*CategoryRepository)(nil)
)

// BannerRepository implements catalog.BannerRepository in memory.
type BannerRepository struct {
	s *Store
}

func (r *BannerRepository) List(ctx context.Context) ([]catalog.Banner, error) {
	defer r.s.rlock(ctx)()
	out := make([]catalog.Banner, 0, len(r.s.t.banners))
	for _, b := range r.s.t.banners {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b catalog.Banner) int { return byCreation(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (r *BannerRepository) GetByID(ctx context.Context, id string) (*catalog.Banner, error) {
	defer r.s.rlock(ctx)()
	b, ok := r.s.t.banners[id]
	if !ok {
		return nil, catalog.ErrBannerNotFound
	}
	return &b, nil
}

func (r *BannerRepository) Create(ctx context.Context, b *catalog.Banner) error {
	defer r.s.wlock(ctx)()
	r.s.t.banners[b.ID] = *b
	return nil
}

func (r *BannerRepository) Update(ctx context.Context, b *catalog.Banner) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.banners[b.ID]; !ok {
		return catalog.ErrBannerNotFound
	}
	r.s.t.banners[b.ID] = *b
	return nil
}

func (r *BannerRepository) Delete(ctx context.Context, id string) error {
	defer r.s.wlock(ctx)()
	t := r.s.t
	if _, ok := t.banners[id]; !ok {
		return catalog.ErrBannerNotFound
	}
	delete(t.banners, id)
	for cid, c := range t.categories {
		if c.BannerID != nil && *c.BannerID == id {
			c.BannerID = nil
			t.categories[cid] = c
		}
	}
	return nil
}

// CategoryRepository implements catalog.CategoryRepository in memory.
type CategoryRepository struct {
	s *Store
}

func (r *CategoryRepository) List(ctx context.Context) ([]catalog.Category, error) {
	defer r.s.rlock(ctx)()
	out := make([]catalog.Category, 0, len(r.s.t.categories))
	for _, c := range r.s.t.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b catalog.Category) int { return byCreation(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*catalog.Category, error) {
	defer r.s.rlock(ctx)()
	c, ok := r.s.t.categories[id]
	if !ok {
		return nil, catalog.ErrCategoryNotFound
	}
	return &c, nil
}

func (r *CategoryRepository) CategoryExists(ctx context.Context, id string) (bool, error) {
	defer r.s.rlock(ctx)()
	_, ok := r.s.t.categories[id]
	return ok, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *catalog.Category) error {
	defer r.s.wlock(ctx)()
	r.s.t.categories[c.ID] = *c
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *catalog.Category) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.categories[c.ID]; !ok {
		return catalog.ErrCategoryNotFound
	}
	r.s.t.categories[c.ID] = *c
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	defer r.s.wlock(ctx)()
	t := r.s.t
	if _, ok := t.categories[id]; !ok {
		return catalog.ErrCategoryNotFound
	}
	delete(t.categories, id)
	for pid, p := range t.products {
		if p.CategoryID == id {
			t.deleteProduct(pid)
		}
	}
	return nil
}

// ImageRepository implements catalog.ImageRepository in memory.
type ImageRepository struct {
	s *Store
}

func (r *ImageRepository) ListByProducts(ctx context.Context, productIDs []string) ([]catalog.Image, error) {
	defer r.s.rlock(ctx)()
	var out []catalog.Image
	for _, img := range r.s.t.images {
		if slices.Contains(productIDs, img.ProductID) {
			out = append(out, img)
		}
	}
	slices.SortFunc(out, func(a, b catalog.Image) int { return byCreation(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id string) (*catalog.Image, error) {
	defer r.s.rlock(ctx)()
	img, ok := r.s.t.images[id]
	if !ok {
		return nil, catalog.ErrImageNotFound
	}
	return &img, nil
}

func (r *ImageRepository) Create(ctx context.Context, img *catalog.Image) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.products[img.ProductID]; !ok {
		return product.ErrNotFound
	}
	r.s.t.images[img.ID] = *img
	return nil
}

func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.images[id]; !ok {
		return catalog.ErrImageNotFound
	}
	delete(r.s.t.images, id)
	return nil
}
