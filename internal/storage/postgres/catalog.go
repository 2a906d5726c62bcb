package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/local-market/internal/domain/catalog"
	"github.com/xenking/local-market/internal/domain/product"
)

const (
	listBannersSQL  = `SELECT id, title, image, created_at FROM banners ORDER BY created_at, id`
	getBannerSQL    = `SELECT id, title, image, created_at FROM banners WHERE id = $1`
	createBannerSQL = `INSERT INTO banners (id, title, image, created_at) VALUES ($1, $2, $3, $4)`
	updateBannerSQL = `UPDATE banners SET title = $2, image = $3 WHERE id = $1`
	deleteBannerSQL = `DELETE FROM banners WHERE id = $1`

	listCategoriesSQL = `SELECT id, name, banner_id, created_at FROM categories ORDER BY created_at, id`
	getCategorySQL    = `SELECT id, name, banner_id, created_at FROM categories WHERE id = $1`
	categoryExistsSQL = `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`
	createCategorySQL = `INSERT INTO categories (id, name, banner_id, created_at) VALUES ($1, $2, $3, $4)`
	updateCategorySQL = `UPDATE categories SET name = $2, banner_id = $3 WHERE id = $1`
	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`

	listImagesSQL  = `SELECT id, product_id, path, created_at FROM images WHERE product_id = ANY($1) ORDER BY created_at, id`
	getImageSQL    = `SELECT id, product_id, path, created_at FROM images WHERE id = $1`
	createImageSQL = `INSERT INTO images (id, product_id, path, created_at) VALUES ($1, $2, $3, $4)`
	deleteImageSQL = `DELETE FROM images WHERE id = $1`
)

var (
	_ catalog.BannerRepository   = (*BannerRepository)(nil)
	_ catalog.CategoryRepository = (*CategoryRepository)(nil)
	_ catalog.ImageRepository    = (*ImageRepository)(nil)
	_ product.CategoryLookup     = (*CategoryRepository)(nil)
)

// BannerRepository implements catalog.BannerRepository backed by PostgreSQL.
type BannerRepository struct {
	db *DB
}

func (r *BannerRepository) List(ctx context.Context) ([]catalog.Banner, error) {
	rows, err := r.db.conn(ctx).Query(ctx, listBannersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing banners: %w", err)
	}
	return pgx.CollectRows(rows, scanBanner)
}

func (r *BannerRepository) GetByID(ctx context.Context, id string) (*catalog.Banner, error) {
	rows, err := r.db.conn(ctx).Query(ctx, getBannerSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting banner %q: %w", id, err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBanner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrBannerNotFound
		}
		return nil, fmt.Errorf("getting banner %q: %w", id, err)
	}
	return &b, nil
}

func (r *BannerRepository) Create(ctx context.Context, b *catalog.Banner) error {
	if _, err := r.db.conn(ctx).Exec(ctx, createBannerSQL, b.ID, b.Title, b.Image, b.CreatedAt); err != nil {
		return fmt.Errorf("creating banner: %w", err)
	}
	return nil
}

func (r *BannerRepository) Update(ctx context.Context, b *catalog.Banner) error {
	tag, err := r.db.conn(ctx).Exec(ctx, updateBannerSQL, b.ID, b.Title, b.Image)
	if err != nil {
		return fmt.Errorf("updating banner %q: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrBannerNotFound
	}
	return nil
}

// Delete removes a banner. Categories referencing it are detached by the
// foreign key.
func (r *BannerRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteBannerSQL, id)
	if err != nil {
		return fmt.Errorf("deleting banner %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrBannerNotFound
	}
	return nil
}

func scanBanner(row pgx.CollectableRow) (catalog.Banner, error) {
	var b catalog.Banner
	err := row.Scan(&b.ID, &b.Title, &b.Image, &b.CreatedAt)
	return b, err
}

// CategoryRepository implements catalog.CategoryRepository backed by PostgreSQL.
type CategoryRepository struct {
	db *DB
}

func (r *CategoryRepository) List(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.db.conn(ctx).Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*catalog.Category, error) {
	rows, err := r.db.conn(ctx).Query(ctx, getCategorySQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	return &c, nil
}

// CategoryExists reports whether a category with the ID exists.
func (r *CategoryRepository) CategoryExists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.conn(ctx).QueryRow(ctx, categoryExistsSQL, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking category %q: %w", id, err)
	}
	return ok, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *catalog.Category) error {
	if _, err := r.db.conn(ctx).Exec(ctx, createCategorySQL, c.ID, c.Name, c.BannerID, c.CreatedAt); err != nil {
		return fmt.Errorf("creating category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *catalog.Category) error {
	tag, err := r.db.conn(ctx).Exec(ctx, updateCategorySQL, c.ID, c.Name, c.BannerID)
	if err != nil {
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

// Delete removes a category; its products go with it.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return fmt.Errorf("deleting category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.CollectableRow) (catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(&c.ID, &c.Name, &c.BannerID, &c.CreatedAt)
	return c, err
}

// ImageRepository implements catalog.ImageRepository backed by PostgreSQL.
type ImageRepository struct {
	db *DB
}

func (r *ImageRepository) ListByProducts(ctx context.Context, productIDs []string) ([]catalog.Image, error) {
	rows, err := r.db.conn(ctx).Query(ctx, listImagesSQL, productIDs)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return pgx.CollectRows(rows, scanImage)
}

func (r *ImageRepository) GetByID(ctx context.Context, id string) (*catalog.Image, error) {
	rows, err := r.db.conn(ctx).Query(ctx, getImageSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting image %q: %w", id, err)
	}
	img, err := pgx.CollectExactlyOneRow(rows, scanImage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrImageNotFound
		}
		return nil, fmt.Errorf("getting image %q: %w", id, err)
	}
	return &img, nil
}

func (r *ImageRepository) Create(ctx context.Context, img *catalog.Image) error {
	if _, err := r.db.conn(ctx).Exec(ctx, createImageSQL, img.ID, img.ProductID, img.Path, img.CreatedAt); err != nil {
		return fmt.Errorf("creating image: %w", err)
	}
	return nil
}

func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteImageSQL, id)
	if err != nil {
		return fmt.Errorf("deleting image %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrImageNotFound
	}
	return nil
}

func scanImage(row pgx.CollectableRow) (catalog.Image, error) {
	var img catalog.Image
	err := row.Scan(&img.ID, &img.ProductID, &img.Path, &img.CreatedAt)
	return img, err
}
