package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vitrina/internal/ordering"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource already exists")

	QueryTimeoutDuration = time.Second * 5
)

// Store is the data access abstraction for the catalog domain.
// Implemented by Repository (which uses pgxpool.Pool).
type Store interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error

	// Catalogs
	CreateCatalog(ctx context.Context, c *Catalog) error
	GetCatalog(ctx context.Context, ownerID, id int64) (*Catalog, error)
	ListCatalogs(ctx context.Context, ownerID int64) ([]*Catalog, error)
	UpdateCatalog(ctx context.Context, c *Catalog) (*Catalog, error)
	DeleteCatalog(ctx context.Context, ownerID, id int64) error
	SetPublished(ctx context.Context, ownerID, id int64, published bool) error
	CountCatalogs(ctx context.Context, ownerID int64) (int, error)
	CatalogSlugExists(ctx context.Context, ownerID int64, slug string, excludeID int64) (bool, error)

	// Categories
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, catalogID, id int64) (*Category, error)
	ListCategories(ctx context.Context, catalogID int64) ([]*Category, error)
	UpdateCategory(ctx context.Context, c *Category) (*Category, error)
	DeleteCategory(ctx context.Context, catalogID, id int64) error
	CategorySlugExists(ctx context.Context, catalogID int64, slug string, excludeID int64) (bool, error)
	UpdateCategoryPositions(ctx context.Context, catalogID int64, updates []ordering.PositionUpdate) error

	// Brands
	CreateBrand(ctx context.Context, b *Brand) error
	GetBrand(ctx context.Context, catalogID, id int64) (*Brand, error)
	ListBrands(ctx context.Context, catalogID int64) ([]*Brand, error)
	UpdateBrand(ctx context.Context, b *Brand) (*Brand, error)
	DeleteBrand(ctx context.Context, catalogID, id int64) error
	SetBrandLogo(ctx context.Context, catalogID, id int64, logoURL string) error

	// Products
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, catalogID, id int64) (*Product, error)
	GetProductWithImages(ctx context.Context, catalogID, id int64) (*ProductWithImages, error)
	ListProducts(ctx context.Context, catalogID int64) ([]*Product, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	DeleteProduct(ctx context.Context, catalogID, id int64) ([]string, error)
	SetProductVisibility(ctx context.Context, catalogID, id int64, visible bool) error
	CountProducts(ctx context.Context, catalogID int64) (int, error)
	ProductSlugExists(ctx context.Context, catalogID int64, slug string, excludeID int64) (bool, error)
	UpdateProductPositions(ctx context.Context, catalogID int64, updates []ordering.PositionUpdate) error

	// Product images
	AddProductImage(ctx context.Context, img *ProductImage) (*ProductImage, error)
	GetProductImage(ctx context.Context, productID, imageID int64) (*ProductImage, error)
	ListProductImages(ctx context.Context, productID int64) ([]*ProductImage, error)
	SetPrimaryImage(ctx context.Context, productID, imageID int64) error
	DeleteProductImage(ctx context.Context, productID, imageID int64) (*ProductImage, error)

	// Public storefront reads
	ResolveOwner(ctx context.Context, username string) (int64, *OwnerSummary, error)
	GetPublishedCatalog(ctx context.Context, ownerID int64, slug string) (*Catalog, error)
	ListVisibleProductsWithImages(ctx context.Context, catalogID int64) ([]*ProductWithImages, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Printf("warning: rollback failed: %v", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// failure (23505), the insert-time face of a slug race.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ------------------------------------
// Catalogs
// ------------------------------------

func (r *Repository) CreateCatalog(ctx context.Context, c *Catalog) error {
	query := `
		INSERT INTO catalogs (user_id, name, slug, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_published, created_at, updated_at;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, query, c.UserID, c.Name, c.Slug, c.Description).
		Scan(&c.ID, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create catalog: %w", err)
	}
	return nil
}

func (r *Repository) GetCatalog(ctx context.Context, ownerID, id int64) (*Catalog, error) {
	query := `
		SELECT id, user_id, name, slug, description, is_published, created_at, updated_at
		FROM catalogs
		WHERE id = $1 AND user_id = $2;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	c := &Catalog{}
	err := r.db.QueryRow(ctx, query, id, ownerID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Slug, &c.Description, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get catalog: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCatalogs(ctx context.Context, ownerID int64) ([]*Catalog, error) {
	query := `
		SELECT id, user_id, name, slug, description, is_published, created_at, updated_at
		FROM catalogs
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	defer rows.Close()

	var list []*Catalog
	for rows.Next() {
		var c Catalog
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Slug, &c.Description, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return list, nil
}

func (r *Repository) UpdateCatalog(ctx context.Context, c *Catalog) (*Catalog, error) {
	query := `
		UPDATE catalogs
		SET
			name = COALESCE(NULLIF($1, ''), name),
			slug = COALESCE(NULLIF($2, ''), slug),
			description = COALESCE($3, description),
			updated_at = now()
		WHERE id = $4 AND user_id = $5
		RETURNING id, user_id, name, slug, description, is_published, created_at, updated_at;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	updated := &Catalog{}
	err := r.db.QueryRow(ctx, query, c.Name, c.Slug, c.Description, c.ID, c.UserID).
		Scan(&updated.ID, &updated.UserID, &updated.Name, &updated.Slug, &updated.Description,
			&updated.IsPublished, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update catalog: %w", err)
	}
	return updated, nil
}

// DeleteCatalog removes the catalog; categories, brands, products and
// their images go with it via ON DELETE CASCADE.
func (r *Repository) DeleteCatalog(ctx context.Context, ownerID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM catalogs WHERE id = $1 AND user_id = $2;`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete catalog: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetPublished(ctx context.Context, ownerID, id int64, published bool) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cmd, err := r.db.Exec(ctx,
		`UPDATE catalogs SET is_published = $1, updated_at = now() WHERE id = $2 AND user_id = $3;`,
		published, id, ownerID)
	if err != nil {
		return fmt.Errorf("set published: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) CountCatalogs(ctx context.Context, ownerID int64) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM catalogs WHERE user_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count catalogs: %w", err)
	}
	return n, nil
}

func (r *Repository) CatalogSlugExists(ctx context.Context, ownerID int64, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM catalogs WHERE user_id = $1 AND slug = $2 AND id <> $3)`,
		ownerID, slug, excludeID).Scan(&exists)
	return exists, err
}

// ------------------------------------
// Categories
// ------------------------------------

// CreateCategory appends the category at the end of the catalog's order.
func (r *Repository) CreateCategory(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (catalog_id, name, slug, icon, position)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM categories WHERE catalog_id = $1))
		RETURNING id, position, created_at, updated_at;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, query, c.CatalogID, c.Name, c.Slug, c.Icon).
		Scan(&c.ID, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *Repository) GetCategory(ctx context.Context, catalogID, id int64) (*Category, error) {
	query := `
		SELECT id, catalog_id, name, slug, icon, position, created_at, updated_at
		FROM categories
		WHERE id = $1 AND catalog_id = $2;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	c := &Category{}
	err := r.db.QueryRow(ctx, query, id, catalogID).
		Scan(&c.ID, &c.CatalogID, &c.Name, &c.Slug, &c.Icon, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context, catalogID int64) ([]*Category, error) {
	query := `
		SELECT id, catalog_id, name, slug, icon, position, created_at, updated_at
		FROM categories
		WHERE catalog_id = $1
		ORDER BY position ASC;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query, catalogID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var list []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.CatalogID, &c.Name, &c.Slug, &c.Icon, &c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return list, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c *Category) (*Category, error) {
	query := `
		UPDATE categories
		SET
			name = COALESCE(NULLIF($1, ''), name),
			slug = COALESCE(NULLIF($2, ''), slug),
			icon = COALESCE($3, icon),
			updated_at = now()
		WHERE id = $4 AND catalog_id = $5
		RETURNING id, catalog_id, name, slug, icon, position, created_at, updated_at;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	updated := &Category{}
	err := r.db.QueryRow(ctx, query, c.Name, c.Slug, c.Icon, c.ID, c.CatalogID).
		Scan(&updated.ID, &updated.CatalogID, &updated.Name, &updated.Slug, &updated.Icon,
			&updated.Position, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return updated, nil
}

// DeleteCategory removes the row and closes the gap it leaves so the
// catalog's category positions stay a dense 0..n-1 sequence.
func (r *Repository) DeleteCategory(ctx context.Context, catalogID, id int64) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		var position int
		err := tx.QueryRow(ctx,
			`DELETE FROM categories WHERE id = $1 AND catalog_id = $2 RETURNING position`,
			id, catalogID).Scan(&position)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("delete category: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE categories SET position = position - 1 WHERE catalog_id = $1 AND position > $2`,
			catalogID, position); err != nil {
			return fmt.Errorf("compact category positions: %w", err)
		}
		return nil
	})
}

func (r *Repository) CategorySlugExists(ctx context.Context, catalogID int64, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE catalog_id = $1 AND slug = $2 AND id <> $3)`,
		catalogID, slug, excludeID).Scan(&exists)
	return exists, err
}

// UpdateCategoryPositions applies a reorder's write set atomically.
func (r *Repository) UpdateCategoryPositions(ctx context.Context, catalogID int64, updates []ordering.PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		for _, u := range updates {
			cmd, err := tx.Exec(ctx,
				`UPDATE categories SET position = $1, updated_at = now() WHERE id = $2 AND catalog_id = $3`,
				u.Position, u.ID, catalogID)
			if err != nil {
				return fmt.Errorf("update category position: %w", err)
			}
			if cmd.RowsAffected() == 0 {
				return fmt.Errorf("category %d not in catalog %d: %w", u.ID, catalogID, ErrNotFound)
			}
		}
		return nil
	})
}

// ------------------------------------
// Brands
// ------------------------------------

func (r *Repository) CreateBrand(ctx context.Context, b *Brand) error {
	query := `
		INSERT INTO brands (catalog_id, name, logo_url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, query, b.CatalogID, b.Name, b.LogoURL).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create brand: %w", err)
	}
	return nil
}

func (r *Repository) GetBrand(ctx context.Context, catalogID, id int64) (*Brand, error) {
	query := `
		SELECT id, catalog_id, name, logo_url, created_at, updated_at
		FROM brands
		WHERE id = $1 AND catalog_id = $2;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	b := &Brand{}
	err := r.db.QueryRow(ctx, query, id, catalogID).
		Scan(&b.ID, &b.CatalogID, &b.Name, &b.LogoURL, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get brand: %w", err)
	}
	return b, nil
}

func (r *Repository) ListBrands(ctx context.Context, catalogID int64) ([]*Brand, error) {
	query := `
		SELECT id, catalog_id, name, logo_url, created_at, updated_at
		FROM brands
		WHERE catalog_id = $1
		ORDER BY LOWER(name) ASC, id ASC;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query, catalogID)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var list []*Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.CatalogID, &b.Name, &b.LogoURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		list = append(list, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return list, nil
}

func (r *Repository) UpdateBrand(ctx context.Context, b *Brand) (*Brand, error) {
	query := `
		UPDATE brands
		SET
			name = COALESCE(NULLIF($1, ''), name),
			logo_url = COALESCE($2, logo_url),
			updated_at = now()
		WHERE id = $3 AND catalog_id = $4
		RETURNING id, catalog_id, name, logo_url, created_at, updated_at;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	updated := &Brand{}
	err := r.db.QueryRow(ctx, query, b.Name, b.LogoURL, b.ID, b.CatalogID).
		Scan(&updated.ID, &updated.CatalogID, &updated.Name, &updated.LogoURL, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update brand: %w", err)
	}
	return updated, nil
}

func (r *Repository) DeleteBrand(ctx context.Context, catalogID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM brands WHERE id = $1 AND catalog_id = $2;`, id, catalogID)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetBrandLogo(ctx context.Context, catalogID, id int64, logoURL string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cmd, err := r.db.Exec(ctx,
		`UPDATE brands SET logo_url = $1, updated_at = now() WHERE id = $2 AND catalog_id = $3;`,
		logoURL, id, catalogID)
	if err != nil {
		return fmt.Errorf("set brand logo: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ------------------------------------
// Products
// ------------------------------------

func (r *Repository) CreateProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (catalog_id, category_id, brand_id, title, slug, description, price_cents, is_visible, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM products WHERE catalog_id = $1))
		RETURNING id, position, created_at, updated_at;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, query,
		p.CatalogID, p.CategoryID, p.BrandID, p.Title, p.Slug, p.Description, p.PriceCents, p.IsVisible).
		Scan(&p.ID, &p.Position, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, catalogID, id int64) (*Product, error) {
	query := `
		SELECT id, catalog_id, category_id, brand_id, title, slug, description, price_cents, is_visible, position, created_at, updated_at
		FROM products
		WHERE id = $1 AND catalog_id = $2;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	p := &Product{}
	err := r.db.QueryRow(ctx, query, id, catalogID).
		Scan(&p.ID, &p.CatalogID, &p.CategoryID, &p.BrandID, &p.Title, &p.Slug, &p.Description,
			&p.PriceCents, &p.IsVisible, &p.Position, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProductWithImages(ctx context.Context, catalogID, id int64) (*ProductWithImages, error) {
	p, err := r.GetProduct(ctx, catalogID, id)
	if err != nil {
		return nil, err
	}
	images, err := r.ListProductImages(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &ProductWithImages{Product: *p, Images: images}, nil
}

func (r *Repository) ListProducts(ctx context.Context, catalogID int64) ([]*Product, error) {
	query := `
		SELECT id, catalog_id, category_id, brand_id, title, slug, description, price_cents, is_visible, position, created_at, updated_at
		FROM products
		WHERE catalog_id = $1
		ORDER BY position ASC;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query, catalogID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var list []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.CatalogID, &p.CategoryID, &p.BrandID, &p.Title, &p.Slug,
			&p.Description, &p.PriceCents, &p.IsVisible, &p.Position, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return list, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	query := `
		UPDATE products
		SET
			title = COALESCE(NULLIF($1, ''), title),
			slug = COALESCE(NULLIF($2, ''), slug),
			description = COALESCE($3, description),
			category_id = COALESCE(NULLIF($4, 0), category_id),
			brand_id = $5,
			price_cents = $6,
			updated_at = now()
		WHERE id = $7 AND catalog_id = $8
		RETURNING id, catalog_id, category_id, brand_id, title, slug, description, price_cents, is_visible, position, created_at, updated_at;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	updated := &Product{}
	err := r.db.QueryRow(ctx, query,
		p.Title, p.Slug, p.Description, p.CategoryID, p.BrandID, p.PriceCents, p.ID, p.CatalogID).
		Scan(&updated.ID, &updated.CatalogID, &updated.CategoryID, &updated.BrandID, &updated.Title,
			&updated.Slug, &updated.Description, &updated.PriceCents, &updated.IsVisible,
			&updated.Position, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// DeleteProduct removes the row (images cascade), compacts the position
// sequence, and returns the image URLs so the caller can destroy the
// stored objects as a best-effort side effect.
func (r *Repository) DeleteProduct(ctx context.Context, catalogID, id int64) ([]string, error) {
	var urls []string
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT url FROM product_images WHERE product_id = $1`, id)
		if err != nil {
			return fmt.Errorf("list image urls: %w", err)
		}
		for rows.Next() {
			var u string
			if err := rows.Scan(&u); err != nil {
				rows.Close()
				return fmt.Errorf("scan image url: %w", err)
			}
			urls = append(urls, u)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows iteration: %w", err)
		}

		var position int
		err = tx.QueryRow(ctx,
			`DELETE FROM products WHERE id = $1 AND catalog_id = $2 RETURNING position`,
			id, catalogID).Scan(&position)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("delete product: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE products SET position = position - 1 WHERE catalog_id = $1 AND position > $2`,
			catalogID, position); err != nil {
			return fmt.Errorf("compact product positions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return urls, nil
}

func (r *Repository) SetProductVisibility(ctx context.Context, catalogID, id int64, visible bool) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cmd, err := r.db.Exec(ctx,
		`UPDATE products SET is_visible = $1, updated_at = now() WHERE id = $2 AND catalog_id = $3;`,
		visible, id, catalogID)
	if err != nil {
		return fmt.Errorf("set product visibility: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) CountProducts(ctx context.Context, catalogID int64) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE catalog_id = $1`, catalogID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *Repository) ProductSlugExists(ctx context.Context, catalogID int64, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE catalog_id = $1 AND slug = $2 AND id <> $3)`,
		catalogID, slug, excludeID).Scan(&exists)
	return exists, err
}

// UpdateProductPositions applies a reorder's write set atomically.
func (r *Repository) UpdateProductPositions(ctx context.Context, catalogID int64, updates []ordering.PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		for _, u := range updates {
			cmd, err := tx.Exec(ctx,
				`UPDATE products SET position = $1, updated_at = now() WHERE id = $2 AND catalog_id = $3`,
				u.Position, u.ID, catalogID)
			if err != nil {
				return fmt.Errorf("update product position: %w", err)
			}
			if cmd.RowsAffected() == 0 {
				return fmt.Errorf("product %d not in catalog %d: %w", u.ID, catalogID, ErrNotFound)
			}
		}
		return nil
	})
}

// ------------------------------------
// Product images
// ------------------------------------

// AddProductImage inserts a gallery image. The first image of a product
// always becomes primary; an explicit primary insert clears any existing
// primary in the same transaction.
func (r *Repository) AddProductImage(ctx context.Context, img *ProductImage) (*ProductImage, error) {
	created := &ProductImage{}
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM product_images WHERE product_id = $1`, img.ProductID).Scan(&count); err != nil {
			return fmt.Errorf("count images: %w", err)
		}
		if count == 0 {
			img.IsPrimary = true
		} else if img.IsPrimary {
			if _, err := tx.Exec(ctx,
				`UPDATE product_images SET is_primary = false WHERE product_id = $1 AND is_primary = true`,
				img.ProductID); err != nil {
				return fmt.Errorf("clear existing primary: %w", err)
			}
		}

		query := `
			INSERT INTO product_images (product_id, url, is_primary, sort_order)
			VALUES ($1, $2, $3,
				(SELECT COALESCE(MAX(sort_order) + 1, 0) FROM product_images WHERE product_id = $1))
			RETURNING id, product_id, url, is_primary, sort_order, created_at;
		`
		if err := tx.QueryRow(ctx, query, img.ProductID, img.URL, img.IsPrimary).
			Scan(&created.ID, &created.ProductID, &created.URL, &created.IsPrimary, &created.SortOrder, &created.CreatedAt); err != nil {
			return fmt.Errorf("insert product image: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) GetProductImage(ctx context.Context, productID, imageID int64) (*ProductImage, error) {
	query := `
		SELECT id, product_id, url, is_primary, sort_order, created_at
		FROM product_images
		WHERE id = $1 AND product_id = $2;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	img := &ProductImage{}
	err := r.db.QueryRow(ctx, query, imageID, productID).
		Scan(&img.ID, &img.ProductID, &img.URL, &img.IsPrimary, &img.SortOrder, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product image: %w", err)
	}
	return img, nil
}

func (r *Repository) ListProductImages(ctx context.Context, productID int64) ([]*ProductImage, error) {
	query := `
		SELECT id, product_id, url, is_primary, sort_order, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY sort_order ASC, id ASC;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}
	defer rows.Close()

	var list []*ProductImage
	for rows.Next() {
		var img ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.IsPrimary, &img.SortOrder, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product image: %w", err)
		}
		list = append(list, &img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return list, nil
}

// SetPrimaryImage flips the primary flag to the given image, clearing any
// other primary for the product in the same transaction.
func (r *Repository) SetPrimaryImage(ctx context.Context, productID, imageID int64) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM product_images WHERE id = $1 AND product_id = $2)`,
			imageID, productID).Scan(&exists); err != nil {
			return fmt.Errorf("check image ownership: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		if _, err := tx.Exec(ctx,
			`UPDATE product_images SET is_primary = false WHERE product_id = $1 AND is_primary = true`,
			productID); err != nil {
			return fmt.Errorf("clear primary: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE product_images SET is_primary = true WHERE id = $1`, imageID); err != nil {
			return fmt.Errorf("set primary: %w", err)
		}
		return nil
	})
}

// DeleteProductImage removes one image and, when it was the primary and
// other images remain, promotes the one with the lowest sort order (ties
// by id). Returns the deleted row so the caller can destroy the stored
// object.
func (r *Repository) DeleteProductImage(ctx context.Context, productID, imageID int64) (*ProductImage, error) {
	deleted := &ProductImage{}
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`DELETE FROM product_images WHERE id = $1 AND product_id = $2
			 RETURNING id, product_id, url, is_primary, sort_order, created_at`,
			imageID, productID).
			Scan(&deleted.ID, &deleted.ProductID, &deleted.URL, &deleted.IsPrimary, &deleted.SortOrder, &deleted.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("delete product image: %w", err)
		}

		if deleted.IsPrimary {
			if _, err := tx.Exec(ctx, `
				UPDATE product_images SET is_primary = true
				WHERE id = (
					SELECT id FROM product_images
					WHERE product_id = $1
					ORDER BY sort_order ASC, id ASC
					LIMIT 1
				)`, productID); err != nil {
				return fmt.Errorf("promote successor primary: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// ------------------------------------
// Public storefront reads
// ------------------------------------

func (r *Repository) ResolveOwner(ctx context.Context, username string) (int64, *OwnerSummary, error) {
	query := `
		SELECT id, username, full_name, logo_url
		FROM profiles
		WHERE username = $1 AND is_active = true;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var id int64
	owner := &OwnerSummary{}
	err := r.db.QueryRow(ctx, query, username).Scan(&id, &owner.Username, &owner.FullName, &owner.LogoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, ErrNotFound
		}
		return 0, nil, fmt.Errorf("resolve owner: %w", err)
	}
	return id, owner, nil
}

func (r *Repository) GetPublishedCatalog(ctx context.Context, ownerID int64, slug string) (*Catalog, error) {
	query := `
		SELECT id, user_id, name, slug, description, is_published, created_at, updated_at
		FROM catalogs
		WHERE user_id = $1 AND slug = $2 AND is_published = true;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	c := &Catalog{}
	err := r.db.QueryRow(ctx, query, ownerID, slug).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Slug, &c.Description, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get published catalog: %w", err)
	}
	return c, nil
}

// ListVisibleProductsWithImages returns the storefront product set:
// visible products ordered by position, galleries attached in one pass.
func (r *Repository) ListVisibleProductsWithImages(ctx context.Context, catalogID int64) ([]*ProductWithImages, error) {
	query := `
		SELECT id, catalog_id, category_id, brand_id, title, slug, description, price_cents, is_visible, position, created_at, updated_at
		FROM products
		WHERE catalog_id = $1 AND is_visible = true
		ORDER BY position ASC;
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query, catalogID)
	if err != nil {
		return nil, fmt.Errorf("list visible products: %w", err)
	}
	defer rows.Close()

	var list []*ProductWithImages
	byID := make(map[int64]*ProductWithImages)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.CatalogID, &p.CategoryID, &p.BrandID, &p.Title, &p.Slug,
			&p.Description, &p.PriceCents, &p.IsVisible, &p.Position, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		pw := &ProductWithImages{Product: p, Images: []*ProductImage{}}
		list = append(list, pw)
		byID[p.ID] = pw
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	imgQuery := `
		SELECT i.id, i.product_id, i.url, i.is_primary, i.sort_order, i.created_at
		FROM product_images i
		JOIN products p ON p.id = i.product_id
		WHERE p.catalog_id = $1 AND p.is_visible = true
		ORDER BY i.sort_order ASC, i.id ASC;
	`
	imgRows, err := r.db.Query(ctx, imgQuery, catalogID)
	if err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}
	defer imgRows.Close()

	for imgRows.Next() {
		var img ProductImage
		if err := imgRows.Scan(&img.ID, &img.ProductID, &img.URL, &img.IsPrimary, &img.SortOrder, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product image: %w", err)
		}
		if pw, ok := byID[img.ProductID]; ok {
			pw.Images = append(pw.Images, &img)
		}
	}
	if err := imgRows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return list, nil
}
