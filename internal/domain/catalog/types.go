package catalog

import "time"

type Catalog struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Category struct {
	ID        int64     `json:"id"`
	CatalogID int64     `json:"catalog_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Icon      *string   `json:"icon,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Brand struct {
	ID        int64     `json:"id"`
	CatalogID int64     `json:"catalog_id"`
	Name      string    `json:"name"`
	LogoURL   *string   `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID          int64     `json:"id"`
	CatalogID   int64     `json:"catalog_id"`
	CategoryID  int64     `json:"category_id"`
	BrandID     *int64    `json:"brand_id,omitempty"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	PriceCents  *int64    `json:"price_cents,omitempty"`
	IsVisible   bool      `json:"is_visible"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductImage struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	URL       string    `json:"url"`
	IsPrimary bool      `json:"is_primary"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductWithImages is the admin/storefront detail shape: the product row
// with its gallery attached, built at the repository boundary.
type ProductWithImages struct {
	Product
	Images []*ProductImage `json:"images"`
}

// OwnerSummary is the slice of the owning profile a public page needs.
type OwnerSummary struct {
	Username string  `json:"username"`
	FullName *string `json:"full_name,omitempty"`
	LogoURL  *string `json:"logo_url,omitempty"`
}

// PublicCatalog is the full storefront payload for one published catalog:
// visible products only, both products and categories ordered by position.
type PublicCatalog struct {
	Catalog    Catalog              `json:"catalog"`
	Owner      OwnerSummary         `json:"owner"`
	Categories []*Category          `json:"categories"`
	Brands     []*Brand             `json:"brands"`
	Products   []*ProductWithImages `json:"products"`
}
