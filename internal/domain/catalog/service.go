package catalog

import (
	"context"
	"errors"
	"fmt"

	"vitrina/internal/ordering"
	"vitrina/internal/slug"

	"go.uber.org/zap"
)

// slugRetries bounds the insert-retry loop that absorbs concurrent
// allocations of the same slug.
const slugRetries = 3

// Limits is the effective quota for one merchant, resolved from their
// subscription plan. A zero-valued field means unlimited.
type Limits struct {
	MaxCatalogs           int
	MaxProductsPerCatalog int
}

// PlanLimits resolves a merchant's effective limits. Implemented by the
// billing store; defined here so the catalog domain does not import it.
type PlanLimits interface {
	Limits(ctx context.Context, userID int64) (Limits, error)
}

// LimitExceededError signals that a create would push the merchant past
// a plan quota. Handlers map it to 403 with code "limit_exceeded".
type LimitExceededError struct {
	Resource string
	Limit    int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s limit of %d reached for current plan", e.Resource, e.Limit)
}

type Service struct {
	store  Store
	limits PlanLimits
	logger *zap.SugaredLogger
}

func NewService(store Store, limits PlanLimits, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, limits: limits, logger: logger}
}

// ------------------------------------
// Catalogs
// ------------------------------------

type CreateCatalogInput struct {
	Name        string
	Description *string
}

func (s *Service) CreateCatalog(ctx context.Context, ownerID int64, in CreateCatalogInput) (*Catalog, error) {
	lim, err := s.limits.Limits(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("resolve limits: %w", err)
	}
	if lim.MaxCatalogs > 0 {
		n, err := s.store.CountCatalogs(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if n >= lim.MaxCatalogs {
			return nil, &LimitExceededError{Resource: "catalog", Limit: lim.MaxCatalogs}
		}
	}

	alloc := slug.Allocator{Exists: s.store.CatalogSlugExists}

	var created *Catalog
	for attempt := 0; attempt < slugRetries; attempt++ {
		candidate, err := alloc.Allocate(ctx, ownerID, in.Name, 0)
		if err != nil {
			return nil, err
		}

		c := &Catalog{
			UserID:      ownerID,
			Name:        in.Name,
			Slug:        candidate,
			Description: in.Description,
		}
		err = s.store.CreateCatalog(ctx, c)
		if err == nil {
			created = c
			break
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		s.logger.Infow("catalog slug taken concurrently, retrying", "slug", candidate, "attempt", attempt+1)
	}
	if created == nil {
		return nil, ErrConflict
	}
	return created, nil
}

type UpdateCatalogInput struct {
	Name        *string
	Description *string
}

// UpdateCatalog applies a partial update. A name change re-allocates the
// slug, excluding the catalog itself from the collision probe.
func (s *Service) UpdateCatalog(ctx context.Context, ownerID, catalogID int64, in UpdateCatalogInput) (*Catalog, error) {
	current, err := s.store.GetCatalog(ctx, ownerID, catalogID)
	if err != nil {
		return nil, err
	}

	patch := &Catalog{ID: catalogID, UserID: ownerID, Description: in.Description}
	if in.Name != nil && *in.Name != current.Name {
		patch.Name = *in.Name
		alloc := slug.Allocator{Exists: s.store.CatalogSlugExists}
		for attempt := 0; attempt < slugRetries; attempt++ {
			candidate, err := alloc.Allocate(ctx, ownerID, *in.Name, catalogID)
			if err != nil {
				return nil, err
			}
			patch.Slug = candidate
			updated, err := s.store.UpdateCatalog(ctx, patch)
			if err == nil {
				return updated, nil
			}
			if !errors.Is(err, ErrConflict) {
				return nil, err
			}
		}
		return nil, ErrConflict
	}

	return s.store.UpdateCatalog(ctx, patch)
}

func (s *Service) GetCatalog(ctx context.Context, ownerID, catalogID int64) (*Catalog, error) {
	return s.store.GetCatalog(ctx, ownerID, catalogID)
}

func (s *Service) ListCatalogs(ctx context.Context, ownerID int64) ([]*Catalog, error) {
	return s.store.ListCatalogs(ctx, ownerID)
}

func (s *Service) DeleteCatalog(ctx context.Context, ownerID, catalogID int64) error {
	return s.store.DeleteCatalog(ctx, ownerID, catalogID)
}

func (s *Service) SetPublished(ctx context.Context, ownerID, catalogID int64, published bool) error {
	if err := s.store.SetPublished(ctx, ownerID, catalogID, published); err != nil {
		return err
	}
	s.logger.Infow("catalog publish state changed", "catalog_id", catalogID, "published", published)
	return nil
}

// ------------------------------------
// Categories
// ------------------------------------

type CreateCategoryInput struct {
	Name string
	Icon *string
}

func (s *Service) CreateCategory(ctx context.Context, ownerID, catalogID int64, in CreateCategoryInput) (*Category, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}

	alloc := slug.Allocator{Exists: s.store.CategorySlugExists}

	for attempt := 0; attempt < slugRetries; attempt++ {
		candidate, err := alloc.Allocate(ctx, catalogID, in.Name, 0)
		if err != nil {
			return nil, err
		}

		c := &Category{CatalogID: catalogID, Name: in.Name, Slug: candidate, Icon: in.Icon}
		err = s.store.CreateCategory(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
	}
	return nil, ErrConflict
}

type UpdateCategoryInput struct {
	Name *string
	Icon *string
}

func (s *Service) UpdateCategory(ctx context.Context, ownerID, catalogID, categoryID int64, in UpdateCategoryInput) (*Category, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	current, err := s.store.GetCategory(ctx, catalogID, categoryID)
	if err != nil {
		return nil, err
	}

	patch := &Category{ID: categoryID, CatalogID: catalogID, Icon: in.Icon}
	if in.Name != nil && *in.Name != current.Name {
		patch.Name = *in.Name
		alloc := slug.Allocator{Exists: s.store.CategorySlugExists}
		for attempt := 0; attempt < slugRetries; attempt++ {
			candidate, err := alloc.Allocate(ctx, catalogID, *in.Name, categoryID)
			if err != nil {
				return nil, err
			}
			patch.Slug = candidate
			updated, err := s.store.UpdateCategory(ctx, patch)
			if err == nil {
				return updated, nil
			}
			if !errors.Is(err, ErrConflict) {
				return nil, err
			}
		}
		return nil, ErrConflict
	}

	return s.store.UpdateCategory(ctx, patch)
}

func (s *Service) ListCategories(ctx context.Context, ownerID, catalogID int64) ([]*Category, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, catalogID)
}

func (s *Service) DeleteCategory(ctx context.Context, ownerID, catalogID, categoryID int64) error {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return err
	}
	return s.store.DeleteCategory(ctx, catalogID, categoryID)
}

// ReorderCategories moves one category to targetIndex and persists the
// minimal set of touched rows in a single transaction. Returns the full
// list in its new order.
func (s *Service) ReorderCategories(ctx context.Context, ownerID, catalogID, categoryID int64, targetIndex int) ([]*Category, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}

	list, err := s.store.ListCategories(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	items := make([]ordering.Item, len(list))
	byID := make(map[int64]*Category, len(list))
	for i, c := range list {
		items[i] = ordering.Item{ID: c.ID, Position: c.Position}
		byID[c.ID] = c
	}

	found := false
	for _, c := range list {
		if c.ID == categoryID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNotFound
	}

	reordered, updates := ordering.Reposition(items, categoryID, targetIndex)
	if err := s.store.UpdateCategoryPositions(ctx, catalogID, updates); err != nil {
		return nil, err
	}

	out := make([]*Category, len(reordered))
	for i, it := range reordered {
		c := byID[it.ID]
		c.Position = it.Position
		out[i] = c
	}
	return out, nil
}

// ------------------------------------
// Brands
// ------------------------------------

type CreateBrandInput struct {
	Name    string
	LogoURL *string
}

func (s *Service) CreateBrand(ctx context.Context, ownerID, catalogID int64, in CreateBrandInput) (*Brand, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	b := &Brand{CatalogID: catalogID, Name: in.Name, LogoURL: in.LogoURL}
	if err := s.store.CreateBrand(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

type UpdateBrandInput struct {
	Name    *string
	LogoURL *string
}

func (s *Service) UpdateBrand(ctx context.Context, ownerID, catalogID, brandID int64, in UpdateBrandInput) (*Brand, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	patch := &Brand{ID: brandID, CatalogID: catalogID, LogoURL: in.LogoURL}
	if in.Name != nil {
		patch.Name = *in.Name
	}
	return s.store.UpdateBrand(ctx, patch)
}

func (s *Service) ListBrands(ctx context.Context, ownerID, catalogID int64) ([]*Brand, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	return s.store.ListBrands(ctx, catalogID)
}

func (s *Service) DeleteBrand(ctx context.Context, ownerID, catalogID, brandID int64) error {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return err
	}
	return s.store.DeleteBrand(ctx, catalogID, brandID)
}

func (s *Service) SetBrandLogo(ctx context.Context, ownerID, catalogID, brandID int64, logoURL string) error {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return err
	}
	return s.store.SetBrandLogo(ctx, catalogID, brandID, logoURL)
}

// ------------------------------------
// Products
// ------------------------------------

type CreateProductInput struct {
	CategoryID  int64
	BrandID     *int64
	Title       string
	Description *string
	PriceCents  *int64
	IsVisible   bool
}

func (s *Service) CreateProduct(ctx context.Context, ownerID, catalogID int64, in CreateProductInput) (*Product, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}

	lim, err := s.limits.Limits(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("resolve limits: %w", err)
	}
	if lim.MaxProductsPerCatalog > 0 {
		n, err := s.store.CountProducts(ctx, catalogID)
		if err != nil {
			return nil, err
		}
		if n >= lim.MaxProductsPerCatalog {
			return nil, &LimitExceededError{Resource: "product", Limit: lim.MaxProductsPerCatalog}
		}
	}

	if _, err := s.store.GetCategory(ctx, catalogID, in.CategoryID); err != nil {
		return nil, err
	}
	if in.BrandID != nil {
		if _, err := s.store.GetBrand(ctx, catalogID, *in.BrandID); err != nil {
			return nil, err
		}
	}

	alloc := slug.Allocator{Exists: s.store.ProductSlugExists}

	for attempt := 0; attempt < slugRetries; attempt++ {
		candidate, err := alloc.Allocate(ctx, catalogID, in.Title, 0)
		if err != nil {
			return nil, err
		}

		p := &Product{
			CatalogID:   catalogID,
			CategoryID:  in.CategoryID,
			BrandID:     in.BrandID,
			Title:       in.Title,
			Slug:        candidate,
			Description: in.Description,
			PriceCents:  in.PriceCents,
			IsVisible:   in.IsVisible,
		}
		err = s.store.CreateProduct(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		s.logger.Infow("product slug taken concurrently, retrying", "slug", candidate, "attempt", attempt+1)
	}
	return nil, ErrConflict
}

type UpdateProductInput struct {
	CategoryID  *int64
	BrandID     *int64
	ClearBrand  bool
	Title       *string
	Description *string
	PriceCents  *int64
	ClearPrice  bool
}

// UpdateProduct applies a partial update. A title change re-allocates
// the slug excluding the product itself. ClearBrand and ClearPrice
// distinguish "set to null" from "leave alone".
func (s *Service) UpdateProduct(ctx context.Context, ownerID, catalogID, productID int64, in UpdateProductInput) (*Product, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	current, err := s.store.GetProduct(ctx, catalogID, productID)
	if err != nil {
		return nil, err
	}

	patch := &Product{ID: productID, CatalogID: catalogID, Description: in.Description}

	if in.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, catalogID, *in.CategoryID); err != nil {
			return nil, err
		}
		patch.CategoryID = *in.CategoryID
	}

	switch {
	case in.ClearBrand:
		patch.BrandID = nil
	case in.BrandID != nil:
		if _, err := s.store.GetBrand(ctx, catalogID, *in.BrandID); err != nil {
			return nil, err
		}
		patch.BrandID = in.BrandID
	default:
		patch.BrandID = current.BrandID
	}

	switch {
	case in.ClearPrice:
		patch.PriceCents = nil
	case in.PriceCents != nil:
		patch.PriceCents = in.PriceCents
	default:
		patch.PriceCents = current.PriceCents
	}

	if in.Title != nil && *in.Title != current.Title {
		patch.Title = *in.Title
		alloc := slug.Allocator{Exists: s.store.ProductSlugExists}
		for attempt := 0; attempt < slugRetries; attempt++ {
			candidate, err := alloc.Allocate(ctx, catalogID, *in.Title, productID)
			if err != nil {
				return nil, err
			}
			patch.Slug = candidate
			updated, err := s.store.UpdateProduct(ctx, patch)
			if err == nil {
				return updated, nil
			}
			if !errors.Is(err, ErrConflict) {
				return nil, err
			}
		}
		return nil, ErrConflict
	}

	return s.store.UpdateProduct(ctx, patch)
}

func (s *Service) GetProduct(ctx context.Context, ownerID, catalogID, productID int64) (*ProductWithImages, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	return s.store.GetProductWithImages(ctx, catalogID, productID)
}

func (s *Service) ListProducts(ctx context.Context, ownerID, catalogID int64) ([]*Product, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	return s.store.ListProducts(ctx, catalogID)
}

// DeleteProduct removes the product and returns the URLs of its images
// so the caller can destroy the stored objects after commit.
func (s *Service) DeleteProduct(ctx context.Context, ownerID, catalogID, productID int64) ([]string, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	return s.store.DeleteProduct(ctx, catalogID, productID)
}

func (s *Service) SetProductVisibility(ctx context.Context, ownerID, catalogID, productID int64, visible bool) error {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return err
	}
	return s.store.SetProductVisibility(ctx, catalogID, productID, visible)
}

// ReorderProducts moves one product to targetIndex within its catalog.
// Same contract as ReorderCategories.
func (s *Service) ReorderProducts(ctx context.Context, ownerID, catalogID, productID int64, targetIndex int) ([]*Product, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}

	list, err := s.store.ListProducts(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	items := make([]ordering.Item, len(list))
	byID := make(map[int64]*Product, len(list))
	for i, p := range list {
		items[i] = ordering.Item{ID: p.ID, Position: p.Position}
		byID[p.ID] = p
	}

	if _, ok := byID[productID]; !ok {
		return nil, ErrNotFound
	}

	reordered, updates := ordering.Reposition(items, productID, targetIndex)
	if err := s.store.UpdateProductPositions(ctx, catalogID, updates); err != nil {
		return nil, err
	}

	out := make([]*Product, len(reordered))
	for i, it := range reordered {
		p := byID[it.ID]
		p.Position = it.Position
		out[i] = p
	}
	return out, nil
}

// ------------------------------------
// Product images
// ------------------------------------

func (s *Service) AddProductImage(ctx context.Context, ownerID, catalogID, productID int64, url string, isPrimary bool) (*ProductImage, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProduct(ctx, catalogID, productID); err != nil {
		return nil, err
	}
	return s.store.AddProductImage(ctx, &ProductImage{ProductID: productID, URL: url, IsPrimary: isPrimary})
}

func (s *Service) ListProductImages(ctx context.Context, ownerID, catalogID, productID int64) ([]*ProductImage, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProduct(ctx, catalogID, productID); err != nil {
		return nil, err
	}
	return s.store.ListProductImages(ctx, productID)
}

func (s *Service) SetPrimaryImage(ctx context.Context, ownerID, catalogID, productID, imageID int64) error {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return err
	}
	if _, err := s.store.GetProduct(ctx, catalogID, productID); err != nil {
		return err
	}
	return s.store.SetPrimaryImage(ctx, productID, imageID)
}

// DeleteProductImage removes one image (promoting a successor primary
// when needed) and returns the deleted row for object-store cleanup.
func (s *Service) DeleteProductImage(ctx context.Context, ownerID, catalogID, productID, imageID int64) (*ProductImage, error) {
	if _, err := s.store.GetCatalog(ctx, ownerID, catalogID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProduct(ctx, catalogID, productID); err != nil {
		return nil, err
	}
	return s.store.DeleteProductImage(ctx, productID, imageID)
}

// ------------------------------------
// Public storefront
// ------------------------------------

// PublicCatalog resolves /{username}/{catalogSlug}. Both resolution
// stages surface the same ErrNotFound so a caller cannot distinguish an
// unknown user from an unpublished or missing catalog.
func (s *Service) PublicCatalog(ctx context.Context, username, catalogSlug string) (*PublicCatalog, error) {
	ownerID, owner, err := s.store.ResolveOwner(ctx, username)
	if err != nil {
		return nil, err
	}

	cat, err := s.store.GetPublishedCatalog(ctx, ownerID, catalogSlug)
	if err != nil {
		return nil, err
	}

	categories, err := s.store.ListCategories(ctx, cat.ID)
	if err != nil {
		return nil, err
	}
	brands, err := s.store.ListBrands(ctx, cat.ID)
	if err != nil {
		return nil, err
	}
	products, err := s.store.ListVisibleProductsWithImages(ctx, cat.ID)
	if err != nil {
		return nil, err
	}

	return &PublicCatalog{
		Catalog:    *cat,
		Owner:      *owner,
		Categories: categories,
		Brands:     brands,
		Products:   products,
	}, nil
}
