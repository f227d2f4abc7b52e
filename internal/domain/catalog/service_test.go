package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"vitrina/internal/ordering"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory Store that mirrors the SQL semantics the
// Repository relies on (append positions, compaction, unique slugs,
// primary promotion). It lets the service run without a database.
type fakeStore struct {
	nextID     int64
	catalogs   map[int64]*Catalog
	categories map[int64]*Category
	brands     map[int64]*Brand
	products   map[int64]*Product
	images     map[int64]*ProductImage
	owners     map[string]fakeOwner
}

type fakeOwner struct {
	id      int64
	summary OwnerSummary
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		catalogs:   map[int64]*Catalog{},
		categories: map[int64]*Category{},
		brands:     map[int64]*Brand{},
		products:   map[int64]*Product{},
		images:     map[int64]*ProductImage{},
		owners:     map[string]fakeOwner{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addOwner(username string) int64 {
	id := f.id()
	f.owners[username] = fakeOwner{id: id, summary: OwnerSummary{Username: username}}
	return id
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fmt.Errorf("fake store has no transactions")
}

func (f *fakeStore) CreateCatalog(ctx context.Context, c *Catalog) error {
	for _, other := range f.catalogs {
		if other.UserID == c.UserID && other.Slug == c.Slug {
			return ErrConflict
		}
	}
	c.ID = f.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.catalogs[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetCatalog(ctx context.Context, ownerID, id int64) (*Catalog, error) {
	c, ok := f.catalogs[id]
	if !ok || c.UserID != ownerID {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListCatalogs(ctx context.Context, ownerID int64) ([]*Catalog, error) {
	var out []*Catalog
	for _, c := range f.catalogs {
		if c.UserID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateCatalog(ctx context.Context, c *Catalog) (*Catalog, error) {
	cur, ok := f.catalogs[c.ID]
	if !ok || cur.UserID != c.UserID {
		return nil, ErrNotFound
	}
	if c.Slug != "" {
		for _, other := range f.catalogs {
			if other.ID != c.ID && other.UserID == c.UserID && other.Slug == c.Slug {
				return nil, ErrConflict
			}
		}
		cur.Slug = c.Slug
	}
	if c.Name != "" {
		cur.Name = c.Name
	}
	if c.Description != nil {
		cur.Description = c.Description
	}
	cur.UpdatedAt = time.Now()
	cp := *cur
	return &cp, nil
}

func (f *fakeStore) DeleteCatalog(ctx context.Context, ownerID, id int64) error {
	c, ok := f.catalogs[id]
	if !ok || c.UserID != ownerID {
		return ErrNotFound
	}
	delete(f.catalogs, id)
	return nil
}

func (f *fakeStore) SetPublished(ctx context.Context, ownerID, id int64, published bool) error {
	c, ok := f.catalogs[id]
	if !ok || c.UserID != ownerID {
		return ErrNotFound
	}
	c.IsPublished = published
	return nil
}

func (f *fakeStore) CountCatalogs(ctx context.Context, ownerID int64) (int, error) {
	n := 0
	for _, c := range f.catalogs {
		if c.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CatalogSlugExists(ctx context.Context, ownerID int64, slug string, excludeID int64) (bool, error) {
	for _, c := range f.catalogs {
		if c.UserID == ownerID && c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateCategory(ctx context.Context, c *Category) error {
	maxPos := -1
	for _, other := range f.categories {
		if other.CatalogID == c.CatalogID {
			if other.Slug == c.Slug {
				return ErrConflict
			}
			if other.Position > maxPos {
				maxPos = other.Position
			}
		}
	}
	c.ID = f.id()
	c.Position = maxPos + 1
	cp := *c
	f.categories[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetCategory(ctx context.Context, catalogID, id int64) (*Category, error) {
	c, ok := f.categories[id]
	if !ok || c.CatalogID != catalogID {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListCategories(ctx context.Context, catalogID int64) ([]*Category, error) {
	var out []*Category
	for _, c := range f.categories {
		if c.CatalogID == catalogID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeStore) UpdateCategory(ctx context.Context, c *Category) (*Category, error) {
	cur, ok := f.categories[c.ID]
	if !ok || cur.CatalogID != c.CatalogID {
		return nil, ErrNotFound
	}
	if c.Slug != "" {
		for _, other := range f.categories {
			if other.ID != c.ID && other.CatalogID == c.CatalogID && other.Slug == c.Slug {
				return nil, ErrConflict
			}
		}
		cur.Slug = c.Slug
	}
	if c.Name != "" {
		cur.Name = c.Name
	}
	if c.Icon != nil {
		cur.Icon = c.Icon
	}
	cp := *cur
	return &cp, nil
}

func (f *fakeStore) DeleteCategory(ctx context.Context, catalogID, id int64) error {
	c, ok := f.categories[id]
	if !ok || c.CatalogID != catalogID {
		return ErrNotFound
	}
	pos := c.Position
	delete(f.categories, id)
	for _, other := range f.categories {
		if other.CatalogID == catalogID && other.Position > pos {
			other.Position--
		}
	}
	return nil
}

func (f *fakeStore) CategorySlugExists(ctx context.Context, catalogID int64, slug string, excludeID int64) (bool, error) {
	for _, c := range f.categories {
		if c.CatalogID == catalogID && c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdateCategoryPositions(ctx context.Context, catalogID int64, updates []ordering.PositionUpdate) error {
	for _, u := range updates {
		c, ok := f.categories[u.ID]
		if !ok || c.CatalogID != catalogID {
			return ErrNotFound
		}
		c.Position = u.Position
	}
	return nil
}

func (f *fakeStore) CreateBrand(ctx context.Context, b *Brand) error {
	b.ID = f.id()
	cp := *b
	f.brands[b.ID] = &cp
	return nil
}

func (f *fakeStore) GetBrand(ctx context.Context, catalogID, id int64) (*Brand, error) {
	b, ok := f.brands[id]
	if !ok || b.CatalogID != catalogID {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) ListBrands(ctx context.Context, catalogID int64) ([]*Brand, error) {
	var out []*Brand
	for _, b := range f.brands {
		if b.CatalogID == catalogID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) UpdateBrand(ctx context.Context, b *Brand) (*Brand, error) {
	cur, ok := f.brands[b.ID]
	if !ok || cur.CatalogID != b.CatalogID {
		return nil, ErrNotFound
	}
	if b.Name != "" {
		cur.Name = b.Name
	}
	if b.LogoURL != nil {
		cur.LogoURL = b.LogoURL
	}
	cp := *cur
	return &cp, nil
}

func (f *fakeStore) DeleteBrand(ctx context.Context, catalogID, id int64) error {
	b, ok := f.brands[id]
	if !ok || b.CatalogID != catalogID {
		return ErrNotFound
	}
	delete(f.brands, id)
	return nil
}

func (f *fakeStore) SetBrandLogo(ctx context.Context, catalogID, id int64, logoURL string) error {
	b, ok := f.brands[id]
	if !ok || b.CatalogID != catalogID {
		return ErrNotFound
	}
	b.LogoURL = &logoURL
	return nil
}

func (f *fakeStore) CreateProduct(ctx context.Context, p *Product) error {
	maxPos := -1
	for _, other := range f.products {
		if other.CatalogID == p.CatalogID {
			if other.Slug == p.Slug {
				return ErrConflict
			}
			if other.Position > maxPos {
				maxPos = other.Position
			}
		}
	}
	p.ID = f.id()
	p.Position = maxPos + 1
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeStore) GetProduct(ctx context.Context, catalogID, id int64) (*Product, error) {
	p, ok := f.products[id]
	if !ok || p.CatalogID != catalogID {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetProductWithImages(ctx context.Context, catalogID, id int64) (*ProductWithImages, error) {
	p, err := f.GetProduct(ctx, catalogID, id)
	if err != nil {
		return nil, err
	}
	images, _ := f.ListProductImages(ctx, id)
	return &ProductWithImages{Product: *p, Images: images}, nil
}

func (f *fakeStore) ListProducts(ctx context.Context, catalogID int64) ([]*Product, error) {
	var out []*Product
	for _, p := range f.products {
		if p.CatalogID == catalogID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	cur, ok := f.products[p.ID]
	if !ok || cur.CatalogID != p.CatalogID {
		return nil, ErrNotFound
	}
	if p.Slug != "" {
		for _, other := range f.products {
			if other.ID != p.ID && other.CatalogID == p.CatalogID && other.Slug == p.Slug {
				return nil, ErrConflict
			}
		}
		cur.Slug = p.Slug
	}
	if p.Title != "" {
		cur.Title = p.Title
	}
	if p.Description != nil {
		cur.Description = p.Description
	}
	if p.CategoryID != 0 {
		cur.CategoryID = p.CategoryID
	}
	cur.BrandID = p.BrandID
	cur.PriceCents = p.PriceCents
	cp := *cur
	return &cp, nil
}

func (f *fakeStore) DeleteProduct(ctx context.Context, catalogID, id int64) ([]string, error) {
	p, ok := f.products[id]
	if !ok || p.CatalogID != catalogID {
		return nil, ErrNotFound
	}
	var urls []string
	for imgID, img := range f.images {
		if img.ProductID == id {
			urls = append(urls, img.URL)
			delete(f.images, imgID)
		}
	}
	pos := p.Position
	delete(f.products, id)
	for _, other := range f.products {
		if other.CatalogID == catalogID && other.Position > pos {
			other.Position--
		}
	}
	return urls, nil
}

func (f *fakeStore) SetProductVisibility(ctx context.Context, catalogID, id int64, visible bool) error {
	p, ok := f.products[id]
	if !ok || p.CatalogID != catalogID {
		return ErrNotFound
	}
	p.IsVisible = visible
	return nil
}

func (f *fakeStore) CountProducts(ctx context.Context, catalogID int64) (int, error) {
	n := 0
	for _, p := range f.products {
		if p.CatalogID == catalogID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ProductSlugExists(ctx context.Context, catalogID int64, slug string, excludeID int64) (bool, error) {
	for _, p := range f.products {
		if p.CatalogID == catalogID && p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdateProductPositions(ctx context.Context, catalogID int64, updates []ordering.PositionUpdate) error {
	for _, u := range updates {
		p, ok := f.products[u.ID]
		if !ok || p.CatalogID != catalogID {
			return ErrNotFound
		}
		p.Position = u.Position
	}
	return nil
}

func (f *fakeStore) AddProductImage(ctx context.Context, img *ProductImage) (*ProductImage, error) {
	count := 0
	maxSort := -1
	for _, other := range f.images {
		if other.ProductID == img.ProductID {
			count++
			if other.SortOrder > maxSort {
				maxSort = other.SortOrder
			}
		}
	}
	if count == 0 {
		img.IsPrimary = true
	} else if img.IsPrimary {
		for _, other := range f.images {
			if other.ProductID == img.ProductID {
				other.IsPrimary = false
			}
		}
	}
	img.ID = f.id()
	img.SortOrder = maxSort + 1
	cp := *img
	f.images[img.ID] = &cp
	return &cp, nil
}

func (f *fakeStore) GetProductImage(ctx context.Context, productID, imageID int64) (*ProductImage, error) {
	img, ok := f.images[imageID]
	if !ok || img.ProductID != productID {
		return nil, ErrNotFound
	}
	cp := *img
	return &cp, nil
}

func (f *fakeStore) ListProductImages(ctx context.Context, productID int64) ([]*ProductImage, error) {
	var out []*ProductImage
	for _, img := range f.images {
		if img.ProductID == productID {
			cp := *img
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) SetPrimaryImage(ctx context.Context, productID, imageID int64) error {
	target, ok := f.images[imageID]
	if !ok || target.ProductID != productID {
		return ErrNotFound
	}
	for _, img := range f.images {
		if img.ProductID == productID {
			img.IsPrimary = false
		}
	}
	target.IsPrimary = true
	return nil
}

func (f *fakeStore) DeleteProductImage(ctx context.Context, productID, imageID int64) (*ProductImage, error) {
	img, ok := f.images[imageID]
	if !ok || img.ProductID != productID {
		return nil, ErrNotFound
	}
	deleted := *img
	delete(f.images, imageID)
	if deleted.IsPrimary {
		remaining, _ := f.ListProductImages(context.Background(), productID)
		if len(remaining) > 0 {
			f.images[remaining[0].ID].IsPrimary = true
		}
	}
	return &deleted, nil
}

func (f *fakeStore) ResolveOwner(ctx context.Context, username string) (int64, *OwnerSummary, error) {
	o, ok := f.owners[username]
	if !ok {
		return 0, nil, ErrNotFound
	}
	summary := o.summary
	return o.id, &summary, nil
}

func (f *fakeStore) GetPublishedCatalog(ctx context.Context, ownerID int64, slug string) (*Catalog, error) {
	for _, c := range f.catalogs {
		if c.UserID == ownerID && c.Slug == slug && c.IsPublished {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ListVisibleProductsWithImages(ctx context.Context, catalogID int64) ([]*ProductWithImages, error) {
	all, _ := f.ListProducts(ctx, catalogID)
	out := []*ProductWithImages{}
	for _, p := range all {
		if !p.IsVisible {
			continue
		}
		images, _ := f.ListProductImages(ctx, p.ID)
		out = append(out, &ProductWithImages{Product: *p, Images: images})
	}
	return out, nil
}

type fakeLimits struct {
	lim Limits
}

func (f fakeLimits) Limits(ctx context.Context, userID int64) (Limits, error) {
	return f.lim, nil
}

func newTestService(store Store, lim Limits) *Service {
	return NewService(store, fakeLimits{lim: lim}, zap.NewNop().Sugar())
}

// seedCatalog creates an owner with one catalog and one category and
// returns the ids needed by most tests.
func seedCatalog(t *testing.T, store *fakeStore, svc *Service) (ownerID, catalogID, categoryID int64) {
	t.Helper()
	ctx := context.Background()

	ownerID = store.addOwner("alice")
	cat, err := svc.CreateCatalog(ctx, ownerID, CreateCatalogInput{Name: "Demo"})
	require.NoError(t, err)
	cy, err := svc.CreateCategory(ctx, ownerID, cat.ID, CreateCategoryInput{Name: "Widgets"})
	require.NoError(t, err)
	return ownerID, cat.ID, cy.ID
}

func TestCreateCatalog_AllocatesDistinctSlugs(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, Limits{})
	ownerID := store.addOwner("alice")

	first, err := svc.CreateCatalog(ctx, ownerID, CreateCatalogInput{Name: "Spring Sale"})
	require.NoError(t, err)
	assert.Equal(t, "spring-sale", first.Slug)

	second, err := svc.CreateCatalog(ctx, ownerID, CreateCatalogInput{Name: "Spring Sale"})
	require.NoError(t, err)
	assert.Equal(t, "spring-sale-1", second.Slug)

	// The same slug is free for a different merchant.
	otherID := store.addOwner("bob")
	third, err := svc.CreateCatalog(ctx, otherID, CreateCatalogInput{Name: "Spring Sale"})
	require.NoError(t, err)
	assert.Equal(t, "spring-sale", third.Slug)
}

func TestCreateCatalog_LimitExceeded(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, Limits{MaxCatalogs: 1})
	ownerID := store.addOwner("alice")

	_, err := svc.CreateCatalog(ctx, ownerID, CreateCatalogInput{Name: "First"})
	require.NoError(t, err)

	_, err = svc.CreateCatalog(ctx, ownerID, CreateCatalogInput{Name: "Second"})
	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "catalog", limitErr.Resource)
	assert.Equal(t, 1, limitErr.Limit)
}

func TestCreateProduct_LimitExceeded(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, Limits{MaxProductsPerCatalog: 2})
	ownerID, catalogID, categoryID := seedCatalog(t, store, svc)

	for i := 0; i < 2; i++ {
		_, err := svc.CreateProduct(ctx, ownerID, catalogID, CreateProductInput{
			CategoryID: categoryID,
			Title:      fmt.Sprintf("Widget %d", i),
			IsVisible:  true,
		})
		require.NoError(t, err)
	}

	_, err := svc.CreateProduct(ctx, ownerID, catalogID, CreateProductInput{
		CategoryID: categoryID,
		Title:      "One Too Many",
		IsVisible:  true,
	})
	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "product", limitErr.Resource)
}

func TestUpdateProduct_TitleChangeReallocatesSlug(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, Limits{})
	ownerID, catalogID, categoryID := seedCatalog(t, store, svc)

	p, err := svc.CreateProduct(ctx, ownerID, catalogID, CreateProductInput{
		CategoryID: categoryID, Title: "Red Widget", IsVisible: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "red-widget", p.Slug)

	title := "Blue Widget"
	updated, err := svc.UpdateProduct(ctx, ownerID, catalogID, p.ID, UpdateProductInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "blue-widget", updated.Slug)

	// An unchanged title leaves the slug alone.
	same := "Blue Widget"
	updated, err = svc.UpdateProduct(ctx, ownerID, catalogID, p.ID, UpdateProductInput{Title: &same})
	require.NoError(t, err)
	assert.Equal(t, "blue-widget", updated.Slug)
}

func onePrimary(t *testing.T, images []*ProductImage) *ProductImage {
	t.Helper()
	var primary *ProductImage
	for _, img := range images {
		if img.IsPrimary {
			require.Nil(t, primary, "more than one primary image")
			primary = img
		}
	}
	require.NotNil(t, primary, "no primary image")
	return primary
}

func TestProductImages_PrimaryInvariant(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, Limits{})
	ownerID, catalogID, categoryID := seedCatalog(t, store, svc)

	p, err := svc.CreateProduct(ctx, ownerID, catalogID, CreateProductInput{
		CategoryID: categoryID, Title: "Gadget", IsVisible: true,
	})
	require.NoError(t, err)

	// First image becomes primary even when not asked to be.
	first, err := svc.AddProductImage(ctx, ownerID, catalogID, p.ID, "https://img/1.jpg", false)
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)

	second, err := svc.AddProductImage(ctx, ownerID, catalogID, p.ID, "https://img/2.jpg", false)
	require.NoError(t, err)
	third, err := svc.AddProductImage(ctx, ownerID, catalogID, p.ID, "https://img/3.jpg", false)
	require.NoError(t, err)

	images, err := svc.ListProductImages(ctx, ownerID, catalogID, p.ID)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, first.ID, onePrimary(t, images).ID)

	// Flipping the primary moves the flag, never duplicates it.
	require.NoError(t, svc.SetPrimaryImage(ctx, ownerID, catalogID, p.ID, second.ID))
	images, err = svc.ListProductImages(ctx, ownerID, catalogID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, onePrimary(t, images).ID)

	// Deleting the primary promotes the lowest sort order among the rest.
	deleted, err := svc.DeleteProductImage(ctx, ownerID, catalogID, p.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img/2.jpg", deleted.URL)

	images, err = svc.ListProductImages(ctx, ownerID, catalogID, p.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, first.ID, onePrimary(t, images).ID)

	// Deleting a non-primary image leaves the primary untouched.
	_, err = svc.DeleteProductImage(ctx, ownerID, catalogID, p.ID, third.ID)
	require.NoError(t, err)
	images, err = svc.ListProductImages(ctx, ownerID, catalogID, p.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, first.ID, onePrimary(t, images).ID)

	// Emptying the gallery is allowed.
	_, err = svc.DeleteProductImage(ctx, ownerID, catalogID, p.ID, first.ID)
	require.NoError(t, err)
	images, err = svc.ListProductImages(ctx, ownerID, catalogID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestReorderProducts(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, Limits{})
	ownerID, catalogID, categoryID := seedCatalog(t, store, svc)

	var ids []int64
	for _, title := range []string{"First", "Second", "Third", "Fourth"} {
		p, err := svc.CreateProduct(ctx, ownerID, catalogID, CreateProductInput{
			CategoryID: categoryID, Title: title, IsVisible: true,
		})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	// Move the last product to the front.
	list, err := svc.ReorderProducts(ctx, ownerID, catalogID, ids[3], 0)
	require.NoError(t, err)
	require.Len(t, list, 4)

	gotIDs := make([]int64, len(list))
	for i, p := range list {
		gotIDs[i] = p.ID
		assert.Equal(t, i, p.Position)
	}
	assert.Equal(t, []int64{ids[3], ids[0], ids[1], ids[2]}, gotIDs)

	// A reorder to the current index is a no-op.
	list, err = svc.ReorderProducts(ctx, ownerID, catalogID, ids[3], 0)
	require.NoError(t, err)
	assert.Equal(t, gotIDs[0], list[0].ID)

	// Unknown product id in this catalog.
	_, err = svc.ReorderProducts(ctx, ownerID, catalogID, 9999, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorderCategories(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, Limits{})
	ownerID, catalogID, _ := seedCatalog(t, store, svc)

	second, err := svc.CreateCategory(ctx, ownerID, catalogID, CreateCategoryInput{Name: "Gizmos"})
	require.NoError(t, err)

	list, err := svc.ReorderCategories(ctx, ownerID, catalogID, second.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, 0, list[0].Position)
	assert.Equal(t, 1, list[1].Position)
}

func TestPublicCatalog(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, Limits{})
	ownerID, catalogID, categoryID := seedCatalog(t, store, svc)

	visible, err := svc.CreateProduct(ctx, ownerID, catalogID, CreateProductInput{
		CategoryID: categoryID, Title: "Red Widget", IsVisible: true,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, ownerID, catalogID, CreateProductInput{
		CategoryID: categoryID, Title: "Hidden Widget", IsVisible: false,
	})
	require.NoError(t, err)

	// Unpublished catalogs resolve the same as missing ones.
	_, err = svc.PublicCatalog(ctx, "alice", "demo")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.SetPublished(ctx, ownerID, catalogID, true))

	page, err := svc.PublicCatalog(ctx, "alice", "demo")
	require.NoError(t, err)
	assert.Equal(t, "alice", page.Owner.Username)
	assert.Equal(t, "Demo", page.Catalog.Name)
	require.Len(t, page.Products, 1)
	assert.Equal(t, visible.ID, page.Products[0].ID)
	require.Len(t, page.Categories, 1)

	// Unknown owner and unknown slug are indistinguishable.
	_, err = svc.PublicCatalog(ctx, "nobody", "demo")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.PublicCatalog(ctx, "alice", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// Toggling a product hidden drops it from the page.
	require.NoError(t, svc.SetProductVisibility(ctx, ownerID, catalogID, visible.ID, false))
	page, err = svc.PublicCatalog(ctx, "alice", "demo")
	require.NoError(t, err)
	assert.Empty(t, page.Products)
}

func TestPublishLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, Limits{})
	ownerID, catalogID, categoryID := seedCatalog(t, store, svc)

	// Two products whose titles collide get sequential slugs.
	first, err := svc.CreateProduct(ctx, ownerID, catalogID, CreateProductInput{
		CategoryID: categoryID, Title: "Red Widget", IsVisible: true,
	})
	require.NoError(t, err)
	second, err := svc.CreateProduct(ctx, ownerID, catalogID, CreateProductInput{
		CategoryID: categoryID, Title: "Red Widget", IsVisible: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "red-widget", first.Slug)
	assert.Equal(t, "red-widget-1", second.Slug)

	// Reorder the newer product to the front, publish, fetch.
	_, err = svc.ReorderProducts(ctx, ownerID, catalogID, second.ID, 0)
	require.NoError(t, err)
	require.NoError(t, svc.SetPublished(ctx, ownerID, catalogID, true))

	page, err := svc.PublicCatalog(ctx, "alice", "demo")
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, second.ID, page.Products[0].ID)
	assert.Equal(t, first.ID, page.Products[1].ID)

	// Unpublishing takes the page down again.
	require.NoError(t, svc.SetPublished(ctx, ownerID, catalogID, false))
	_, err = svc.PublicCatalog(ctx, "alice", "demo")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProduct_CompactsPositionsAndReturnsImageURLs(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, Limits{})
	ownerID, catalogID, categoryID := seedCatalog(t, store, svc)

	var ids []int64
	for _, title := range []string{"A", "B", "C"} {
		p, err := svc.CreateProduct(ctx, ownerID, catalogID, CreateProductInput{
			CategoryID: categoryID, Title: title, IsVisible: true,
		})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	_, err := svc.AddProductImage(ctx, ownerID, catalogID, ids[1], "https://img/b.jpg", false)
	require.NoError(t, err)

	urls, err := svc.DeleteProduct(ctx, ownerID, catalogID, ids[1])
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img/b.jpg"}, urls)

	list, err := svc.ListProducts(ctx, ownerID, catalogID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 0, list[0].Position)
	assert.Equal(t, 1, list[1].Position)
	assert.Equal(t, ids[0], list[0].ID)
	assert.Equal(t, ids[2], list[1].ID)
}

func TestCatalogAccess_IsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, Limits{})
	_, catalogID, _ := seedCatalog(t, store, svc)

	intruderID := store.addOwner("mallory")
	_, err := svc.GetCatalog(ctx, intruderID, catalogID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ListCategories(ctx, intruderID, catalogID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.SetPublished(ctx, intruderID, catalogID, true)
	assert.ErrorIs(t, err, ErrNotFound)
}
