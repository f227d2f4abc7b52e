package storefront

import (
	"testing"

	"vitrina/internal/domain/catalog"

	"github.com/stretchr/testify/assert"
)

func product(id int64, title string, categoryID int64, brandID *int64) *catalog.ProductWithImages {
	return &catalog.ProductWithImages{
		Product: catalog.Product{ID: id, Title: title, CategoryID: categoryID, BrandID: brandID},
	}
}

func ids(list []*catalog.ProductWithImages) []int64 {
	out := make([]int64, len(list))
	for i, p := range list {
		out[i] = p.ID
	}
	return out
}

func TestApply(t *testing.T) {
	acme := int64(1)
	globex := int64(2)

	products := []*catalog.ProductWithImages{
		product(1, "Red Widget", 10, &acme),
		product(2, "Blue Widget", 10, &globex),
		product(3, "Green Gadget", 20, &acme),
		product(4, "Unbranded Gizmo", 20, nil),
	}

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"no constraints returns all", Filter{}, []int64{1, 2, 3, 4}},
		{"category", Filter{CategoryID: 10}, []int64{1, 2}},
		{"single brand", Filter{BrandIDs: []int64{1}}, []int64{1, 3}},
		{"brand set is an OR", Filter{BrandIDs: []int64{1, 2}}, []int64{1, 2, 3}},
		{"brand filter excludes unbranded", Filter{BrandIDs: []int64{99}}, []int64{}},
		{"query is case insensitive", Filter{Query: "widget"}, []int64{1, 2}},
		{"query trims whitespace", Filter{Query: "  GADGET "}, []int64{3}},
		{"constraints combine", Filter{CategoryID: 10, BrandIDs: []int64{1}, Query: "red"}, []int64{1}},
		{"no match", Filter{Query: "missing"}, []int64{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(products, tc.filter)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestApply_PreservesOrder(t *testing.T) {
	products := []*catalog.ProductWithImages{
		product(3, "Widget C", 1, nil),
		product(1, "Widget A", 1, nil),
		product(2, "Widget B", 1, nil),
	}
	got := Apply(products, Filter{Query: "widget"})
	assert.Equal(t, []int64{3, 1, 2}, ids(got))
}
