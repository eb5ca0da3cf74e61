package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func sampleProduct() *Product {
	return &Product{
		ProductID:     1,
		Name:          "Road Frame",
		ProductNumber: "FR-R92B-58",
		ProductLine:   strPtr("R"),
		Class:         strPtr("H"),
		Color:         strPtr("Red"),
		Style:         strPtr("U"),
		StandardCost:  1059.31,
		ModifiedDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewSearchDocument_FieldOrder(t *testing.T) {
	doc := NewSearchDocument(sampleProduct())

	assert.Equal(t, int64(1), doc.ProductID)
	assert.Equal(t, "Road Frame", doc.ProductName)
	assert.Equal(t, []string{"Road Frame", "R", "H", "Red", "U"}, doc.SearchKeys)
	assert.Empty(t, doc.ID, "document key is assigned by the index store, not the mapper")
}

func TestNewSearchDocument_SkipsNilFields(t *testing.T) {
	p := sampleProduct()
	p.ProductLine = nil
	p.Style = nil

	doc := NewSearchDocument(p)

	// No placeholder slots: the sequence shrinks.
	assert.Equal(t, []string{"Road Frame", "H", "Red"}, doc.SearchKeys)
}

func TestNewSearchDocument_NameOnly(t *testing.T) {
	p := &Product{ProductID: 7, Name: "Chain"}

	doc := NewSearchDocument(p)

	assert.Equal(t, []string{"Chain"}, doc.SearchKeys)
}

func TestNewSearchDocument_Deterministic(t *testing.T) {
	a := NewSearchDocument(sampleProduct())
	b := NewSearchDocument(sampleProduct())

	assert.Equal(t, a.SearchKeys, b.SearchKeys)
	assert.Equal(t, a.ProductName, b.ProductName)
}

func TestChangedFrom(t *testing.T) {
	base := NewSearchDocument(sampleProduct())

	tests := []struct {
		name   string
		mutate func(*Product)
		want   bool
	}{
		{"identical", func(p *Product) {}, false},
		{"name changed", func(p *Product) { p.Name = "Road Frame Pro" }, true},
		{"color changed", func(p *Product) { p.Color = strPtr("Blue") }, true},
		{"field dropped", func(p *Product) { p.Class = nil }, true},
		{"cost changed only", func(p *Product) { p.StandardCost = 999.99 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleProduct()
			tt.mutate(p)
			assert.Equal(t, tt.want, NewSearchDocument(p).ChangedFrom(base))
		})
	}
}

func TestChangedFrom_OrderSensitive(t *testing.T) {
	a := &SearchDocument{ProductName: "X", SearchKeys: []string{"X", "R", "H"}}
	b := &SearchDocument{ProductName: "X", SearchKeys: []string{"X", "H", "R"}}

	assert.True(t, a.ChangedFrom(b), "sequence comparison must be order-sensitive")
}

func TestChangedFrom_IgnoresDocumentKey(t *testing.T) {
	a := &SearchDocument{ID: "key-a", ProductName: "X", SearchKeys: []string{"X"}}
	b := &SearchDocument{ID: "key-b", ProductName: "X", SearchKeys: []string{"X"}}

	assert.False(t, a.ChangedFrom(b))
}
