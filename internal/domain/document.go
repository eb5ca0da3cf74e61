package domain

// SearchDocument is the denormalized projection of a product kept in the
// search index. ID is the document key, generated once at insert and never
// regenerated; ProductID is the unique join key back to the canonical record.
type SearchDocument struct {
	ID          string   `json:"id"`
	ProductID   int64    `json:"product_id"`
	ProductName string   `json:"product_name"`
	SearchKeys  []string `json:"search_keys"`
}

// NewSearchDocument maps a canonical product to its search document.
// The document key is left empty; the index store assigns it on insert.
func NewSearchDocument(p *Product) *SearchDocument {
	return &SearchDocument{
		ProductID:   p.ProductID,
		ProductName: p.Name,
		SearchKeys:  searchKeys(p),
	}
}

// searchKeys collects the non-nil keyword fields in fixed order.
// Nil fields are skipped entirely, so the result has no fixed arity.
func searchKeys(p *Product) []string {
	keys := make([]string, 0, 5)
	keys = append(keys, p.Name)
	for _, f := range []*string{p.ProductLine, p.Class, p.Color, p.Style} {
		if f != nil {
			keys = append(keys, *f)
		}
	}
	return keys
}

// ChangedFrom reports whether this document differs from an existing one.
// Documents differ if the product name differs or the search key sequences
// differ; comparison is order-sensitive. Document keys are never compared.
func (d *SearchDocument) ChangedFrom(existing *SearchDocument) bool {
	if d.ProductName != existing.ProductName {
		return true
	}
	if len(d.SearchKeys) != len(existing.SearchKeys) {
		return true
	}
	for i := range d.SearchKeys {
		if d.SearchKeys[i] != existing.SearchKeys[i] {
			return true
		}
	}
	return false
}
