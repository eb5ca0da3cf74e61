package elasticsearch

// DefaultIndexName is used when no index name is configured.
const DefaultIndexName = "product_search"

// buildIndexMapping returns the index mapping for product search documents.
// search_keys is a keyword field: matching is containment over whole entries,
// not analyzed full text.
func buildIndexMapping() string {
	return `{
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0
		},
		"mappings": {
			"properties": {
				"id":           {"type": "keyword"},
				"product_id":   {"type": "long"},
				"product_name": {"type": "keyword"},
				"search_keys":  {"type": "keyword"}
			}
		}
	}`
}
