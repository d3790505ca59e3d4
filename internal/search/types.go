// Package search indexes saved documents so the dashboard can find them by
// client name or subject. Meilisearch serves queries when reachable; a
// Postgres ILIKE fallback keeps search working without it.
package search

// DocumentRecord is the searchable projection of a saved document.
type DocumentRecord struct {
	ID         string `json:"id"`
	OwnerID    string `json:"ownerId"`
	Kind       string `json:"kind"`
	Variant    string `json:"variant"`
	ClientName string `json:"clientName"`
	Subject    string `json:"subject"`
	Date       string `json:"date"`
}

// Query scopes a search to one owner; Kind optionally narrows it.
type Query struct {
	OwnerID string
	Text    string
	Kind    string
	Limit   int
}

type Response struct {
	Results []DocumentRecord `json:"results"`
	Total   int              `json:"total"`
	Query   string           `json:"query"`
}
