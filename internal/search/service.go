package search

import (
	"context"
	"log"
)

// Service tries Meilisearch first and falls back to Postgres.
type Service struct {
	meili *Meili
	pg    *PgSearch
}

// NewService creates the facade. meili may be nil when not configured.
func NewService(meili *Meili, pg *PgSearch) *Service {
	return &Service{meili: meili, pg: pg}
}

func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to postgres: %v", err)
	}

	if s.pg == nil {
		return Response{Results: []DocumentRecord{}, Query: q.Text}
	}
	results, total, err := s.pg.Search(ctx, q)
	if err != nil {
		log.Printf("search: postgres fallback error: %v", err)
		return Response{Results: []DocumentRecord{}, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexDocument pushes one document to Meilisearch, fire-and-forget. Saves
// never fail because the index was down.
func (s *Service) IndexDocument(doc DocumentRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexDocument(doc); err != nil {
			log.Printf("search: index document %s: %v", doc.ID, err)
		}
	}()
}

// DeleteDocument removes a document from the index, fire-and-forget.
func (s *Service) DeleteDocument(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteDocument(id); err != nil {
			log.Printf("search: delete document %s: %v", id, err)
		}
	}()
}

// ReindexFromPG seeds Meilisearch from Postgres, called once at startup.
func (s *Service) ReindexFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pg == nil {
		return
	}
	records, err := s.pg.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if err := s.meili.IndexDocuments(records); err != nil {
		log.Printf("search: reindex push failed: %v", err)
	}
}

func nonNil(r []DocumentRecord) []DocumentRecord {
	if r == nil {
		return []DocumentRecord{}
	}
	return r
}
