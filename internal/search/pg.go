package search

import (
	"context"
	"database/sql"
	"fmt"
)

// PgSearch is the fallback backend: a case-insensitive substring match over
// the JSONB payloads in Postgres. Slower and dumber than Meilisearch but
// always available.
type PgSearch struct {
	db *sql.DB
}

func NewPgSearch(db *sql.DB) *PgSearch {
	return &PgSearch{db: db}
}

const pgSearchQuery = `
SELECT id, owner_id, kind, variant, client_name, subject, date FROM (
    SELECT id, owner_id, 'proposal' AS kind, variant,
           COALESCE(data->>'recipient', '') AS client_name,
           COALESCE(data->>'subject', '') AS subject,
           COALESCE(data->>'date', '') AS date,
           updated_at
    FROM proposals
    WHERE owner_id = $1
    UNION ALL
    SELECT id, owner_id, 'agreement' AS kind, variant,
           COALESCE(data->>'clientName', '') AS client_name,
           '' AS subject,
           COALESCE(data->>'date', '') AS date,
           updated_at
    FROM agreements
    WHERE owner_id = $1
) docs
WHERE ($2 = '' OR kind = $2)
  AND (client_name ILIKE $3 OR subject ILIKE $3)
ORDER BY updated_at DESC
LIMIT $4`

func (p *PgSearch) Search(ctx context.Context, q Query) ([]DocumentRecord, int, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	pattern := "%" + q.Text + "%"

	rows, err := p.db.QueryContext(ctx, pgSearchQuery, q.OwnerID, q.Kind, pattern, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("pg search: %w", err)
	}
	defer rows.Close()

	var results []DocumentRecord
	for rows.Next() {
		var r DocumentRecord
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Kind, &r.Variant, &r.ClientName, &r.Subject, &r.Date); err != nil {
			return nil, 0, fmt.Errorf("scan search row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, len(results), nil
}

// LoadAllRecords reads every document's searchable projection, used to seed
// Meilisearch at startup.
func (p *PgSearch) LoadAllRecords(ctx context.Context) ([]DocumentRecord, error) {
	const query = `
SELECT id, owner_id, 'proposal' AS kind, variant,
       COALESCE(data->>'recipient', ''), COALESCE(data->>'subject', ''), COALESCE(data->>'date', '')
FROM proposals
UNION ALL
SELECT id, owner_id, 'agreement' AS kind, variant,
       COALESCE(data->>'clientName', ''), '', COALESCE(data->>'date', '')
FROM agreements`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load search records: %w", err)
	}
	defer rows.Close()

	var records []DocumentRecord
	for rows.Next() {
		var r DocumentRecord
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Kind, &r.Variant, &r.ClientName, &r.Subject, &r.Date); err != nil {
			return nil, fmt.Errorf("scan search record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
