package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quotedesk/api/internal/payload"
	"quotedesk/api/internal/util"
)

// PostgresStore keeps the two document collections (proposals, agreements)
// plus user accounts. Each document row stores the flat wire object in a
// JSONB column; owner_id and updated_at are lifted into real columns for
// the owner-scoped, updatedAt-descending queries.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func tableFor(kind DocKind) string {
	if kind == KindProposal {
		return "proposals"
	}
	return "agreements"
}

func idPrefixFor(kind DocKind) string {
	if kind == KindProposal {
		return "p"
	}
	return "a"
}

// SaveDocument creates or updates one document in the collection for kind.
// With existingID empty a new record is created with a store-assigned id and
// createdAt=updatedAt=now. With existingID set, only the payload and
// updatedAt change; id, createdAt and ownerId are left untouched. The data
// is sanitized immediately before the write - the store rejects absent
// markers. Returns the record id either way.
func (s *PostgresStore) SaveDocument(ctx context.Context, kind DocKind, ownerID string, variant Variant, data map[string]any, existingID string) (string, error) {
	table := tableFor(kind)
	now := time.Now().UTC()
	clean := payload.SanitizeMap(data)

	if existingID != "" {
		existing, err := s.GetDocument(ctx, kind, existingID)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return "", fmt.Errorf("update %s %s: no such record", kind, existingID)
		}
		flat := flattenRecord(Record{
			OwnerID:   existing.OwnerID,
			Kind:      kind,
			Variant:   existing.Variant,
			CreatedAt: existing.CreatedAt,
			UpdatedAt: now,
			Payload:   clean,
		})
		raw, err := json.Marshal(flat)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", kind, err)
		}
		query := fmt.Sprintf(`UPDATE %s SET data=$2, updated_at=$3 WHERE id=$1`, table)
		if _, err := s.db.ExecContext(ctx, query, existingID, raw, now); err != nil {
			return "", fmt.Errorf("update %s: %w", kind, err)
		}
		return existingID, nil
	}

	id := util.NewID(idPrefixFor(kind))
	flat := flattenRecord(Record{
		OwnerID:   ownerID,
		Kind:      kind,
		Variant:   variant,
		CreatedAt: now,
		UpdatedAt: now,
		Payload:   clean,
	})
	raw, err := json.Marshal(flat)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", kind, err)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, variant, created_at, updated_at, data)
		VALUES ($1, $2, $3, $4, $4, $5)
	`, table)
	if _, err := s.db.ExecContext(ctx, query, id, ownerID, string(variant), now, raw); err != nil {
		return "", fmt.Errorf("insert %s: %w", kind, err)
	}
	return id, nil
}

// ListDocuments returns all of ownerID's records in one collection, newest
// update first. Payloads come back with the envelope fields stripped.
func (s *PostgresStore) ListDocuments(ctx context.Context, kind DocKind, ownerID string) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, variant, created_at, updated_at, data
		FROM %s
		WHERE owner_id=$1
		ORDER BY updated_at DESC
	`, tableFor(kind))
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", kind, err)
	}
	defer rows.Close()

	items := make([]Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows, kind)
		if err != nil {
			return nil, err
		}
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %ss: %w", kind, err)
	}
	return items, nil
}

// GetDocument fetches a single record. A missing id is a normal empty
// result, not an error.
func (s *PostgresStore) GetDocument(ctx context.Context, kind DocKind, id string) (*Record, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, variant, created_at, updated_at, data
		FROM %s
		WHERE id=$1
	`, tableFor(kind))
	row := s.db.QueryRowContext(ctx, query, id)
	record, err := scanRecord(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteDocument removes a record. Deleting an absent id is a no-op.
func (s *PostgresStore) DeleteDocument(ctx context.Context, kind DocKind, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, tableFor(kind))
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, kind DocKind) (Record, error) {
	var record Record
	var variant string
	var raw []byte
	if err := row.Scan(&record.ID, &record.OwnerID, &variant, &record.CreatedAt, &record.UpdatedAt, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan %s: %w", kind, err)
	}
	record.Kind = kind
	record.Variant = Variant(variant)

	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		return Record{}, fmt.Errorf("decode %s %s: %w", kind, record.ID, err)
	}
	record.Payload = splitRecord(flat)
	return record, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = util.NewID("u")
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash)
		VALUES ($1, $2, LOWER($3), $4)
		RETURNING created_at
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUserByEmail returns nil when no account exists for the address.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, created_at
		FROM users
		WHERE email=LOWER($1)
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, created_at
		FROM users
		WHERE id=$1
	`, id).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &user, nil
}
