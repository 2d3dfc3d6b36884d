package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"SportDigest/internal/domain"
	"SportDigest/internal/ports"
)

// Archive mirrors generated digests into Postgres for long-term audit. The
// JSON file store stays authoritative; archive failures never block a firing.
type Archive struct {
	db *sql.DB
}

var _ ports.DigestArchive = (*Archive)(nil)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// NewArchive wires a sql.DB implementation.
func NewArchive(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// Ping verifies connectivity at wiring time.
func (a *Archive) Ping(ctx context.Context) error {
	if a.db == nil {
		return fmt.Errorf("archive database is nil")
	}
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping archive: %w", err)
	}
	return nil
}

// SaveDigest appends one generated digest row.
func (a *Archive) SaveDigest(ctx context.Context, userID, digest string, generatedAt time.Time) error {
	if a.db == nil {
		return nil
	}

	query, args, err := psql.Insert("digest_archive").
		Columns("user_id", "digest", "generated_at").
		Values(userID, digest, generatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build archive insert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert archive row: %w", err)
	}

	return nil
}

// LastArchived returns the newest archived timestamp per user id, for ids
// that have at least one archived digest.
func (a *Archive) LastArchived(ctx context.Context, userIDs []string) (map[string]time.Time, error) {
	if a.db == nil || len(userIDs) == 0 {
		return map[string]time.Time{}, nil
	}

	query, args, err := psql.Select("user_id", "MAX(generated_at)").
		From("digest_archive").
		Where("user_id = ANY(?)", pq.StringArray(userIDs)).
		GroupBy("user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build archive select: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	result := make(map[string]time.Time)
	for rows.Next() {
		var (
			id string
			at time.Time
		)
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		result[id] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// Recent returns up to limit archived digests for one user, newest first.
func (a *Archive) Recent(ctx context.Context, userID string, limit int) ([]domain.DigestEntry, error) {
	if a.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query, args, err := psql.Select("digest", "generated_at").
		From("digest_archive").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("generated_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build archive select: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var entries []domain.DigestEntry
	for rows.Next() {
		var entry domain.DigestEntry
		if err := rows.Scan(&entry.Digest, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return entries, nil
}
