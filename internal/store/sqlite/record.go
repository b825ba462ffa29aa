// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/triage-dev/triage/internal/store"
	triageerr "github.com/triage-dev/triage/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

const defaultTimeout = 10 * time.Second

// Compile-time interface check.
var _ store.RecordStore = (*RecordStore)(nil)

// RecordStore implements store.RecordStore backed by SQLite with sqlite-vec.
// Embeddings live in a vec0 virtual table configured for cosine distance;
// record text lives in a companion table joined by record ID. Both rows are
// written in one transaction, so a record is either fully visible with its
// vector and text or not visible at all.
type RecordStore struct {
	db      *sql.DB
	dims    int
	timeout time.Duration
}

// NewRecordStore opens (or creates) a SQLite database at dbPath and
// initialises the records table and the vec0 virtual table with the given
// fixed embedding dimension.
func NewRecordStore(dbPath string, dims int, timeout time.Duration) (*RecordStore, error) {
	if dims <= 0 {
		return nil, triageerr.Errorf(triageerr.CodeStoreInvalidInput,
			"vector dimension must be positive, got %d", dims)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "opening sqlite db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "pinging sqlite db")
	}

	if err := migrate(db, dims); err != nil {
		_ = db.Close()
		return nil, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "migrating record tables")
	}

	return &RecordStore{db: db, dims: dims, timeout: timeout}, nil
}

func migrate(db *sql.DB, dims int) error {
	const recordDDL = `
CREATE TABLE IF NOT EXISTS records (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	source_text     TEXT NOT NULL,
	resolution_text TEXT NOT NULL DEFAULT '',
	created         TEXT NOT NULL
)`
	if _, err := db.Exec(recordDDL); err != nil {
		return fmt.Errorf("creating records table: %w", err)
	}

	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_records USING vec0(record_id INTEGER PRIMARY KEY, embedding float[%d] distance_metric=cosine)`,
		dims,
	)
	if _, err := db.Exec(vecDDL); err != nil {
		return fmt.Errorf("creating vec_records virtual table: %w", err)
	}

	return nil
}

func (s *RecordStore) Dimensions() int { return s.dims }

// Insert persists a record and its embedding atomically and returns the
// assigned ID. SQLite rowids are monotonic under AUTOINCREMENT, which gives
// the insertion-order tie-break its meaning.
func (s *RecordStore) Insert(ctx context.Context, sourceText string, embedding []float32, resolutionText string) (int64, error) {
	if sourceText == "" {
		return 0, triageerr.New(triageerr.CodeStoreInvalidInput, "source text must not be empty")
	}
	if len(embedding) != s.dims {
		return 0, triageerr.New(triageerr.CodeStoreDimensionMismatch,
			"embedding has wrong dimension",
			triageerr.FieldBackend("sqlite"),
			triageerr.Field("want", s.dims),
			triageerr.Field("got", len(embedding)),
		)
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return 0, triageerr.Wrapf(err, triageerr.CodeStoreInvalidInput, "serializing embedding")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO records(source_text, resolution_text, created) VALUES (?, ?, ?)`,
		sourceText, resolutionText, formatTime(time.Now()),
	)
	if err != nil {
		return 0, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "inserting record")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "reading record id")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_records(record_id, embedding) VALUES (?, ?)`, id, blob,
	); err != nil {
		return 0, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "inserting record vector")
	}

	if err := tx.Commit(); err != nil {
		return 0, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "committing record insert")
	}
	return id, nil
}

// QueryNearest performs a k-nearest-neighbor search over the vec0 table and
// maps cosine distance to similarity (1 - distance). Results come back in
// descending similarity order, ties broken by ascending record ID. Query
// results do not re-materialize the stored embedding.
func (s *RecordStore) QueryNearest(ctx context.Context, embedding []float32, k int) ([]store.ScoredRecord, error) {
	if len(embedding) != s.dims {
		return nil, triageerr.New(triageerr.CodeStoreDimensionMismatch,
			"query vector has wrong dimension",
			triageerr.FieldBackend("sqlite"),
			triageerr.Field("want", s.dims),
			triageerr.Field("got", len(embedding)),
		)
	}
	if k <= 0 {
		return []store.ScoredRecord{}, nil
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, triageerr.Wrapf(err, triageerr.CodeStoreInvalidInput, "serializing query vector")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// vec0 KNN queries order by distance only; the outer ORDER BY adds the
	// record-ID tie-break for equal distances.
	const q = `
SELECT knn.record_id, knn.distance, r.source_text, r.resolution_text, r.created
FROM (SELECT record_id, distance FROM vec_records WHERE embedding MATCH ? AND k = ?) AS knn
JOIN records r ON r.id = knn.record_id
ORDER BY knn.distance, knn.record_id`

	rows, err := s.db.QueryContext(ctx, q, blob, k)
	if err != nil {
		return nil, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "querying nearest records")
	}
	defer func() { _ = rows.Close() }()

	results := []store.ScoredRecord{}
	for rows.Next() {
		var (
			rec      store.Record
			distance float64
			created  string
		)
		if err := rows.Scan(&rec.ID, &distance, &rec.SourceText, &rec.ResolutionText, &created); err != nil {
			return nil, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "scanning record row")
		}
		rec.CreatedAt = parseTime(created)

		results = append(results, store.ScoredRecord{
			Record:     rec,
			Similarity: 1 - distance,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "iterating record rows")
	}

	return results, nil
}

func (s *RecordStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "counting records")
	}
	return n, nil
}

func (s *RecordStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return triageerr.Wrapf(err, triageerr.CodeStoreBackendUnavailable, "pinging sqlite db")
	}
	return nil
}

// Close closes the underlying database connection.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// formatTime serialises a time.Time to RFC3339 with nanosecond precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
