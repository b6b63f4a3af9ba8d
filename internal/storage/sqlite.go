package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"haulbook/internal/core"
	"haulbook/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps each collection in its own table of JSON documents.
type SQLiteStore struct {
	db *sql.DB
}

var _ DocStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers and keeps the pragmas below in effect.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite document store ready", log.FieldComponent, log.ComponentStorage, "path", dbPath)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var (
			rec              Record
			doc              string
			created, updated int64
		)
		if err := rows.Scan(&rec.ID, &doc, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		rec.Doc = []byte(doc)
		rec.CreatedAt = time.Unix(0, created).UTC()
		rec.UpdatedAt = time.Unix(0, updated).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) List(ctx context.Context, coll string) ([]Record, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, doc, created_at, updated_at FROM %s ORDER BY created_at DESC, rowid DESC`, coll))
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (s *SQLiteStore) Find(ctx context.Context, coll, field string, value any) ([]Record, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	if err := checkField(field); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, doc, created_at, updated_at FROM %s WHERE json_extract(doc, ?) = ? ORDER BY created_at DESC, rowid DESC`, coll),
		"$."+field, value)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (s *SQLiteStore) Get(ctx context.Context, coll, id string) (Record, error) {
	if err := checkCollection(coll); err != nil {
		return Record{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, doc, created_at, updated_at FROM %s WHERE id = ?`, coll), id)
	if err != nil {
		return Record{}, err
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return Record{}, core.ErrNotFound
	}
	return recs[0], nil
}

func (s *SQLiteStore) Insert(ctx context.Context, coll string, rec Record) error {
	if err := checkCollection(coll); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc, created_at, updated_at) VALUES (?, ?, ?, ?)`, coll),
		rec.ID, string(rec.Doc), rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano())
	return mapConstraint(err)
}

func (s *SQLiteStore) Replace(ctx context.Context, coll string, rec Record) error {
	if err := checkCollection(coll); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = ?, updated_at = ? WHERE id = ?`, coll),
		string(rec.Doc), rec.UpdatedAt.UnixNano(), rec.ID)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) ReplaceIf(ctx context.Context, coll string, rec Record, since time.Time) error {
	if err := checkCollection(coll); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = ?, updated_at = ? WHERE id = ? AND updated_at = ?`, coll),
		string(rec.Doc), rec.UpdatedAt.UnixNano(), rec.ID, since.UnixNano())
	if err != nil {
		return mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := s.Get(ctx, coll, rec.ID); err != nil {
		return err
	}
	return core.ErrStale
}

func (s *SQLiteStore) Delete(ctx context.Context, coll, id string) error {
	if err := checkCollection(coll); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, coll), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteAll(ctx context.Context, coll string) error {
	if err := checkCollection(coll); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, coll))
	return err
}

func (s *SQLiteStore) MaxInt(ctx context.Context, coll, field string) (int, error) {
	if err := checkCollection(coll); err != nil {
		return 0, err
	}
	if err := checkField(field); err != nil {
		return 0, err
	}
	var max int64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COALESCE(MAX(CAST(json_extract(doc, ?) AS INTEGER)), 0) FROM %s`, coll),
		"$."+field).Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max), nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return errors.Join(core.ErrConflict, err)
	}
	return err
}
