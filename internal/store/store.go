// Package store keeps the generation audit log in SQLite. Only counts are
// stored; passwords, their characters and their bits never reach the disk.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/molishai/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout has fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS generations (
		id INTEGER PRIMARY KEY,
		generated_at TEXT NOT NULL,
		model_name TEXT NOT NULL,
		requested_bits INTEGER NOT NULL,
		symbol_count INTEGER NOT NULL,
		password_runes INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS generation_bit_counts (
		generation_id INTEGER NOT NULL REFERENCES generations(id),
		bits INTEGER NOT NULL,
		symbols INTEGER NOT NULL,
		PRIMARY KEY (generation_id, bits)
	)`,
	`CREATE INDEX IF NOT EXISTS generations_by_time ON generations(generated_at)`,
}

// Store is the audit log database.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating it and its directory if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, errors.Join(fmt.Errorf("migrate %s: %w", path, err), db.Close())
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InsertGenerations stores records and their bit histograms in one
// transaction and returns the new ids.
func (s *Store) InsertGenerations(ctx context.Context, records []model.GenerationRecord) ([]int64, error) {
	if len(records) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	ids, err := insertAll(ctx, tx, records)
	if err != nil {
		return nil, errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func insertAll(ctx context.Context, tx *sql.Tx, records []model.GenerationRecord) ([]int64, error) {
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO generations (generated_at, model_name, requested_bits, symbol_count, password_runes)
			VALUES (?, ?, ?, ?, ?)`,
			rec.GeneratedAt.UTC().Format(timeLayout), rec.ModelName, rec.RequestedBits, rec.SymbolCount, rec.PasswordRunes)
		if err != nil {
			return nil, fmt.Errorf("insert generation: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		for bits, n := range rec.BitHistogram {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO generation_bit_counts (generation_id, bits, symbols) VALUES (?, ?, ?)`,
				id, bits, n); err != nil {
				return nil, fmt.Errorf("insert bit count: %w", err)
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListGenerations returns stored generations filtered by cfg, oldest first.
// cfg.Last keeps only the most recent entries.
func (s *Store) ListGenerations(ctx context.Context, cfg model.StatsConfig) ([]model.GenerationAggregate, error) {
	selected, args := selectGenerations(cfg, "id, generated_at, model_name, requested_bits, symbol_count, password_runes")
	query := "SELECT * FROM (" + selected + ") ORDER BY id"

	return collect(ctx, s.db, query, args, func(rows *sql.Rows) (model.GenerationAggregate, error) {
		var (
			g  model.GenerationAggregate
			at string
		)
		if err := rows.Scan(&g.ID, &at, &g.ModelName, &g.RequestedBits, &g.SymbolCount, &g.PasswordRunes); err != nil {
			return g, err
		}
		t, err := time.Parse(timeLayout, at)
		if err != nil {
			return g, fmt.Errorf("generation %d: %w", g.ID, err)
		}
		g.GeneratedAt = t
		return g, nil
	})
}

// ListBitBuckets sums the bit histograms of the generations ListGenerations
// would return for cfg.
func (s *Store) ListBitBuckets(ctx context.Context, cfg model.StatsConfig) ([]model.BitBucket, error) {
	selected, args := selectGenerations(cfg, "id")
	query := `SELECT c.bits, SUM(c.symbols) FROM generation_bit_counts c
		JOIN (` + selected + `) g ON g.id = c.generation_id
		GROUP BY c.bits ORDER BY c.bits`
	return collect(ctx, s.db, query, args, func(rows *sql.Rows) (model.BitBucket, error) {
		var b model.BitBucket
		err := rows.Scan(&b.Bits, &b.Symbols)
		return b, err
	})
}

// selectGenerations builds the filtered query over generations, newest first.
// The number of bound arguments does not depend on the size of the log.
func selectGenerations(cfg model.StatsConfig, columns string) (string, []any) {
	var (
		where []string
		args  []any
	)
	if cfg.ModelName != "" {
		where = append(where, "model_name = ?")
		args = append(args, cfg.ModelName)
	}
	if cfg.Since != nil {
		where = append(where, "generated_at >= ?")
		args = append(args, cfg.Since.UTC().Format(timeLayout))
	}
	query := "SELECT " + columns + " FROM generations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY generated_at DESC, id DESC"
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	return query, args
}

// Columns lists the column names of an audit table.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	if table != "generations" && table != "generation_bit_counts" {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	return collect(ctx, s.db, "SELECT name FROM pragma_table_info(?)", []any{table}, func(rows *sql.Rows) (string, error) {
		var name string
		err := rows.Scan(&name)
		return name, err
	})
}

func collect[T any](ctx context.Context, db *sql.DB, query string, args []any, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
