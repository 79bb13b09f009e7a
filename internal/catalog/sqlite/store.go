// Package sqlite stores the Gaia cross-match table in a SQLite database so
// that lookups touch only the requested TIC IDs instead of scanning the whole
// CSV on every call.
package sqlite

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/tesslum/internal/catalog"
	"github.com/banshee-data/tesslum/internal/monitoring"
)

// maxParams bounds the number of bound parameters per lookup query.
const maxParams = 500

// Store is a SQLite-backed catalog.CrossMatchSource.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	s, err := OpenWithoutMigrate(path)
	if err != nil {
		return nil, err
	}
	if err := s.MigrateUp(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// OpenWithoutMigrate opens the database at path and leaves its schema
// version untouched. Use it to inspect a database before upgrading it.
func OpenWithoutMigrate(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Count returns the number of cross-match rows stored.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM crossmatch`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count crossmatch: %w", err)
	}
	return n, nil
}

// ImportStats summarises one Import call.
type ImportStats struct {
	ImportID   string
	Rows       int
	Inserted   int
	Duplicates int // rows whose ID was already stored (earlier in this file or a previous import)
	BadIDs     int
}

// Import copies cross-match rows from t into the store in one transaction.
// The first row seen for an ID wins, matching the CSV source.
func (s *Store) Import(t *catalog.TableReader, cols catalog.CrossMatchColumns, sourcePath string) (ImportStats, error) {
	stats := ImportStats{ImportID: uuid.New().String()}

	tx, err := s.db.Begin()
	if err != nil {
		return stats, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO crossmatch (ticid, r_est, phot_bp_mean_mag, phot_rp_mean_mag)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return stats, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	bad, err := catalog.ScanCrossMatch(t, cols, func(id catalog.TargetID, rec catalog.CrossMatchRecord) error {
		res, err := stmt.Exec(int64(id), nullable(rec.DistancePC), nullable(rec.BPMag), nullable(rec.RPMag))
		if err != nil {
			return fmt.Errorf("insert TIC %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			stats.Duplicates++
		} else {
			stats.Inserted++
		}
		return nil
	})
	stats.Rows = t.Rows()
	stats.BadIDs = bad
	if err != nil {
		return stats, fmt.Errorf("import %s: %w", sourcePath, err)
	}

	_, err = tx.Exec(`
		INSERT INTO crossmatch_imports (import_id, source_path, rows_read, inserted, duplicates, bad_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stats.ImportID, sourcePath, stats.Rows, stats.Inserted, stats.Duplicates, stats.BadIDs, time.Now().UnixNano())
	if err != nil {
		return stats, fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit import: %w", err)
	}

	monitoring.Logf("imported %s into %s: rows=%d inserted=%d duplicates=%d bad_ids=%d",
		sourcePath, s.path, stats.Rows, stats.Inserted, stats.Duplicates, stats.BadIDs)
	return stats, nil
}

// LoadCrossMatch returns the stored records for ids. A nil ids loads the
// whole table.
func (s *Store) LoadCrossMatch(ids []catalog.TargetID) (*catalog.CrossMatch, error) {
	xm := catalog.NewCrossMatch()

	if ids == nil {
		if err := s.queryInto(xm, `SELECT ticid, r_est, phot_bp_mean_mag, phot_rp_mean_mag FROM crossmatch`); err != nil {
			return nil, err
		}
		return xm, nil
	}

	unique := make([]interface{}, 0, len(ids))
	seen := make(map[catalog.TargetID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, int64(id))
		}
	}

	for start := 0; start < len(unique); start += maxParams {
		end := start + maxParams
		if end > len(unique) {
			end = len(unique)
		}
		chunk := unique[start:end]
		q := `SELECT ticid, r_est, phot_bp_mean_mag, phot_rp_mean_mag FROM crossmatch WHERE ticid IN (` +
			strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",") + `)`
		if err := s.queryInto(xm, q, chunk...); err != nil {
			return nil, err
		}
	}
	return xm, nil
}

func (s *Store) queryInto(xm *catalog.CrossMatch, query string, args ...interface{}) error {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("query crossmatch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id           int64
			dist, bp, rp sql.NullFloat64
		)
		if err := rows.Scan(&id, &dist, &bp, &rp); err != nil {
			return fmt.Errorf("scan crossmatch: %w", err)
		}
		xm.Rows++
		xm.Add(catalog.TargetID(id), catalog.CrossMatchRecord{
			DistancePC: orNaN(dist),
			BPMag:      orNaN(bp),
			RPMag:      orNaN(rp),
		})
	}
	return rows.Err()
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
