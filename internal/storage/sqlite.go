package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"curvetour/internal/curve"

	_ "modernc.org/sqlite"
)

// SQLite is a persistent storage implementation using SQLite.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (creating if needed) the SQLite database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLite{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLite) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("pragma failed: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS curves (
			position INTEGER PRIMARY KEY,
			file TEXT NOT NULL,
			period REAL NOT NULL,
			raw BLOB NOT NULL,
			folded BLOB NOT NULL,
			vector BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS index_snapshot (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data BLOB NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	return nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Save replaces the stored dataset. Any stored index snapshot is dropped
// because it no longer matches.
func (s *SQLite) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM curves", "DELETE FROM index_snapshot", "DELETE FROM meta"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}

	meta := map[string]string{
		"root":        snap.Root,
		"resolution":  strconv.Itoa(snap.Resolution),
		"fingerprint": snap.Fingerprint,
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("write meta: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO curves (position, file, period, raw, folded, vector) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range snap.Curves {
		if _, err := stmt.ExecContext(ctx, i, c.File, c.Folded.Period,
			encodeRaw(c.Raw), encodeFolded(c.Folded.Samples), encodeFloat64Slice(c.Vector)); err != nil {
			return fmt.Errorf("write curve %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Load returns the stored dataset in position order.
func (s *SQLite) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, err
		}
		switch k {
		case "root":
			snap.Root = v
		case "resolution":
			snap.Resolution, _ = strconv.Atoi(v)
		case "fingerprint":
			snap.Fingerprint = v
		}
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		"SELECT file, period, raw, folded, vector FROM curves ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c                 Curve
			rawB, foldB, vecB []byte
		)
		if err := rows.Scan(&c.File, &c.Folded.Period, &rawB, &foldB, &vecB); err != nil {
			return nil, err
		}
		c.Raw = decodeRaw(rawB)
		c.Folded.Samples = decodeFolded(foldB)
		c.Vector = decodeFloat64Slice(vecB)
		snap.Curves = append(snap.Curves, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(snap.Curves) == 0 {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// SaveIndex stores the index snapshot.
func (s *SQLite) SaveIndex(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO index_snapshot (id, data) VALUES (1, ?)", data)
	return err
}

// LoadIndex returns the stored index snapshot, or nil if there is none.
func (s *SQLite) LoadIndex(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM index_snapshot WHERE id = 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return data, err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// encodeFloat64Slice converts []float64 to little-endian bytes.
func encodeFloat64Slice(f []float64) []byte {
	buf := make([]byte, len(f)*8)
	for i, v := range f {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeFloat64Slice converts little-endian bytes to []float64.
func decodeFloat64Slice(b []byte) []float64 {
	f := make([]float64, len(b)/8)
	for i := range f {
		f[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return f
}

func encodeRaw(r curve.Raw) []byte {
	flat := make([]float64, 0, 3*len(r))
	for _, s := range r {
		flat = append(flat, s.Time, s.Magnitude, s.Error)
	}
	return encodeFloat64Slice(flat)
}

func decodeRaw(b []byte) curve.Raw {
	flat := decodeFloat64Slice(b)
	out := make(curve.Raw, len(flat)/3)
	for i := range out {
		out[i] = curve.Sample{Time: flat[3*i], Magnitude: flat[3*i+1], Error: flat[3*i+2]}
	}
	return out
}

func encodeFolded(samples []curve.PhaseSample) []byte {
	flat := make([]float64, 0, 3*len(samples))
	for _, s := range samples {
		flat = append(flat, s.Phase, s.Magnitude, s.Error)
	}
	return encodeFloat64Slice(flat)
}

func decodeFolded(b []byte) []curve.PhaseSample {
	flat := decodeFloat64Slice(b)
	out := make([]curve.PhaseSample, len(flat)/3)
	for i := range out {
		out[i] = curve.PhaseSample{Phase: flat[3*i], Magnitude: flat[3*i+1], Error: flat[3*i+2]}
	}
	return out
}
