package track

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fwagner/gtswatch/internal/listing"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the durable Store implementation. The pure-Go driver keeps
// the binary CGO-free.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a SQLiteStore at the given path, creating tables on first
// use. File-based databases run in WAL mode.
func Open(dbPath string) (*SQLiteStore, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listing_state (
		source TEXT NOT NULL,
		native_id TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		last_price INTEGER,
		last_status TEXT NOT NULL,
		last_passed INTEGER NOT NULL DEFAULT 0,
		must_have TEXT NOT NULL DEFAULT '{}',
		mileage_km INTEGER,
		warranty_months INTEGER,
		first_seen DATETIME NOT NULL,
		last_seen DATETIME NOT NULL,
		snapshot TEXT,
		PRIMARY KEY (source, native_id)
	);

	CREATE INDEX IF NOT EXISTS idx_state_last_seen ON listing_state(last_seen DESC);
	CREATE INDEX IF NOT EXISTS idx_state_status ON listing_state(last_status);

	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		native_id TEXT NOT NULL,
		price_eur INTEGER,
		status TEXT NOT NULL,
		observed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_key ON price_history(source, native_id, observed_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Get returns the state for a key, or (nil, nil) when the key has never
// been observed.
func (s *SQLiteStore) Get(key listing.Key) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		st       = State{Key: key}
		price    sql.NullInt64
		mileage  sql.NullInt64
		warranty sql.NullInt64
		status   string
		mustJSON string
		snapshot sql.NullString
	)
	err := s.db.QueryRow(`
		SELECT fingerprint, last_price, last_status, last_passed, must_have,
		       mileage_km, warranty_months, first_seen, last_seen, snapshot
		FROM listing_state
		WHERE source = ? AND native_id = ?
	`, key.Source, key.NativeID).Scan(
		&st.Fingerprint, &price, &status, &st.LastPassed, &mustJSON,
		&mileage, &warranty, &st.FirstSeen, &st.LastSeen, &snapshot,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state %s/%s: %w", key.Source, key.NativeID, err)
	}

	st.LastStatus = listing.Status(status)
	st.LastPrice = optInt(price)
	st.MileageKM = optInt(mileage)
	st.Warranty = optInt(warranty)
	if snapshot.Valid {
		st.Snapshot = []byte(snapshot.String)
	}
	if err := json.Unmarshal([]byte(mustJSON), &st.MustHave); err != nil {
		return nil, fmt.Errorf("decode must_have for %s/%s: %w", key.Source, key.NativeID, err)
	}
	return &st, nil
}

// Put upserts the state row and appends a price history entry, atomically.
func (s *SQLiteStore) Put(state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mustJSON, err := json.Marshal(state.MustHave)
	if err != nil {
		return fmt.Errorf("encode must_have: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO listing_state (source, native_id, fingerprint, last_price, last_status,
			last_passed, must_have, mileage_km, warranty_months, first_seen, last_seen, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, native_id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			last_price = excluded.last_price,
			last_status = excluded.last_status,
			last_passed = excluded.last_passed,
			must_have = excluded.must_have,
			mileage_km = excluded.mileage_km,
			warranty_months = excluded.warranty_months,
			last_seen = excluded.last_seen,
			snapshot = excluded.snapshot
	`,
		state.Key.Source, state.Key.NativeID, state.Fingerprint,
		nullInt(state.LastPrice), string(state.LastStatus), state.LastPassed,
		string(mustJSON), nullInt(state.MileageKM), nullInt(state.Warranty),
		state.FirstSeen, state.LastSeen, string(state.Snapshot),
	)
	if err != nil {
		return fmt.Errorf("upsert state %s/%s: %w", state.Key.Source, state.Key.NativeID, err)
	}

	_, err = tx.Exec(`
		INSERT INTO price_history (source, native_id, price_eur, status, observed_at)
		VALUES (?, ?, ?, ?, ?)
	`, state.Key.Source, state.Key.NativeID, nullInt(state.LastPrice), string(state.LastStatus), state.LastSeen)
	if err != nil {
		return fmt.Errorf("append price history: %w", err)
	}

	return tx.Commit()
}

// All returns every tracked state, most recently seen first.
func (s *SQLiteStore) All() ([]*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT source, native_id, fingerprint, last_price, last_status, last_passed,
		       must_have, mileage_km, warranty_months, first_seen, last_seen, snapshot
		FROM listing_state
		ORDER BY last_seen DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []*State
	for rows.Next() {
		var (
			st       State
			price    sql.NullInt64
			mileage  sql.NullInt64
			warranty sql.NullInt64
			status   string
			mustJSON string
			snapshot sql.NullString
		)
		err := rows.Scan(
			&st.Key.Source, &st.Key.NativeID, &st.Fingerprint, &price, &status,
			&st.LastPassed, &mustJSON, &mileage, &warranty,
			&st.FirstSeen, &st.LastSeen, &snapshot,
		)
		if err != nil {
			return nil, err
		}
		st.LastStatus = listing.Status(status)
		st.LastPrice = optInt(price)
		st.MileageKM = optInt(mileage)
		st.Warranty = optInt(warranty)
		if snapshot.Valid {
			st.Snapshot = []byte(snapshot.String)
		}
		if err := json.Unmarshal([]byte(mustJSON), &st.MustHave); err != nil {
			return nil, fmt.Errorf("decode must_have for %s/%s: %w", st.Key.Source, st.Key.NativeID, err)
		}
		states = append(states, &st)
	}
	return states, rows.Err()
}

// PriceHistory returns the observation trail for one listing, oldest first.
type PricePoint struct {
	PriceEUR   *int
	Status     listing.Status
	ObservedAt sql.NullTime
}

func (s *SQLiteStore) PriceHistory(key listing.Key) ([]PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT price_eur, status, observed_at
		FROM price_history
		WHERE source = ? AND native_id = ?
		ORDER BY observed_at ASC
	`, key.Source, key.NativeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var (
			p      PricePoint
			price  sql.NullInt64
			status string
		)
		if err := rows.Scan(&price, &status, &p.ObservedAt); err != nil {
			return nil, err
		}
		p.PriceEUR = optInt(price)
		p.Status = listing.Status(status)
		points = append(points, p)
	}
	return points, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func optInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
