package gallery

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

const schema = `CREATE TABLE IF NOT EXISTS projects (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	png       BLOB NOT NULL
)`

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the gallery database at path. The special
// path ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("open gallery: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open gallery: %w", err)
	}
	// One connection keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("open gallery: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("open gallery: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Add(p Project) error {
	if p.ID == "" {
		return errors.New("gallery: project has no id")
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO projects (id, name, timestamp, png) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.Timestamp.UnixNano(), p.PNG,
	)
	if err != nil {
		return fmt.Errorf("gallery add %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) List() ([]Project, error) {
	rows, err := s.db.Query(`SELECT id, name, timestamp, png FROM projects ORDER BY timestamp DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("gallery list: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("gallery list: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gallery list: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Get(id string) (Project, error) {
	row := s.db.QueryRow(`SELECT id, name, timestamp, png FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("gallery get %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteStore) Remove(id string) error {
	res, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("gallery remove %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("gallery remove %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner) (Project, error) {
	var (
		p  Project
		ns int64
	)
	if err := sc.Scan(&p.ID, &p.Name, &ns, &p.PNG); err != nil {
		return Project{}, err
	}
	p.Timestamp = time.Unix(0, ns)
	return p, nil
}
