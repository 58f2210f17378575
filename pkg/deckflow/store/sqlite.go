package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists projects to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite project store.
// The path should be a file path (e.g., "./projects.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			external_id TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create users table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			theme TEXT NOT NULL,
			outlines TEXT NOT NULL,
			slides TEXT,
			thumbnail TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create projects table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_projects_owner_id
		ON projects(owner_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// CreateUser registers a user for an external authentication ID and
// returns the internal ID. Idempotent per external ID.
func (s *SQLiteStore) CreateUser(ctx context.Context, externalID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	if id, err := s.findUser(ctx, externalID); err == nil {
		return id, nil
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, external_id, created_at) VALUES (?, ?, ?)
	`, id, externalID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// FindUserByExternalID implements Store.
func (s *SQLiteStore) FindUserByExternalID(ctx context.Context, externalID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}
	return s.findUser(ctx, externalID)
}

func (s *SQLiteStore) findUser(ctx context.Context, externalID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM users WHERE external_id = ?
	`, externalID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	return id, nil
}

// CreateProject implements Store.
func (s *SQLiteStore) CreateProject(ctx context.Context, ownerID, title, theme string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	now := time.Now().UTC()
	p := &Project{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		Theme:     theme,
		Outlines:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	outlines, err := json.Marshal(p.Outlines)
	if err != nil {
		return nil, fmt.Errorf("marshal outlines: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, title, theme, outlines, slides, thumbnail, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NULL, '', ?, ?)
	`, p.ID, p.OwnerID, p.Title, p.Theme, string(outlines),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// UpdateProject implements Store.
func (s *SQLiteStore) UpdateProject(ctx context.Context, projectID string, update ProjectUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	outlines, err := json.Marshal(update.Outlines)
	if err != nil {
		return fmt.Errorf("marshal outlines: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET outlines = ?, slides = ?, thumbnail = ?, updated_at = ?
		WHERE id = ?
	`, string(outlines), string(update.Slides), update.Thumbnail,
		time.Now().UTC().Format(time.RFC3339Nano), projectID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindProjectOwner implements Store.
func (s *SQLiteStore) FindProjectOwner(ctx context.Context, projectID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var ownerID string
	err := s.db.QueryRowContext(ctx, `
		SELECT owner_id FROM projects WHERE id = ?
	`, projectID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find project owner: %w", err)
	}
	return ownerID, nil
}

// GetProject implements Store.
func (s *SQLiteStore) GetProject(ctx context.Context, projectID string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var (
		p         Project
		outlines  string
		slides    sql.NullString
		createdAt string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, theme, outlines, slides, thumbnail, created_at, updated_at
		FROM projects WHERE id = ?
	`, projectID).Scan(&p.ID, &p.OwnerID, &p.Title, &p.Theme, &outlines, &slides,
		&p.Thumbnail, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	if err := json.Unmarshal([]byte(outlines), &p.Outlines); err != nil {
		return nil, fmt.Errorf("unmarshal outlines: %w", err)
	}
	if slides.Valid && slides.String != "" {
		p.Slides = json.RawMessage(slides.String)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &p, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
