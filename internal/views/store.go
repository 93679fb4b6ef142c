package views

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/docfilter/internal/models"
)

//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotFound is returned when no view has the requested id or name
	ErrNotFound = errors.New("saved view not found")
	// ErrNameTaken is returned when another view already uses the name
	ErrNameTaken = errors.New("saved view name already in use")
	// ErrEmptyName is returned for blank view names
	ErrEmptyName = errors.New("saved view name is empty")
)

// timeLayout has fixed width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages saved view persistence
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (creating if needed) the view database at path
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open view store: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create view schema: %w", err)
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Create stores a new view
func (s *Store) Create(name string, rules []models.FilterRule) (*SavedView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	encoded, err := encodeRules(rules)
	if err != nil {
		return nil, err
	}

	now := s.now()
	view := &SavedView{
		ID:        uuid.NewString(),
		Name:      name,
		Rules:     append([]models.FilterRule(nil), rules...),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(`
		INSERT INTO saved_views (id, name, rules, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		view.ID,
		view.Name,
		encoded,
		now.Format(timeLayout),
		now.Format(timeLayout),
	)
	if err != nil {
		return nil, translate(err, name)
	}
	return view, nil
}

// Update replaces the name and rules of an existing view
func (s *Store) Update(id, name string, rules []models.FilterRule) (*SavedView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	encoded, err := encodeRules(rules)
	if err != nil {
		return nil, err
	}

	res, err := s.db.Exec(`
		UPDATE saved_views SET name = ?, rules = ?, updated_at = ?
		WHERE id = ?`,
		name, encoded, s.now().Format(timeLayout), id,
	)
	if err != nil {
		return nil, translate(err, name)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.Get(id)
}

// Save creates a view or, when one with the same name exists, replaces its rules
func (s *Store) Save(name string, rules []models.FilterRule) (*SavedView, error) {
	existing, err := s.GetByName(name)
	switch {
	case errors.Is(err, ErrNotFound):
		return s.Create(name, rules)
	case err != nil:
		return nil, err
	}
	return s.Update(existing.ID, existing.Name, rules)
}

const selectColumns = `SELECT id, name, rules, created_at, updated_at FROM saved_views`

// Get returns the view with the given id
func (s *Store) Get(id string) (*SavedView, error) {
	return s.queryOne(selectColumns+` WHERE id = ?`, id)
}

// GetByName returns the view with the given name
func (s *Store) GetByName(name string) (*SavedView, error) {
	return s.queryOne(selectColumns+` WHERE name = ?`, strings.TrimSpace(name))
}

func (s *Store) queryOne(query string, arg string) (*SavedView, error) {
	view, err := scanView(s.db.QueryRow(query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, arg)
	}
	if err != nil {
		return nil, err
	}
	return view, nil
}

// List returns every view, most recently updated first
func (s *Store) List() ([]SavedView, error) {
	rows, err := s.db.Query(selectColumns + ` ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var views []SavedView
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, rows.Err()
}

// Delete removes a view
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM saved_views WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanView(row scanner) (*SavedView, error) {
	var v SavedView
	var rules, createdAt, updatedAt string
	if err := row.Scan(&v.ID, &v.Name, &rules, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := gojson.Unmarshal([]byte(rules), &v.Rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules of view %s: %w", v.ID, err)
	}
	v.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	v.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &v, nil
}

func encodeRules(rules []models.FilterRule) (string, error) {
	if rules == nil {
		rules = []models.FilterRule{}
	}
	data, err := gojson.Marshal(rules)
	if err != nil {
		return "", fmt.Errorf("failed to encode rules: %w", err)
	}
	return string(data), nil
}

// translate maps a unique-constraint failure onto ErrNameTaken
func translate(err error, name string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %s", ErrNameTaken, name)
	}
	return fmt.Errorf("failed to store view: %w", err)
}
