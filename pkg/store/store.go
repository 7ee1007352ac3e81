// Package store persists templates and validation sets in SQLite. It is the
// reference implementation of the persistence collaborator: documents are
// stored in their serialised shape and writes are last-write-wins.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formtemplate/pkg/document"
	"github.com/goliatone/go-formtemplate/pkg/rules"
	"github.com/goliatone/go-formtemplate/pkg/template"
)

// ErrNotFound is returned when a template or validation set does not exist.
var ErrNotFound = errors.New("store: not found")

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL DEFAULT '',
	document TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS validation_sets (
	module_id TEXT NOT NULL,
	name TEXT NOT NULL,
	rules TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (module_id, name)
) WITHOUT ROWID;
`

// Option customises a Store.
type Option func(*Store)

// WithLogger routes store diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is a SQLite-backed template and validation-set repository.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Summary describes a stored template without its document.
type Summary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Open opens (creating if needed) the database at dsn. ":memory:" gives a
// private in-memory database.
func Open(ctx context.Context, dsn string, options ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", dsn, err)
	}
	// One connection keeps an in-memory database alive and serialises writers.
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and ensures the schema exists.
func New(ctx context.Context, db *sql.DB, options ...Option) (*Store, error) {
	s := &Store{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTemplate serialises tpl and stores it. A template without an id is
// inserted and receives one; otherwise the row with that id is created or
// overwritten. tpl only takes the id and renumbered order values once the
// transaction has committed.
func (s *Store) SaveTemplate(ctx context.Context, tpl *template.Template) (int64, error) {
	if tpl == nil {
		return 0, errors.New("store: nil template")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	saved := tpl.Clone()
	stamp := s.now().Unix()
	if saved.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO templates (name, document, updated_at) VALUES (?, '{}', ?)`,
			saved.Name, stamp)
		if err != nil {
			return 0, fmt.Errorf("store: insert template: %w", err)
		}
		if saved.ID, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("store: insert template: %w", err)
		}
	}

	payload, err := document.Marshal(&saved)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO templates (id, name, document, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, document = excluded.document, updated_at = excluded.updated_at`,
		saved.ID, saved.Name, string(payload), stamp); err != nil {
		return 0, fmt.Errorf("store: save template %d: %w", saved.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}

	tpl.ID = saved.ID
	tpl.Renumber()
	s.logger.Debug("template saved", "id", saved.ID, "name", saved.Name, "bytes", len(payload))
	return saved.ID, nil
}

// LoadTemplate reads and normalizes the template with the given id.
func (s *Store) LoadTemplate(ctx context.Context, id int64) (template.Template, error) {
	raw, err := s.loadDocument(ctx, id)
	if err != nil {
		return template.Template{}, err
	}
	tpl, err := document.Load(raw)
	if err != nil {
		return template.Template{}, fmt.Errorf("store: template %d: %w", id, err)
	}
	if tpl.ID == 0 {
		tpl.ID = id
	}
	return tpl, nil
}

// LoadBaseline is LoadTemplate for the reference template used by diff and
// restore. A missing baseline is not an error: it returns nil.
func (s *Store) LoadBaseline(ctx context.Context, id int64) (*template.Template, error) {
	tpl, err := s.LoadTemplate(ctx, id)
	if errors.Is(err, ErrNotFound) {
		s.logger.Info("baseline missing", "id", id)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// RawTemplate returns the stored document bytes.
func (s *Store) RawTemplate(ctx context.Context, id int64) ([]byte, error) {
	return s.loadDocument(ctx, id)
}

func (s *Store) loadDocument(ctx context.Context, id int64) ([]byte, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM templates WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: template %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load template %d: %w", id, err)
	}
	return []byte(raw), nil
}

// ListTemplates returns every stored template ordered by id.
func (s *Store) ListTemplates(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, updated_at FROM templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list templates: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum   Summary
			stamp int64
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &stamp); err != nil {
			return nil, fmt.Errorf("store: list templates: %w", err)
		}
		sum.UpdatedAt = time.Unix(stamp, 0).UTC()
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list templates: %w", err)
	}
	return out, nil
}

// DeleteTemplate removes a template.
func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete template %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: template %d", ErrNotFound, id)
	}
	return nil
}

// SaveValidationSet stores list as the named validation set of a module,
// replacing any previous version.
func (s *Store) SaveValidationSet(ctx context.Context, moduleID, name string, list []rules.Rule) error {
	if list == nil {
		list = []rules.Rule{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("store: marshal validation set: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO validation_sets (module_id, name, rules, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(module_id, name) DO UPDATE SET rules = excluded.rules, updated_at = excluded.updated_at`,
		moduleID, name, string(payload), s.now().Unix()); err != nil {
		return fmt.Errorf("store: save validation set %s/%s: %w", moduleID, name, err)
	}
	s.logger.Debug("validation set saved", "module", moduleID, "name", name, "rules", len(list))
	return nil
}

// LoadValidationSet reads the named validation set of a module.
func (s *Store) LoadValidationSet(ctx context.Context, moduleID, name string) ([]rules.Rule, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT rules FROM validation_sets WHERE module_id = ? AND name = ?`, moduleID, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: validation set %s/%s", ErrNotFound, moduleID, name)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load validation set %s/%s: %w", moduleID, name, err)
	}
	var list []rules.Rule
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("store: decode validation set %s/%s: %w", moduleID, name, err)
	}
	return list, nil
}
