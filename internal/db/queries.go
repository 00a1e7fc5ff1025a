package db

import (
	"database/sql"
	"time"

	"github.com/kmorand/attache/internal/errors"
	"github.com/kmorand/attache/internal/graph"
)

// NotesSlot is the fixed slot key for user-authored dossier notes.
// The system is single-user; there is exactly one notes value.
const NotesSlot = "user_notes"

// NotesStore reads and writes the user-notes slot. The synthesizer consults
// it on every call regardless of dossier cache state.
type NotesStore struct {
	db *sql.DB
}

// NewNotesStore creates a NotesStore backed by the given database.
func NewNotesStore(db *sql.DB) *NotesStore {
	return &NotesStore{db: db}
}

// Get returns the current notes content, or "" when unset.
func (s *NotesStore) Get() (string, error) {
	var content string
	err := s.db.QueryRow(`SELECT content FROM notes WHERE slot = ?`, NotesSlot).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return content, nil
}

// Set upserts the notes content.
func (s *NotesStore) Set(content string) error {
	_, err := s.db.Exec(`
		INSERT INTO notes (slot, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`, NotesSlot, content, time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LayoutStore persists node layout coordinates. It implements
// graph.LayoutStore.
type LayoutStore struct {
	db *sql.DB
}

// NewLayoutStore creates a LayoutStore backed by the given database.
func NewLayoutStore(db *sql.DB) *LayoutStore {
	return &LayoutStore{db: db}
}

// All returns every persisted layout keyed by node id.
func (s *LayoutStore) All() (map[string]graph.NodeLayout, error) {
	rows, err := s.db.Query(`SELECT node_id, x, y, fx, fy FROM node_layout`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	layouts := make(map[string]graph.NodeLayout)
	for rows.Next() {
		var nodeID string
		var x, y, fx, fy sql.NullFloat64
		if err := rows.Scan(&nodeID, &x, &y, &fx, &fy); err != nil {
			return nil, errors.NewInternal(err)
		}
		layouts[nodeID] = graph.NodeLayout{
			X:  nullToPtr(x),
			Y:  nullToPtr(y),
			FX: nullToPtr(fx),
			FY: nullToPtr(fy),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return layouts, nil
}

// Upsert writes one node's coordinates. Nil fields are stored as NULL so a
// partially-persisted node stays partial.
func (s *LayoutStore) Upsert(nodeID string, layout graph.NodeLayout) error {
	_, err := s.db.Exec(`
		INSERT INTO node_layout (node_id, x, y, fx, fy, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
			x = excluded.x, y = excluded.y,
			fx = excluded.fx, fy = excluded.fy,
			updated_at = excluded.updated_at
	`, nodeID, ptrToNull(layout.X), ptrToNull(layout.Y), ptrToNull(layout.FX), ptrToNull(layout.FY), time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Clear removes all persisted layouts.
func (s *LayoutStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM node_layout`); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func nullToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func ptrToNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
