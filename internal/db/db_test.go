package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/kmorand/attache/internal/graph"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestInitCreatesSchema(t *testing.T) {
	dir := t.TempDir()
	database, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer database.Close()

	if _, err := os.Stat(filepath.Join(dir, "attache.db")); err != nil {
		t.Errorf("database file missing: %v", err)
	}

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}

	for _, table := range []string{"notes", "node_layout"} {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestInitIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first, err := Init(dir)
	if err != nil {
		t.Fatalf("first Init: %v", err)
	}
	first.Close()

	second, err := Init(dir)
	if err != nil {
		t.Fatalf("second Init: %v", err)
	}
	second.Close()
}

func TestNotesStoreRoundTrip(t *testing.T) {
	store := NewNotesStore(testDB(t))

	content, err := store.Get()
	if err != nil {
		t.Fatalf("Get on empty store: %v", err)
	}
	if content != "" {
		t.Errorf("unset notes should read as empty, got %q", content)
	}

	if err := store.Set("remember the demo"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("new plan"); err != nil {
		t.Fatalf("second Set: %v", err)
	}

	content, err = store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if content != "new plan" {
		t.Errorf("notes = %q, want last write", content)
	}
}

func TestNotesStoreEmptyWrite(t *testing.T) {
	store := NewNotesStore(testDB(t))
	if err := store.Set("something"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(""); err != nil {
		t.Fatalf("Set empty: %v", err)
	}
	content, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if content != "" {
		t.Errorf("empty write should stick, got %q", content)
	}
}

func TestLayoutStoreRoundTrip(t *testing.T) {
	store := NewLayoutStore(testDB(t))

	x, y := 10.5, -3.25
	if err := store.Upsert("Alice", graph.NodeLayout{X: &x, Y: &y}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	layouts, err := store.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	l, ok := layouts["Alice"]
	if !ok {
		t.Fatalf("layouts = %+v", layouts)
	}
	if l.X == nil || *l.X != 10.5 || l.Y == nil || *l.Y != -3.25 {
		t.Errorf("coordinates = %+v", l)
	}
	if l.FX != nil || l.FY != nil {
		t.Errorf("unset pins must round-trip as nil, got %+v", l)
	}
}

func TestLayoutStoreUpsertReplaces(t *testing.T) {
	store := NewLayoutStore(testDB(t))

	x1, fx := 1.0, 2.0
	if err := store.Upsert("Alice", graph.NodeLayout{X: &x1, FX: &fx}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	x2 := 9.0
	if err := store.Upsert("Alice", graph.NodeLayout{X: &x2}); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	layouts, err := store.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	l := layouts["Alice"]
	if l.X == nil || *l.X != 9.0 {
		t.Errorf("x = %+v", l.X)
	}
	if l.FX != nil {
		t.Errorf("replace must null fields absent from the new layout, got %+v", l)
	}
}

func TestLayoutStoreClear(t *testing.T) {
	store := NewLayoutStore(testDB(t))

	x := 1.0
	store.Upsert("Alice", graph.NodeLayout{X: &x})
	store.Upsert("Donjon", graph.NodeLayout{Y: &x})

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	layouts, err := store.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(layouts) != 0 {
		t.Errorf("layouts should be empty after clear, got %+v", layouts)
	}
}
