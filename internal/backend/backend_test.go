package backend

import (
	"path/filepath"
	"testing"

	"tally/internal/config"
	"tally/internal/storage"
)

func TestTypeIsValid(t *testing.T) {
	tests := []struct {
		t     Type
		valid bool
	}{
		{Memory, true},
		{SQLite, true},
		{Type("sheets"), false},
		{Type(""), false},
	}
	for _, tt := range tests {
		if got := tt.t.IsValid(); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.t, got, tt.valid)
		}
	}
}

func TestOpenMemory(t *testing.T) {
	res, err := Open(&config.Config{DataBackend: "memory"}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Store.(*storage.MemoryStore); !ok {
		t.Fatalf("expected *storage.MemoryStore, got %T", res.Store)
	}
}

func TestOpenSQLite(t *testing.T) {
	res, err := Open(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: filepath.Join(t.TempDir(), "tally.db"),
	}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Store.(*storage.SQLiteRepository); !ok {
		t.Fatalf("expected *storage.SQLiteRepository, got %T", res.Store)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open(&config.Config{DataBackend: "sheets"}, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
