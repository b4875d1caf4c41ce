// internal/storage/filestore_test.go
package storage

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

func TestLoadEmptyStore(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "printers.json"), zap.NewNop())

	prefs, err := store.Load()
	if err != nil {
		t.Fatalf("Load() on missing file: %v", err)
	}
	if prefs.LastAddress != "" {
		t.Errorf("empty store returned %+v", prefs)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "dir", "printers.json"), zap.NewNop())

	darkness := 75
	in := Preferences{
		LastAddress: "00:07:4D:C9:52:88",
		LastFamily:  model.FamilySmart,
		Darkness:    &darkness,
		MediaType:   "LABEL",
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if out.LastAddress != in.LastAddress || out.LastFamily != in.LastFamily {
		t.Errorf("printer identity lost: %+v", out)
	}
	if out.Darkness == nil || *out.Darkness != 75 || out.MediaType != "LABEL" {
		t.Errorf("settings lost: %+v", out)
	}
	if out.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped on save")
	}
}

func TestSaveReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printers.json")
	store := NewFileStore(path, zap.NewNop())

	store.Save(Preferences{LastAddress: "192.168.1.50", LastFamily: model.FamilyGenericSocket})
	store.Save(Preferences{LastAddress: "00:07:4D:C9:52:88", LastFamily: model.FamilySmart})

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if out.LastAddress != "00:07:4D:C9:52:88" {
		t.Errorf("old preferences survived: %+v", out)
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printers.json")
	store := NewFileStore(path, zap.NewNop())

	// Clearing an empty store is a no-op.
	if err := store.Clear(); err != nil {
		t.Errorf("Clear() on empty store: %v", err)
	}

	store.Save(Preferences{LastAddress: "192.168.1.50"})
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after clear: %v", err)
	}
	if out.LastAddress != "" {
		t.Errorf("preferences survived clear: %+v", out)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printers.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path, zap.NewNop())

	if _, err := store.Load(); err == nil {
		t.Error("corrupt file must error")
	}
}
