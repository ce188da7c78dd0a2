package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte{0}, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestStore(t *testing.T) {
	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "history.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(got.Recent) != 0 || got.DefaultDir != "" {
			t.Errorf("Load() = %+v, want empty state", got)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(filepath.Join(dir, "nested", "history.json"))

		state := &State{
			Recent:     []Entry{{Definition: "/a.xdf", Firmware: "/a.bin"}},
			DefaultDir: "/roms",
		}
		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if got.SavedAt.IsZero() {
			t.Error("SavedAt not set")
		}
		if len(got.Recent) != 1 || got.Recent[0].Definition != "/a.xdf" {
			t.Errorf("Recent = %+v", got.Recent)
		}
		if got.DefaultDir != "/roms" {
			t.Errorf("DefaultDir = %q, want /roms", got.DefaultDir)
		}
	})

	t.Run("LoadCorrupt", func(t *testing.T) {
		dir := t.TempDir()
		path := touch(t, dir, "history.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := NewStore(path).Load(); err == nil {
			t.Error("Load() error = nil, want error for corrupt file")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(filepath.Join(dir, "history.json"))
		state := &State{
			Recent:     []Entry{{Definition: "/a.xdf", Firmware: "/a.bin"}},
			DefaultDir: "/x",
		}
		if err := store.Save(state); err != nil {
			t.Fatal(err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(got.Recent) != 0 {
			t.Errorf("Recent = %+v, want empty after Clear()", got.Recent)
		}
		if got.DefaultDir != "/x" {
			t.Errorf("DefaultDir = %q, want /x kept across Clear()", got.DefaultDir)
		}
		// Clearing twice is fine.
		if err := store.Clear(); err != nil {
			t.Errorf("second Clear() error = %v", err)
		}
	})

	t.Run("ClearWithoutFile", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "history.json"))
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
			t.Error("Clear() created a history file")
		}
	})
}

func TestStoreAdd(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "history.json"))
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	a := touch(t, dir, "a.xdf")
	b := touch(t, dir, "b.xdf")
	bin1 := touch(t, dir, "1.bin")
	bin2 := touch(t, dir, "2.bin")

	for _, p := range [][2]string{{a, bin1}, {b, bin1}, {a, bin2}} {
		if err := store.Add(p[0], p[1]); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	got, err := store.Recent()
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Recent) = %d, want 2 (deduplicated by definition)", len(got))
	}
	if got[0].Definition != a || got[0].Firmware != bin2 {
		t.Errorf("Recent[0] = %+v, want %s with %s", got[0], a, bin2)
	}
	if got[1].Definition != b {
		t.Errorf("Recent[1].Definition = %s, want %s", got[1].Definition, b)
	}
	if !got[0].UsedAt.After(got[1].UsedAt) {
		t.Errorf("Recent not ordered most recent first: %v, %v", got[0].UsedAt, got[1].UsedAt)
	}
}

func TestStoreAddCapsAtMax(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "history.json"))
	bin := touch(t, dir, "fw.bin")

	for i := range MaxRecent + 3 {
		def := touch(t, dir, fmt.Sprintf("def%02d.xdf", i))
		if err := store.Add(def, bin); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	got, err := store.Recent()
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != MaxRecent {
		t.Fatalf("len(Recent) = %d, want %d", len(got), MaxRecent)
	}
	if want := filepath.Join(dir, fmt.Sprintf("def%02d.xdf", MaxRecent+2)); got[0].Definition != want {
		t.Errorf("Recent[0].Definition = %s, want %s", got[0].Definition, want)
	}
}

func TestStoreRecentPrunesMissing(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "history.json"))
	keep := touch(t, dir, "keep.xdf")
	gone := touch(t, dir, "gone.xdf")
	bin := touch(t, dir, "fw.bin")

	if err := store.Add(keep, bin); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(gone, bin); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}

	got, err := store.Recent()
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 || got[0].Definition != keep {
		t.Fatalf("Recent() = %+v, want only %s", got, keep)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Recent) != 1 {
		t.Errorf("stored Recent has %d entries, want pruned to 1", len(state.Recent))
	}
}

func TestStoreDefaultDir(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "history.json"))

	got, err := store.DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir() error = %v", err)
	}
	if got != "" {
		t.Errorf("DefaultDir() = %q, want empty", got)
	}

	if err := store.SetDefaultDir(dir); err != nil {
		t.Fatalf("SetDefaultDir() error = %v", err)
	}
	if err := store.Add(touch(t, dir, "a.xdf"), touch(t, dir, "a.bin")); err != nil {
		t.Fatal(err)
	}

	got, err = store.DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Errorf("DefaultDir() = %q, want %q (kept across Add)", got, dir)
	}
}
