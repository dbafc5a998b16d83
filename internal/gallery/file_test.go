package gallery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "models", "face_gallery.json"))
}

func TestFileStore_ReloadMissingFile(t *testing.T) {
	store := newTestStore(t)

	g, err := store.Reload(context.Background())
	if err != nil {
		t.Fatalf("expected missing file to be a valid empty gallery, got error: %v", err)
	}
	if len(g) != 0 {
		t.Errorf("expected empty gallery, got %d entries", len(g))
	}
}

func TestFileStore_UpsertAndReload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "S001", []float32{0.1, 0.2, 0.3}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, "S002", []float32{0.4, 0.5, 0.6}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	g, err := store.Reload(ctx)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if len(g) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(g))
	}
	if g["S001"][1] != 0.2 {
		t.Errorf("expected S001[1] = 0.2, got %v", g["S001"][1])
	}
}

func TestFileStore_UpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "S001", []float32{1, 0}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, "S001", []float32{0, 1}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	g, err := store.Reload(ctx)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(g) != 1 {
		t.Fatalf("expected 1 entry after replace, got %d", len(g))
	}
	if g["S001"][0] != 0 || g["S001"][1] != 1 {
		t.Errorf("expected replaced embedding [0 1], got %v", g["S001"])
	}
}

func TestFileStore_Remove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "S001", []float32{1}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	existed, err := store.Remove(ctx, "S001")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !existed {
		t.Error("expected remove of present entry to report true")
	}

	existed, err = store.Remove(ctx, "S001")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if existed {
		t.Error("expected remove of absent entry to report false")
	}

	g, err := store.Reload(ctx)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(g) != 0 {
		t.Errorf("expected empty gallery after remove, got %d entries", len(g))
	}
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "S001", []float32{1, 2}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(store.path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the gallery file in the directory, found %d entries", len(entries))
	}
}
