package archive

import (
	"context"
	"testing"
)

var _ Storage = (*LocalFS)(nil)

func TestLocalFS_WriteRead(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	ctx := context.Background()

	if err := store.Write(ctx, "charts/crypto/BTC-USD/2024-06-01.json", []byte(`{"data":[]}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := store.Read(ctx, "charts/crypto/BTC-USD/2024-06-01.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != `{"data":[]}` {
		t.Errorf("Read = %q", got)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	store, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	if ok, _ := store.Exists(ctx, "missing.json"); ok {
		t.Error("expected false for missing file")
	}
	store.Write(ctx, "present.json", []byte("{}"))
	if ok, _ := store.Exists(ctx, "present.json"); !ok {
		t.Error("expected true after write")
	}
}

func TestLocalFS_List(t *testing.T) {
	store, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	store.Write(ctx, "charts/futures/GC=F/2024-01-01.json", []byte("a"))
	store.Write(ctx, "charts/futures/GC=F/2024-01-02.json", []byte("b"))
	store.Write(ctx, "charts/futures/CL=F/2024-01-01.json", []byte("c"))

	paths, err := store.List(ctx, "charts/futures/GC=F")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("List returned %d paths, want 2: %v", len(paths), paths)
	}
	for _, p := range paths {
		if p[:len("charts/futures/GC=F/")] != "charts/futures/GC=F/" {
			t.Errorf("path %q is not relative to the root", p)
		}
	}

	empty, err := store.List(ctx, "charts/currency")
	if err != nil || len(empty) != 0 {
		t.Errorf("List on missing prefix = %v, %v", empty, err)
	}
}

func TestLocalFS_Delete(t *testing.T) {
	store, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	store.Write(ctx, "gone.json", []byte("{}"))
	if err := store.Delete(ctx, "gone.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := store.Exists(ctx, "gone.json"); ok {
		t.Error("file should be deleted")
	}
}

func TestLocalFS_RejectsEscape(t *testing.T) {
	store, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	for _, p := range []string{"../outside.json", "charts/../../x.json", "/etc/passwd"} {
		if err := store.Write(ctx, p, []byte("x")); err == nil {
			t.Errorf("Write(%q) should fail", p)
		}
	}
}
