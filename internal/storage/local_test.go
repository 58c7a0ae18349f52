package storage

import (
	"bytes"
	"context"
	"testing"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	t.Run("save and read roundtrip", func(t *testing.T) {
		data := []byte("page content")
		ref, err := store.Save(ctx, "intermediate-images/run-1/doc_page_1.png", data)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Read(ctx, ref)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Read() = %q, want %q", got, data)
		}
	})

	t.Run("rejects traversal keys", func(t *testing.T) {
		for _, key := range []string{"../escape.txt", "run/../../escape.txt", ".."} {
			if _, err := store.Save(ctx, key, []byte("x")); err == nil {
				t.Errorf("Save(%q) succeeded, want traversal error", key)
			}
		}
	})

	t.Run("read of unknown ref fails", func(t *testing.T) {
		if _, err := store.Read(ctx, store.Root()+"/missing.json"); err == nil {
			t.Error("expected error for missing artifact")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := store.Save(cctx, "k", []byte("x")); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}
