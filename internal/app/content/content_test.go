package content

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := storage.NewLocal(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "/files",
	})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	return New(backend)
}

func TestStore_PutAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	data := []byte("hello, stored world")
	key, err := store.Put(ctx, data, "text/plain")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if key == "" {
		t.Fatal("Put() returned empty key")
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get() = %q, want %q", got, data)
	}
}

func TestStore_Put_UniqueKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	k1, err := store.Put(ctx, []byte("one"), "text/plain")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	k2, err := store.Put(ctx, []byte("two"), "text/plain")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if k1 == k2 {
		t.Errorf("Put() reused key %q", k1)
	}
}

func TestStore_Get_Missing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "no-such-key")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_PutAt_Overwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.PutAt(ctx, "fixed-key", []byte("v1"), "text/plain"); err != nil {
		t.Fatalf("PutAt() error = %v", err)
	}
	if err := store.PutAt(ctx, "fixed-key", []byte("v2"), "text/plain"); err != nil {
		t.Fatalf("PutAt() overwrite error = %v", err)
	}

	got, err := store.Get(ctx, "fixed-key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("Get() = %q, want v2", got)
	}
}

func TestVariantKey(t *testing.T) {
	key := "3f2a77b1-0db8-4c1a-9a35-5e2f7c8d9e0f"

	tests := []struct {
		width int
		want  string
	}{
		{100, key + "_100"},
		{250, key + "_250"},
		{500, key + "_500"},
	}
	for _, tt := range tests {
		if got := VariantKey(key, tt.width); got != tt.want {
			t.Errorf("VariantKey(%d) = %q, want %q", tt.width, got, tt.want)
		}
	}
}

func TestStore_VariantRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.Put(ctx, []byte("original"), "image/png")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.PutAt(ctx, VariantKey(key, 100), []byte("thumb"), "image/png"); err != nil {
		t.Fatalf("PutAt() variant error = %v", err)
	}

	got, err := store.Get(ctx, VariantKey(key, 100))
	if err != nil {
		t.Fatalf("Get() variant error = %v", err)
	}
	if string(got) != "thumb" {
		t.Errorf("variant = %q, want thumb", got)
	}

	// The original is untouched.
	orig, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() original error = %v", err)
	}
	if string(orig) != "original" {
		t.Errorf("original = %q, want original", orig)
	}
}
