package storage

import (
	"context"
	"errors"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := BarcodeKey("JWL-RIN-1001")
	if key != "barcodes/barcode_JWL-RIN-1001.png" {
		t.Fatalf("unexpected barcode key %q", key)
	}

	if err := store.Save(ctx, key, []byte("png-bytes")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	blob, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if string(blob) != "png-bytes" {
		t.Fatalf("unexpected blob %q", blob)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLocalStoreDeleteMissingKeyIsNoop(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete(context.Background(), "barcodes/missing.png"); err != nil {
		t.Fatalf("expected missing delete to be a no-op, got %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Save(context.Background(), "../escape.png", []byte("x")); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
	if _, err := store.Open(context.Background(), ""); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
}
