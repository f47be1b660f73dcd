package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc := NewDocument("flow", "flowchart TB\nA --> B", "github-light")
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := s.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Source != doc.Source || got.Title != "flow" {
		t.Errorf("Get = %+v", got)
	}

	if err := s.Delete(ctx, doc.ID); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, err := s.Get(ctx, doc.ID); err != ErrNotFound {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreValidatesIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "not-a-uuid"); err != ErrInvalidID {
		t.Errorf("Get invalid id = %v, want ErrInvalidID", err)
	}
	if err := s.Delete(ctx, "nope"); err != ErrInvalidID {
		t.Errorf("Delete invalid id = %v, want ErrInvalidID", err)
	}
}

func TestMemoryStoreListOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := NewDocument("first", "flowchart TB\nA", "")
	second := NewDocument("second", "flowchart TB\nB", "")
	if err := s.Put(ctx, first); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := s.Put(ctx, second); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	docs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len(List) = %d, want 2", len(docs))
	}
	if docs[0].Title != "second" {
		t.Errorf("List[0] = %s, want most recently updated first", docs[0].Title)
	}
}

func TestMemoryStoreCopiesDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc := NewDocument("t", "flowchart TB\nA", "")
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, _ := s.Get(ctx, doc.ID)
	got.Title = "mutated"

	again, _ := s.Get(ctx, doc.ID)
	if again.Title != "t" {
		t.Error("Get should return a copy, not shared state")
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("t", "src", "dark")
	if err := ValidateID(doc.ID); err != nil {
		t.Errorf("NewDocument ID invalid: %v", err)
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}
