// Package store provides persistence for shared diagrams.
//
// The preview server lets users save a diagram source and get a stable
// link back to it. This package defines the storage interface with
// implementations for different backends:
//   - memory: In-memory storage for development/testing
//   - mongo: MongoDB-backed storage for server deployments
//
// # Usage
//
// Create a store and save a diagram:
//
//	st := store.NewMemoryStore()
//	doc := store.NewDocument("Checkout flow", source, "github-dark")
//	if err := st.Put(ctx, doc); err != nil {
//	    return err
//	}
//
//	doc, err := st.Get(ctx, doc.ID)
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned when an ID is not a valid UUID.
	ErrInvalidID = errors.New("invalid document id")
)

// Document is a saved diagram with its metadata.
type Document struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	Source    string    `json:"source" bson:"source"`
	Theme     string    `json:"theme,omitempty" bson:"theme,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewDocument creates a document with a fresh UUID and timestamps.
func NewDocument(title, source, theme string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:        uuid.NewString(),
		Title:     title,
		Source:    source,
		Theme:     theme,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidateID checks that an ID is a well-formed UUID before it reaches
// a backend.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// Store is the interface for diagram storage backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	Get(ctx context.Context, id string) (*Document, error)

	// Put stores or replaces a document, updating UpdatedAt.
	Put(ctx context.Context, doc *Document) error

	// Delete removes a document. Deleting a missing document returns
	// ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns all documents ordered by most recently updated.
	List(ctx context.Context) ([]*Document, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
