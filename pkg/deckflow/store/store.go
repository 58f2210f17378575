// Package store persists generated presentations.
//
// Two implementations are provided:
//   - SQLiteStore: durable single-process storage
//   - MemoryStore: in-memory storage for tests and ephemeral runs
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Common store errors.
var (
	// ErrNotFound indicates the requested project does not exist.
	ErrNotFound = errors.New("project not found")

	// ErrUserNotFound indicates no user exists for the given external ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)

// Project is a persisted presentation.
type Project struct {
	// ID is the project's unique identifier.
	ID string

	// OwnerID is the internal ID of the owning user.
	OwnerID string

	// Title is the presentation title.
	Title string

	// Theme is the visual theme name.
	Theme string

	// Outlines are the planned slide titles.
	Outlines []string

	// Slides is the compiled document, serialized as JSON.
	// Empty until generation completes.
	Slides json.RawMessage

	// Thumbnail is the first image URL found in the slides, if any.
	Thumbnail string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectUpdate carries the fields written when generation completes.
type ProjectUpdate struct {
	Outlines  []string
	Slides    json.RawMessage
	Thumbnail string
}

// Store persists users and their presentation projects.
// Implementations must be safe for concurrent use.
type Store interface {
	// FindUserByExternalID maps an authentication provider's user ID to
	// the internal user ID. Returns ErrUserNotFound when absent.
	FindUserByExternalID(ctx context.Context, externalID string) (string, error)

	// CreateProject creates an empty project owned by ownerID and returns it.
	CreateProject(ctx context.Context, ownerID, title, theme string) (*Project, error)

	// UpdateProject writes the generation results to an existing project.
	// Returns ErrNotFound when the project does not exist.
	UpdateProject(ctx context.Context, projectID string, update ProjectUpdate) error

	// FindProjectOwner returns the internal user ID owning the project.
	// Returns ErrNotFound when the project does not exist.
	FindProjectOwner(ctx context.Context, projectID string) (string, error)

	// GetProject fetches a project by ID. Returns ErrNotFound when absent.
	GetProject(ctx context.Context, projectID string) (*Project, error)

	// Close releases store resources.
	Close() error
}
