// Package repository persists enrolled identities.
package repository

import (
	"context"
	"image"

	"github.com/okian/kiosk/internal/domain/model"
)

// Store provides read/write access to enrolled identities.
type Store interface {
	// Lookup returns the first identity, in id order, whose box matches.
	Lookup(ctx context.Context, box model.BoundingBox) (model.Identity, bool)

	// Create validates, stores and flushes a new identity. The record is
	// visible to Lookup only after the flush succeeded.
	Create(ctx context.Context, name, age string, box model.BoundingBox, face image.Image) (model.Identity, error)

	// List returns all identities in id order.
	List(ctx context.Context) []model.Identity

	// Count returns the number of identities.
	Count(ctx context.Context) int
}
