package service

import (
	"context"
	"io"
)

// Uploader stores images under a stable public id, so uploading to the same
// folder and id again replaces the asset.
type Uploader interface {
	// Upload returns the public https URL of the stored asset.
	Upload(ctx context.Context, file io.Reader, folder, publicID string) (string, error)
	// Delete removes the asset; a missing asset is not an error.
	Delete(ctx context.Context, publicID string) error
}
