package repository

import "context"

// Repository persists the opaque account session blob.
type Repository interface {
	// Load returns errors.ErrSessionNotFound when nothing was stored yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) error
	Close(ctx context.Context) error
}
