package port

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// PartStore is durable storage of individual uploaded chunks keyed by
// (session id, part number). Writes are idempotent: the last write for a key
// wins, and a part is either fully durable or absent.
type PartStore interface {
	WritePart(ctx context.Context, sessionID uuid.UUID, partNumber int, body io.Reader, size int64) (string, error)
	ReadPart(ctx context.Context, sessionID uuid.UUID, partNumber int) (io.ReadCloser, error)
	DeleteParts(ctx context.Context, sessionID uuid.UUID) error
}

// ObjectStore holds committed durable objects keyed by storage key
type ObjectStore interface {
	WriteObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) (int64, error)
	ReadObject(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, key string) error
}
