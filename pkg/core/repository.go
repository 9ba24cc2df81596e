package core

import "context"

// Store defines the contract for persisting blend files.
// Adhering to this interface keeps the service independent of the
// underlying storage (directory, SQLite, remote server).
type Store interface {
	// Save persists raw blend bytes under filename, replacing any previous content.
	Save(ctx context.Context, filename string, data []byte) error

	// Get returns the bytes stored under filename or ErrNotFound.
	Get(ctx context.Context, filename string) ([]byte, error)

	// List returns the stored blends sorted by filename.
	List(ctx context.Context) ([]BlendInfo, error)

	// Delete removes a blend or returns ErrNotFound.
	Delete(ctx context.Context, filename string) error

	// Initialize ensures the underlying storage is ready.
	Initialize(ctx context.Context) error
}

// Fetcher retrieves static assets such as the resource catalog.
type Fetcher interface {
	// Fetch returns the asset bytes or ErrNotFound.
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Delivery hands a serialized blend to the user when the store cannot keep it,
// e.g. by writing it to a downloads directory.
type Delivery interface {
	// Deliver stores data under filename and returns where it went.
	Deliver(ctx context.Context, filename string, data []byte) (string, error)
}

// FeatureDetector is implemented by stores whose capabilities are only known
// at runtime (e.g. a remote server that may be static hosting).
type FeatureDetector interface {
	DetectFeatures(ctx context.Context) Features
}

// Watchable is implemented by stores that can report changes.
type Watchable interface {
	// Watch emits events until ctx is cancelled.
	Watch(ctx context.Context) (<-chan Event, error)
}
