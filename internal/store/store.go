package store

import (
	"context"
	"errors"

	"github.com/user/quickpad-go/internal/model"
)

var (
	// ErrStorage wraps every storage-layer fault returned by a Store.
	ErrStorage = errors.New("storage fault")
	// ErrSchemaMismatch is returned by Open when the store file carries a
	// schema version this build cannot read.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)

// Store defines the typed access to persisted videos. It is the only code
// that knows the schema.
type Store interface {
	// InsertVideo writes a video and assigns its ID. An existing row with the
	// same ID is replaced.
	InsertVideo(ctx context.Context, video *model.Video) error

	// ObserveVideos emits the full list ordered newest first, then a fresh list
	// after every committed write. The channel closes when ctx is done or a
	// read fails.
	ObserveVideos(ctx context.Context) <-chan []model.Video

	// ListVideos reads the full list ordered newest first.
	ListVideos(ctx context.Context) ([]model.Video, error)

	CountVideos(ctx context.Context) (int64, error)

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
