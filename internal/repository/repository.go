// Package repository is the domain-facing facade over the video store.
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/user/quickpad-go/internal/model"
	"github.com/user/quickpad-go/internal/store"
)

// Repository exposes the live video list and the single write path.
type Repository struct {
	store store.Store
	now   func() time.Time
}

// Option configures a Repository
type Option func(*Repository)

// WithClock overrides the clock used to stamp new videos.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// New creates a repository over the given store
func New(s store.Store, opts ...Option) *Repository {
	r := &Repository{
		store: s,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Videos streams the full list, newest first, until ctx is done.
func (r *Repository) Videos(ctx context.Context) <-chan []model.Video {
	return r.store.ObserveVideos(ctx)
}

// SaveVideo stores a new caption for uri, stamped with the current time.
// Observers see the new video asynchronously.
func (r *Repository) SaveVideo(ctx context.Context, uri, caption string) error {
	video := &model.Video{
		URI:       uri,
		Caption:   strings.TrimSpace(caption),
		CreatedAt: r.now().UnixMilli(),
	}
	return r.store.InsertVideo(ctx, video)
}
