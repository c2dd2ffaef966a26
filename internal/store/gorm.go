package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/user/quickpad-go/internal/model"
	"gorm.io/gorm/clause"
)

// newestFirst orders by createdAt, breaking ties by id so that repeated reads
// agree and the later insert wins.
var newestFirst = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "createdAt"}, Desc: true},
	{Column: clause.Column{Name: "id"}, Desc: true},
}}

// GormStore implements Store on top of a DB
type GormStore struct {
	db *DB
}

// NewGormStore creates a store over an opened DB
func NewGormStore(db *DB) *GormStore {
	return &GormStore{db: db}
}

// InsertVideo saves a single video. A row with the same ID is replaced.
func (s *GormStore) InsertVideo(ctx context.Context, video *model.Video) error {
	result := s.db.Gorm().WithContext(ctx).Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(video)

	if result.Error != nil {
		return fmt.Errorf("%w: failed to save video: %w", ErrStorage, result.Error)
	}

	s.db.NotifyChanged()
	return nil
}

// ListVideos retrieves every video ordered by createdAt DESC
func (s *GormStore) ListVideos(ctx context.Context) ([]model.Video, error) {
	videos := make([]model.Video, 0)
	result := s.db.Gorm().WithContext(ctx).
		Clauses(newestFirst).
		Find(&videos)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: failed to list videos: %w", ErrStorage, result.Error)
	}
	return videos, nil
}

// ObserveVideos streams the ordered list, re-reading after each write.
func (s *GormStore) ObserveVideos(ctx context.Context) <-chan []model.Video {
	out := make(chan []model.Video)

	go func() {
		defer close(out)
		for {
			// Taken before the read so a write landing mid-read still triggers
			// another read.
			changed := s.db.Changes()

			videos, err := s.ListVideos(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Error().Stack().Err(err).Msg("Video observation stopped")
				}
				return
			}

			select {
			case out <- videos:
			case <-ctx.Done():
				return
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// CountVideos returns the total count of videos
func (s *GormStore) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.Gorm().WithContext(ctx).Model(&model.Video{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("%w: failed to count videos: %w", ErrStorage, result.Error)
	}
	return count, nil
}

// Ping checks database connectivity
func (s *GormStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection
func (s *GormStore) Close() error {
	return s.db.Close()
}
