package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/quickpad-go/internal/config"
	"github.com/user/quickpad-go/internal/model"
	"github.com/user/quickpad-go/internal/store"
)

func setupRepository(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	db, err := store.Open(&config.DBConfig{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "quickpad.db"),
		MaxConns: 4,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(store.NewGormStore(db), opts...)
}

// stepClock returns a clock that advances by one millisecond per call
func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Millisecond)
		return current
	}
}

func awaitVideos(t *testing.T, ch <-chan []model.Video, n int) []model.Video {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case videos, ok := <-ch:
			require.True(t, ok, "observation closed unexpectedly")
			if len(videos) == n {
				return videos
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %d videos", n)
		}
	}
}

func TestSaveVideo_NewestFirst(t *testing.T) {
	repo := setupRepository(t, WithClock(stepClock(time.UnixMilli(1_700_000_000_000))))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, repo.SaveVideo(ctx, "file://a", "dogs"))
	require.NoError(t, repo.SaveVideo(ctx, "file://b", "cats"))

	videos := awaitVideos(t, repo.Videos(ctx), 2)
	assert.Equal(t, "file://b", videos[0].URI)
	assert.Equal(t, "cats", videos[0].Caption)
	assert.Equal(t, "file://a", videos[1].URI)
	assert.Equal(t, "dogs", videos[1].Caption)
	assert.NotEqual(t, videos[0].ID, videos[1].ID)
}

func TestSaveVideo_TrimsCaption(t *testing.T) {
	repo := setupRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, repo.SaveVideo(ctx, "file://a", "  hi  "))

	videos := awaitVideos(t, repo.Videos(ctx), 1)
	assert.Equal(t, "hi", videos[0].Caption)
}

func TestSaveVideo_StampsCreatedAt(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123)
	repo := setupRepository(t, WithClock(func() time.Time { return at }))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, repo.SaveVideo(ctx, "file://a", "dogs"))

	videos := awaitVideos(t, repo.Videos(ctx), 1)
	assert.Equal(t, at.UnixMilli(), videos[0].CreatedAt)
	assert.NotZero(t, videos[0].ID)
}

func TestVideos_LateSubscriberSeesPriorSaves(t *testing.T) {
	repo := setupRepository(t, WithClock(stepClock(time.UnixMilli(0))))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, repo.SaveVideo(ctx, "file://a", "dogs"))
	require.NoError(t, repo.SaveVideo(ctx, "file://b", "cats"))

	select {
	case videos := <-repo.Videos(ctx):
		require.Len(t, videos, 2)
		assert.Equal(t, "cats", videos[0].Caption)
		assert.Equal(t, "dogs", videos[1].Caption)
	case <-time.After(2 * time.Second):
		t.Fatal("late subscriber received no snapshot")
	}
}
