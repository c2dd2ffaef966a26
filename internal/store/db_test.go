package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/quickpad-go/internal/config"
	"github.com/user/quickpad-go/internal/model"
	"gorm.io/gorm"
)

func TestOpen_StampsSchemaIdentity(t *testing.T) {
	_, db := setupTestStore(t)

	var info model.SchemaInfo
	require.NoError(t, db.Gorm().Where("name = ?", model.SchemaName).Take(&info).Error)
	assert.Equal(t, model.SchemaVersion, info.Version)
	assert.True(t, db.Gorm().Migrator().HasTable("videos"))
}

func TestOpen_ReopenKeepsRecords(t *testing.T) {
	cfg := sqliteConfig(t.TempDir())

	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, NewGormStore(db).InsertVideo(context.Background(), &model.Video{URI: "file://a", Caption: "dogs", CreatedAt: 1}))
	require.NoError(t, db.Close())

	db, err = Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	videos, err := NewGormStore(db).ListVideos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "dogs", videos[0].Caption)
}

func TestOpen_RejectsMismatchedVersion(t *testing.T) {
	cfg := sqliteConfig(t.TempDir())

	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Gorm().Model(&model.SchemaInfo{}).
		Where("name = ?", model.SchemaName).
		Update("version", model.SchemaVersion+1).Error)
	require.NoError(t, db.Close())

	_, err = Open(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DBConfig{Driver: "oracle", MaxConns: 1})
	assert.Error(t, err)
}

func TestNotifyChanged_WakesWaiters(t *testing.T) {
	_, db := setupTestStore(t)

	first := db.Changes()
	second := db.Changes()
	assert.Equal(t, first, second)

	db.NotifyChanged()

	for _, ch := range []<-chan struct{}{first, second} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("waiter was not woken")
		}
	}

	select {
	case <-db.Changes():
		t.Fatal("fresh change signal should still be open")
	default:
	}
}

func TestPing(t *testing.T) {
	s, _ := setupTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

// closingPool is a connection pool gorm cannot unwrap into a *sql.DB
type closingPool struct {
	gorm.ConnPool
	closed bool
}

func (p *closingPool) Close() error {
	p.closed = true
	return nil
}

func TestClosePool_ReleasesUnwrappablePool(t *testing.T) {
	pool := &closingPool{}
	db := &gorm.DB{Config: &gorm.Config{ConnPool: pool}}

	_, err := db.DB()
	require.Error(t, err)

	closePool(db)
	assert.True(t, pool.closed)
}

func TestClosePool_ClosesSQLDB(t *testing.T) {
	_, db := setupTestStore(t)

	closePool(db.Gorm())
	assert.Error(t, db.Ping(context.Background()))
}
