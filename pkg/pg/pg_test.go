package pg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	Model
	Code string `gorm:"uniqueIndex"`
}

func openTestDB(t *testing.T) *DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&widget{}))
	return New(db, db)
}

func TestDB_WithinTransaction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		err := db.WithinTransaction(ctx, func(ctx context.Context) error {
			return db.Write(ctx).Create(&widget{Code: "a"}).Error
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Read(ctx).Model(&widget{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := db.Write(ctx).Create(&widget{Code: "b"}).Error; err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var count int64
		require.NoError(t, db.Read(ctx).Model(&widget{}).Where("code = ?", "b").Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("nested call reuses transaction", func(t *testing.T) {
		err := db.WithinTransaction(ctx, func(outer context.Context) error {
			return db.WithinTransaction(outer, func(inner context.Context) error {
				assert.Same(t, db.Write(outer), db.Write(inner))
				return nil
			})
		})
		require.NoError(t, err)
	})
}

func TestModel_BeforeCreateAssignsID(t *testing.T) {
	db := openTestDB(t)
	w := &widget{Code: "id"}
	require.NoError(t, db.Write(context.Background()).Create(w).Error)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", w.ID.String())
}

func TestIsDuplicate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Write(ctx).Create(&widget{Code: "dup"}).Error)

	err := db.Write(ctx).Create(&widget{Code: "dup"}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))

	err = db.Read(ctx).Where("code = ?", "missing").First(&widget{}).Error
	assert.True(t, IsNotFound(err))
}

func TestDB_Ping(t *testing.T) {
	require.NoError(t, openTestDB(t).Ping(context.Background()))
}
