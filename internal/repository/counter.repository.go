package repository

import (
	"context"
	"time"

	"github.com/dapurasri/backoffice/pkg/pg"
	"gorm.io/gorm"
)

// CounterRepository backs the database number allocator.
type CounterRepository struct {
	*pg.DB
}

func NewCounterRepository(db *pg.DB) *CounterRepository {
	return &CounterRepository{
		db,
	}
}

// Increment bumps the (scope, day) counter and returns the new value. The
// update holds the row lock until the surrounding transaction ends, so the
// read that follows sees this call's value only.
func (r *CounterRepository) Increment(ctx context.Context, scope, day string) (int64, bool, error) {
	var (
		value int64
		found bool
	)
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		result := r.Write(ctx).
			Model(&DocumentCounterEntity{}).
			Where("scope = ? AND day = ?", scope, day).
			Updates(map[string]any{
				"last_value": gorm.Expr("last_value + 1"),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var entity DocumentCounterEntity
		if err := r.Write(ctx).Where("scope = ? AND day = ?", scope, day).First(&entity).Error; err != nil {
			return err
		}
		value, found = entity.LastValue, true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return value, found, nil
}

// Insert creates the counter row. An existing row fails with a duplicate key
// error.
func (r *CounterRepository) Insert(ctx context.Context, scope, day string, value int64) error {
	entity := &DocumentCounterEntity{Scope: scope, Day: day, LastValue: value, UpdatedAt: time.Now()}
	return r.Write(ctx).Create(entity).Error
}

// Current reads a counter without changing it. Missing counters read as 0.
func (r *CounterRepository) Current(ctx context.Context, scope, day string) (int64, error) {
	var entity DocumentCounterEntity
	err := r.Read(ctx).Where("scope = ? AND day = ?", scope, day).First(&entity).Error
	if pg.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entity.LastValue, nil
}
