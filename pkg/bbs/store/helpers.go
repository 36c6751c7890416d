package store

import (
	"context"

	"gorm.io/gorm"
)

// getByField retrieves a single record of type T by matching field=value and
// converts gorm.ErrRecordNotFound to notFoundErr.
func getByField[T any](db *gorm.DB, ctx context.Context, field string, value any, notFoundErr error) (*T, error) {
	var result T
	if err := db.WithContext(ctx).Where(field+" = ?", value).First(&result).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &result, nil
}

// listOrdered retrieves all records of type T in the given order.
// Returns an empty slice (not nil) on success with no records.
func listOrdered[T any](db *gorm.DB, ctx context.Context, order string) ([]*T, error) {
	results := []*T{}
	if err := db.WithContext(ctx).Order(order).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// countWhere counts records of type T matching query.
func countWhere[T any](db *gorm.DB, ctx context.Context, query string, args ...any) (int64, error) {
	var count int64
	q := db.WithContext(ctx).Model(new(T))
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
