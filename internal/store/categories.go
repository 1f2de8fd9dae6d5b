package store

import (
	"context"
	"fmt"
	"strconv"
)

// ListCategories returns all event categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]EventCategory, error) {
	var categories []EventCategory
	err := r.client.Database().From(CategoriesTable).
		Select("*").
		Order("name").
		ExecuteInto(ctx, &categories)
	if err != nil {
		return nil, fmt.Errorf("%w: list categories: %v", ErrDatabaseError, err)
	}
	return categories, nil
}

// GetCategory retrieves a category by id.
func (r *Repository) GetCategory(ctx context.Context, categoryID int) (*EventCategory, error) {
	var categories []EventCategory
	err := r.client.Database().From(CategoriesTable).
		Select("*").
		Eq("id", categoryID).
		Limit(1).
		ExecuteInto(ctx, &categories)
	if err != nil {
		return nil, fmt.Errorf("%w: get category: %v", ErrDatabaseError, err)
	}
	if len(categories) == 0 {
		return nil, NewNotFoundError("category", strconv.Itoa(categoryID))
	}
	return &categories[0], nil
}

// SeedCategories inserts reference categories with the service role key.
// Used by the one-shot seeder, not by request handlers.
func (r *Repository) SeedCategories(ctx context.Context, categories []CategoryCreate) ([]EventCategory, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: no categories provided", ErrInvalidInput)
	}
	for _, c := range categories {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: category name cannot be empty", ErrInvalidInput)
		}
	}

	var created []EventCategory
	err := r.client.Database().From(CategoriesTable).
		Insert(categories).
		WithServiceKey().
		ExecuteInto(ctx, &created)
	if err != nil {
		return nil, fmt.Errorf("%w: seed categories: %v", ErrDatabaseError, err)
	}
	return created, nil
}
