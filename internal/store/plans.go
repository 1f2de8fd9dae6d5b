package store

import (
	"context"
	"fmt"
	"time"

	"github.com/planbook-app/planbook/internal/supabase"
)

// CreatePlan inserts a plan and returns the stored row.
func (r *Repository) CreatePlan(ctx context.Context, create PlanCreate) (*Plan, error) {
	if create.UserID == "" {
		return nil, fmt.Errorf("%w: user_id cannot be empty", ErrInvalidInput)
	}
	if create.Title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if create.Status == "" {
		create.Status = PlanStatusPlanned
	}

	var plans []Plan
	err := r.client.Database().From(PlansTable).
		Insert(create).
		ExecuteInto(ctx, &plans)
	if err != nil {
		return nil, fmt.Errorf("%w: create plan: %v", ErrDatabaseError, err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: create plan returned no rows", ErrDatabaseError)
	}
	return &plans[0], nil
}

// GetPlan retrieves a plan by id.
func (r *Repository) GetPlan(ctx context.Context, planID string) (*Plan, error) {
	if err := ValidateID(planID); err != nil {
		return nil, err
	}

	var plans []Plan
	err := r.client.Database().From(PlansTable).
		Select("*").
		Eq("id", planID).
		Limit(1).
		ExecuteInto(ctx, &plans)
	if err != nil {
		return nil, fmt.Errorf("%w: get plan: %v", ErrDatabaseError, err)
	}
	if len(plans) == 0 {
		return nil, NewNotFoundError("plan", planID)
	}
	return &plans[0], nil
}

// ListUserPlans returns a page of a user's plans, most recent event first,
// with the joined category name/icon attached.
func (r *Repository) ListUserPlans(ctx context.Context, userID string, limit, offset int) ([]Plan, error) {
	if err := ValidateID(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var plans []Plan
	err := r.client.Database().From(PlansTable).
		Select("*,event_categories(name,icon)").
		Eq("user_id", userID).
		Order("event_date", supabase.OrderDesc).
		Limit(limit).
		Offset(offset).
		ExecuteInto(ctx, &plans)
	if err != nil {
		return nil, fmt.Errorf("%w: list user plans: %v", ErrDatabaseError, err)
	}
	return plans, nil
}

// UpdatePlan applies a partial update, stamping updated_at, and returns the
// authoritative post-update row rather than trusting the echoed payload.
func (r *Repository) UpdatePlan(ctx context.Context, planID string, update PlanUpdate) (*Plan, error) {
	if err := ValidateID(planID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	update.UpdatedAt = &now

	var plans []Plan
	err := r.client.Database().From(PlansTable).
		Update(update).
		Eq("id", planID).
		ExecuteInto(ctx, &plans)
	if err != nil {
		return nil, fmt.Errorf("%w: update plan: %v", ErrDatabaseError, err)
	}
	if len(plans) == 0 {
		return nil, NewNotFoundError("plan", planID)
	}
	return r.GetPlan(ctx, planID)
}

// DeletePlan hard-deletes a plan. Guests, phones, relationships and tasks
// cascade at the storage layer.
func (r *Repository) DeletePlan(ctx context.Context, planID string) error {
	if err := ValidateID(planID); err != nil {
		return err
	}

	var deleted []Plan
	err := r.client.Database().From(PlansTable).
		Delete().
		Eq("id", planID).
		ExecuteInto(ctx, &deleted)
	if err != nil {
		return fmt.Errorf("%w: delete plan: %v", ErrDatabaseError, err)
	}
	if len(deleted) == 0 {
		return NewNotFoundError("plan", planID)
	}
	return nil
}
