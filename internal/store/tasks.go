package store

import (
	"context"
	"fmt"
	"time"
)

// CreateTask inserts a task for a plan.
func (r *Repository) CreateTask(ctx context.Context, create TaskCreate) (*EventTask, error) {
	if err := ValidateID(create.PlanID); err != nil {
		return nil, err
	}
	if create.Title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if create.Priority == "" {
		create.Priority = PriorityMedium
	}

	var tasks []EventTask
	err := r.client.Database().From(TasksTable).
		Insert(create).
		ExecuteInto(ctx, &tasks)
	if err != nil {
		return nil, fmt.Errorf("%w: create task: %v", ErrDatabaseError, err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: create task returned no rows", ErrDatabaseError)
	}
	return &tasks[0], nil
}

// GetTask fetches one task by id.
func (r *Repository) GetTask(ctx context.Context, taskID string) (*EventTask, error) {
	if err := ValidateID(taskID); err != nil {
		return nil, err
	}

	var tasks []EventTask
	err := r.client.Database().From(TasksTable).
		Select("*").
		Eq("id", taskID).
		Limit(1).
		ExecuteInto(ctx, &tasks)
	if err != nil {
		return nil, fmt.Errorf("%w: get task: %v", ErrDatabaseError, err)
	}
	if len(tasks) == 0 {
		return nil, NewNotFoundError("task", taskID)
	}
	return &tasks[0], nil
}

// ListPlanTasks returns all tasks of a plan, soonest due first.
func (r *Repository) ListPlanTasks(ctx context.Context, planID string) ([]EventTask, error) {
	if err := ValidateID(planID); err != nil {
		return nil, err
	}

	var tasks []EventTask
	err := r.client.Database().From(TasksTable).
		Select("*").
		Eq("plan_id", planID).
		Order("due_date").
		ExecuteInto(ctx, &tasks)
	if err != nil {
		return nil, fmt.Errorf("%w: list plan tasks: %v", ErrDatabaseError, err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update. Moving a task into the completed
// status stamps completed_at with a server timestamp.
func (r *Repository) UpdateTask(ctx context.Context, taskID string, update TaskUpdate) (*EventTask, error) {
	if err := ValidateID(taskID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	update.UpdatedAt = &now
	if update.Status != nil && *update.Status == TaskStatusCompleted && update.CompletedAt == nil {
		update.CompletedAt = &now
	}

	var tasks []EventTask
	err := r.client.Database().From(TasksTable).
		Update(update).
		Eq("id", taskID).
		ExecuteInto(ctx, &tasks)
	if err != nil {
		return nil, fmt.Errorf("%w: update task: %v", ErrDatabaseError, err)
	}
	if len(tasks) == 0 {
		return nil, NewNotFoundError("task", taskID)
	}
	return &tasks[0], nil
}
