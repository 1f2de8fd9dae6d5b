package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/planbook-app/planbook/internal/store"
)

// =============================================================================
// Task Handlers
// =============================================================================

func createTaskHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}

		var req struct {
			Title       string  `json:"title"`
			Description *string `json:"description"`
			DueDate     *string `json:"due_date"`
			Priority    string  `json:"priority"`
			AssignedTo  *string `json:"assigned_to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request", http.StatusBadRequest)
			return
		}

		if req.Title == "" {
			jsonError(w, "Title is required", http.StatusBadRequest)
			return
		}

		var dueDate *time.Time
		if req.DueDate != nil && *req.DueDate != "" {
			parsed, err := parseEventDate(*req.DueDate)
			if err != nil {
				jsonError(w, "Invalid due_date format", http.StatusBadRequest)
				return
			}
			dueDate = &parsed
		}

		task, err := repo.CreateTask(r.Context(), store.TaskCreate{
			PlanID:      plan.ID,
			Title:       req.Title,
			Description: req.Description,
			DueDate:     dueDate,
			Priority:    req.Priority,
			AssignedTo:  req.AssignedTo,
		})
		if err != nil {
			storeError(w, err, "Task not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"message": "Task created successfully",
			"task":    task,
		})
	}
}

func listTasksHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}

		tasks, err := repo.ListPlanTasks(r.Context(), plan.ID)
		if err != nil {
			storeError(w, err, "Task not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"tasks": tasks,
			"count": len(tasks),
		})
	}
}

func updateTaskHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}

		taskID := mux.Vars(r)["task_id"]
		existing, err := repo.GetTask(r.Context(), taskID)
		if err != nil {
			storeError(w, err, "Task not found")
			return
		}
		if existing.PlanID != plan.ID {
			jsonError(w, "Task does not belong to this plan", http.StatusBadRequest)
			return
		}

		var req struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
			DueDate     *string `json:"due_date"`
			Priority    *string `json:"priority"`
			Status      *string `json:"status"`
			AssignedTo  *string `json:"assigned_to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request", http.StatusBadRequest)
			return
		}

		update := store.TaskUpdate{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			Status:      req.Status,
			AssignedTo:  req.AssignedTo,
		}
		if req.DueDate != nil && *req.DueDate != "" {
			parsed, err := parseEventDate(*req.DueDate)
			if err != nil {
				jsonError(w, "Invalid due_date format", http.StatusBadRequest)
				return
			}
			update.DueDate = &parsed
		}

		task, err := repo.UpdateTask(r.Context(), taskID, update)
		if err != nil {
			storeError(w, err, "Task not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"message": "Task updated successfully",
			"task":    task,
		})
	}
}
