package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/planbook-app/planbook/internal/middleware"
	"github.com/planbook-app/planbook/internal/store"
)

const (
	defaultPlanLimit = 50
	statsScanLimit   = 1000
)

// parseEventDate accepts the ISO-8601 shapes clients actually send.
func parseEventDate(s string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// ownedPlan loads the plan from the path and enforces ownership. A plan
// owned by someone else is reported exactly like a missing one, so callers
// cannot probe for foreign plan IDs.
func ownedPlan(repo *store.Repository, w http.ResponseWriter, r *http.Request) (*store.Plan, bool) {
	user := middleware.UserFromContext(r.Context())
	planID := mux.Vars(r)["plan_id"]

	plan, err := repo.GetPlan(r.Context(), planID)
	if err != nil {
		storeError(w, err, "Plan not found")
		return nil, false
	}
	if plan.UserID != user.ID {
		jsonError(w, "Plan not found", http.StatusNotFound)
		return nil, false
	}
	return plan, true
}

// validCategory rejects references to categories that do not exist.
func validCategory(repo *store.Repository, w http.ResponseWriter, r *http.Request, categoryID int) bool {
	if _, err := repo.GetCategory(r.Context(), categoryID); err != nil {
		if store.IsNotFound(err) {
			jsonError(w, "Invalid category_id", http.StatusBadRequest)
		} else {
			storeError(w, err, "Category not found")
		}
		return false
	}
	return true
}

// =============================================================================
// Plan Handlers
// =============================================================================

func createPlanHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())

		var req struct {
			Title       string   `json:"title"`
			EventDate   string   `json:"event_date"`
			Description *string  `json:"description"`
			Location    *string  `json:"location"`
			CategoryID  *int     `json:"category_id"`
			Budget      *float64 `json:"budget"`
			IsPublic    bool     `json:"is_public"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request", http.StatusBadRequest)
			return
		}

		if req.Title == "" {
			jsonError(w, "Title is required", http.StatusBadRequest)
			return
		}
		if req.EventDate == "" {
			jsonError(w, "Event date is required", http.StatusBadRequest)
			return
		}
		eventDate, err := parseEventDate(req.EventDate)
		if err != nil {
			jsonError(w, "Invalid event_date format", http.StatusBadRequest)
			return
		}
		if req.CategoryID != nil && !validCategory(repo, w, r, *req.CategoryID) {
			return
		}

		plan, err := repo.CreatePlan(r.Context(), store.PlanCreate{
			UserID:      user.ID,
			Title:       req.Title,
			EventDate:   eventDate,
			Description: req.Description,
			Location:    req.Location,
			CategoryID:  req.CategoryID,
			Budget:      req.Budget,
			GuestCount:  0,
			Status:      store.PlanStatusPlanned,
			IsPublic:    req.IsPublic,
		})
		if err != nil {
			storeError(w, err, "Plan not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"message": "Plan created successfully",
			"plan":    plan,
		})
	}
}

func listPlansHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())

		limit := defaultPlanLimit
		offset := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		plans, err := repo.ListUserPlans(r.Context(), user.ID, limit, offset)
		if err != nil {
			storeError(w, err, "Plan not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"plans":  plans,
			"count":  len(plans),
			"limit":  limit,
			"offset": offset,
		})
	}
}

func getPlanHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}

		guests, err := repo.ListPlanGuests(r.Context(), plan.ID)
		if err != nil {
			storeError(w, err, "Plan not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"plan":         plan,
			"guests":       guests,
			"guests_count": len(guests),
		})
	}
}

func updatePlanHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}

		var req struct {
			Title       *string  `json:"title"`
			EventDate   *string  `json:"event_date"`
			Description *string  `json:"description"`
			Location    *string  `json:"location"`
			CategoryID  *int     `json:"category_id"`
			Budget      *float64 `json:"budget"`
			Status      *string  `json:"status"`
			IsPublic    *bool    `json:"is_public"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request", http.StatusBadRequest)
			return
		}

		update := store.PlanUpdate{
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			CategoryID:  req.CategoryID,
			Budget:      req.Budget,
			Status:      req.Status,
			IsPublic:    req.IsPublic,
		}
		if req.EventDate != nil {
			eventDate, err := parseEventDate(*req.EventDate)
			if err != nil {
				jsonError(w, "Invalid event_date format", http.StatusBadRequest)
				return
			}
			update.EventDate = &eventDate
		}
		if req.CategoryID != nil && !validCategory(repo, w, r, *req.CategoryID) {
			return
		}

		updated, err := repo.UpdatePlan(r.Context(), plan.ID, update)
		if err != nil {
			storeError(w, err, "Plan not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"message": "Plan updated successfully",
			"plan":    updated,
		})
	}
}

func deletePlanHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}

		if err := repo.DeletePlan(r.Context(), plan.ID); err != nil {
			storeError(w, err, "Plan not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]string{
			"message": "Plan deleted successfully",
		})
	}
}

func listCategoriesHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := repo.ListCategories(r.Context())
		if err != nil {
			storeError(w, err, "Categories not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"categories": categories,
		})
	}
}

func planStatsHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())

		plans, err := repo.ListUserPlans(r.Context(), user.ID, statsScanLimit, 0)
		if err != nil {
			storeError(w, err, "Plan not found")
			return
		}

		// Upcoming means still in the planned state, whatever the date:
		// a planned plan whose date has passed stays in the bucket until
		// its owner completes or cancels it.
		stats := struct {
			TotalPlans     int            `json:"total_plans"`
			UpcomingPlans  int            `json:"upcoming_plans"`
			CompletedPlans int            `json:"completed_plans"`
			TotalGuests    int            `json:"total_guests"`
			ByCategory     map[string]int `json:"by_category"`
		}{
			TotalPlans: len(plans),
			ByCategory: map[string]int{},
		}

		for _, p := range plans {
			stats.TotalGuests += p.GuestCount
			switch p.Status {
			case store.PlanStatusPlanned:
				stats.UpcomingPlans++
			case store.PlanStatusCompleted:
				stats.CompletedPlans++
			}
			if p.CategoryID != nil {
				stats.ByCategory[strconv.Itoa(*p.CategoryID)]++
			}
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"stats": stats,
		})
	}
}
