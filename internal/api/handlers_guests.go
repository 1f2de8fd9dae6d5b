package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/planbook-app/planbook/internal/store"
)

// planGuest loads the guest from the path and verifies it belongs to the
// plan already resolved by ownedPlan.
func planGuest(repo *store.Repository, w http.ResponseWriter, r *http.Request, planID string) (*store.Guest, bool) {
	guestID := mux.Vars(r)["guest_id"]

	guest, err := repo.GetGuest(r.Context(), guestID)
	if err != nil {
		storeError(w, err, "Guest not found")
		return nil, false
	}
	if guest.PlanID != planID {
		jsonError(w, "Guest does not belong to this plan", http.StatusBadRequest)
		return nil, false
	}
	return guest, true
}

// adjustGuestCount moves the plan's denormalized guest counter by delta,
// floored at zero. Failures are reported to the caller but the guest write
// that preceded them is not rolled back, so the counter can drift; listing
// endpoints report the real count.
func adjustGuestCount(repo *store.Repository, r *http.Request, plan *store.Plan, delta int) error {
	count := plan.GuestCount + delta
	if count < 0 {
		count = 0
	}
	_, err := repo.UpdatePlan(r.Context(), plan.ID, store.PlanUpdate{GuestCount: &count})
	return err
}

// =============================================================================
// Guest Handlers
// =============================================================================

func addGuestHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}

		var req struct {
			Name            string             `json:"name"`
			Email           *string            `json:"email"`
			Phone           *string            `json:"phone"`
			PhoneNumbers    []store.PhoneInput `json:"phone_numbers"`
			RSVPStatus      string             `json:"rsvp_status"`
			AdditionalNotes *string            `json:"additional_notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request", http.StatusBadRequest)
			return
		}

		if req.Name == "" {
			jsonError(w, "Name is required", http.StatusBadRequest)
			return
		}

		phones := req.PhoneNumbers
		if len(phones) == 0 && req.Phone != nil && *req.Phone != "" {
			// Legacy single-phone clients get one primary mobile entry.
			phones = []store.PhoneInput{{Number: *req.Phone, Type: store.PhoneTypeMobile, IsPrimary: true}}
		}
		for _, p := range phones {
			if p.Number == "" {
				jsonError(w, "Each phone number entry requires a number", http.StatusBadRequest)
				return
			}
		}

		rsvp := req.RSVPStatus
		if rsvp == "" {
			rsvp = store.RSVPPending
		}
		if !store.ValidRSVPStatus(rsvp) {
			jsonError(w, "Invalid rsvp_status", http.StatusBadRequest)
			return
		}

		guest, err := repo.CreateGuest(r.Context(), store.GuestCreate{
			PlanID:          plan.ID,
			Name:            req.Name,
			Email:           req.Email,
			Phone:           req.Phone,
			RSVPStatus:      rsvp,
			AdditionalNotes: req.AdditionalNotes,
		}, phones)
		if err != nil {
			storeError(w, err, "Guest not found")
			return
		}

		if err := adjustGuestCount(repo, r, plan, 1); err != nil {
			storeError(w, err, "Plan not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"message": "Guest added successfully",
			"guest":   guest,
		})
	}
}

func listGuestsHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}

		guests, err := repo.ListPlanGuests(r.Context(), plan.ID)
		if err != nil {
			storeError(w, err, "Guest not found")
			return
		}

		rsvpStats := make(map[string]int, len(store.RSVPStatuses))
		for _, s := range store.RSVPStatuses {
			rsvpStats[s] = 0
		}
		for _, g := range guests {
			rsvpStats[g.RSVPStatus]++
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"guests":     guests,
			"count":      len(guests),
			"rsvp_stats": rsvpStats,
		})
	}
}

func getGuestHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}
		guest, ok := planGuest(repo, w, r, plan.ID)
		if !ok {
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"guest": guest,
		})
	}
}

func updateGuestHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}
		guest, ok := planGuest(repo, w, r, plan.ID)
		if !ok {
			return
		}

		var req struct {
			Name            *string `json:"name"`
			Email           *string `json:"email"`
			Phone           *string `json:"phone"`
			RSVPStatus      *string `json:"rsvp_status"`
			AdditionalNotes *string `json:"additional_notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request", http.StatusBadRequest)
			return
		}

		if req.RSVPStatus != nil && !store.ValidRSVPStatus(*req.RSVPStatus) {
			jsonError(w, "Invalid rsvp_status", http.StatusBadRequest)
			return
		}

		updated, err := repo.UpdateGuest(r.Context(), guest.ID, store.GuestUpdate{
			Name:            req.Name,
			Email:           req.Email,
			Phone:           req.Phone,
			RSVPStatus:      req.RSVPStatus,
			AdditionalNotes: req.AdditionalNotes,
		})
		if err != nil {
			storeError(w, err, "Guest not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"message": "Guest updated successfully",
			"guest":   updated,
		})
	}
}

func deleteGuestHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}
		guest, ok := planGuest(repo, w, r, plan.ID)
		if !ok {
			return
		}

		if err := repo.DeleteGuest(r.Context(), guest.ID); err != nil {
			storeError(w, err, "Guest not found")
			return
		}

		if err := adjustGuestCount(repo, r, plan, -1); err != nil {
			storeError(w, err, "Plan not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]string{
			"message": "Guest deleted successfully",
		})
	}
}

func updateRSVPHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}
		guest, ok := planGuest(repo, w, r, plan.ID)
		if !ok {
			return
		}

		var req struct {
			RSVPStatus string `json:"rsvp_status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request", http.StatusBadRequest)
			return
		}

		if !store.ValidRSVPStatus(req.RSVPStatus) {
			jsonError(w, "Invalid rsvp_status. Must be one of: pending, confirmed, declined, maybe", http.StatusBadRequest)
			return
		}

		updated, err := repo.UpdateRSVP(r.Context(), guest.ID, req.RSVPStatus)
		if err != nil {
			storeError(w, err, "Guest not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"message": "RSVP updated successfully",
			"guest":   updated,
		})
	}
}

func sendInvitationHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}
		guest, ok := planGuest(repo, w, r, plan.ID)
		if !ok {
			return
		}

		updated, err := repo.MarkInvitationSent(r.Context(), guest.ID)
		if err != nil {
			storeError(w, err, "Guest not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"message": "Invitation marked as sent",
			"guest":   updated,
		})
	}
}

func addGuestPhoneHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}
		guest, ok := planGuest(repo, w, r, plan.ID)
		if !ok {
			return
		}

		var req struct {
			PhoneNumber string `json:"phone_number"`
			PhoneType   string `json:"phone_type"`
			IsPrimary   bool   `json:"is_primary"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request", http.StatusBadRequest)
			return
		}

		if req.PhoneNumber == "" {
			jsonError(w, "phone_number is required", http.StatusBadRequest)
			return
		}

		phones, err := repo.AddPhoneNumbers(r.Context(), guest.ID, []store.PhoneInput{{
			Number:    req.PhoneNumber,
			Type:      req.PhoneType,
			IsPrimary: req.IsPrimary,
		}})
		if err != nil {
			storeError(w, err, "Guest not found")
			return
		}

		payload := map[string]interface{}{
			"message": "Phone number added successfully",
		}
		if len(phones) > 0 {
			payload["phone"] = phones[0]
		}
		respondJSON(w, statusSuccess, payload)
	}
}

func createRelationshipHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}
		guest, ok := planGuest(repo, w, r, plan.ID)
		if !ok {
			return
		}

		var req struct {
			RelatedGuestID   string  `json:"related_guest_id"`
			RelationshipType string  `json:"relationship_type"`
			Notes            *string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request", http.StatusBadRequest)
			return
		}

		if req.RelatedGuestID == "" {
			jsonError(w, "related_guest_id is required", http.StatusBadRequest)
			return
		}
		if !store.ValidRelationshipType(req.RelationshipType) {
			jsonError(w, "Invalid relationship_type. Must be one of: spouse, child, parent, sibling, friend, colleague, other", http.StatusBadRequest)
			return
		}

		// The related guest must live in the same plan.
		related, err := repo.GetGuest(r.Context(), req.RelatedGuestID)
		if err != nil {
			storeError(w, err, "Related guest not found")
			return
		}
		if related.PlanID != plan.ID {
			jsonError(w, "Guest does not belong to this plan", http.StatusBadRequest)
			return
		}

		relationship, err := repo.CreateRelationship(r.Context(), store.RelationshipCreate{
			PlanID:           plan.ID,
			PrimaryGuestID:   guest.ID,
			RelatedGuestID:   related.ID,
			RelationshipType: req.RelationshipType,
			Notes:            req.Notes,
		})
		if err != nil {
			storeError(w, err, "Guest not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"message":      "Relationship created successfully",
			"relationship": relationship,
		})
	}
}

func listRelationshipsHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}
		guest, ok := planGuest(repo, w, r, plan.ID)
		if !ok {
			return
		}

		relationships, err := repo.ListGuestRelationships(r.Context(), guest.ID)
		if err != nil {
			storeError(w, err, "Guest not found")
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"relationships": relationships,
			"count":         len(relationships),
		})
	}
}

func searchGuestsHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := ownedPlan(repo, w, r)
		if !ok {
			return
		}

		phone := r.URL.Query().Get("phone")
		if phone == "" {
			jsonError(w, "phone query parameter is required", http.StatusBadRequest)
			return
		}

		guests, err := repo.SearchByPhone(r.Context(), phone)
		if err != nil {
			storeError(w, err, "Guest not found")
			return
		}

		matches := make([]store.Guest, 0, len(guests))
		for _, g := range guests {
			if g.PlanID == plan.ID {
				matches = append(matches, g)
			}
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"guests": matches,
			"count":  len(matches),
		})
	}
}
