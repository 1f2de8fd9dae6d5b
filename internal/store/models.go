package store

import (
	"time"
)

// Table names on the hosted backend.
const (
	PlansTable         = "plans"
	GuestsTable        = "guests"
	GuestPhonesTable   = "guest_phones"
	RelationshipsTable = "guest_relationships"
	TasksTable         = "event_tasks"
	CategoriesTable    = "event_categories"
)

// Plan status values.
const (
	PlanStatusPlanned    = "planned"
	PlanStatusInProgress = "in_progress"
	PlanStatusCompleted  = "completed"
	PlanStatusCancelled  = "cancelled"
)

// RSVP status values.
const (
	RSVPPending   = "pending"
	RSVPConfirmed = "confirmed"
	RSVPDeclined  = "declined"
	RSVPMaybe     = "maybe"
)

// RSVPStatuses lists every accepted RSVP status.
var RSVPStatuses = []string{RSVPPending, RSVPConfirmed, RSVPDeclined, RSVPMaybe}

// ValidRSVPStatus reports whether s is an accepted RSVP status.
func ValidRSVPStatus(s string) bool {
	for _, v := range RSVPStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Relationship types between two guests.
const (
	RelationshipSpouse    = "spouse"
	RelationshipChild     = "child"
	RelationshipParent    = "parent"
	RelationshipSibling   = "sibling"
	RelationshipFriend    = "friend"
	RelationshipColleague = "colleague"
	RelationshipOther     = "other"
)

// RelationshipTypes lists every accepted relationship type.
var RelationshipTypes = []string{
	RelationshipSpouse, RelationshipChild, RelationshipParent,
	RelationshipSibling, RelationshipFriend, RelationshipColleague,
	RelationshipOther,
}

// ValidRelationshipType reports whether s is an accepted relationship type.
func ValidRelationshipType(s string) bool {
	for _, v := range RelationshipTypes {
		if s == v {
			return true
		}
	}
	return false
}

// Phone type values.
const (
	PhoneTypeMobile = "mobile"
	PhoneTypeHome   = "home"
	PhoneTypeWork   = "work"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task status values.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

// =============================================================================
// Plans
// =============================================================================

// CategorySummary is the joined category slice returned with plan listings.
type CategorySummary struct {
	Name string  `json:"name"`
	Icon *string `json:"icon,omitempty"`
}

// Plan is an event being organized by a user.
type Plan struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	EventDate   time.Time `json:"event_date"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty"`
	CategoryID  *int      `json:"category_id,omitempty"`
	Budget      *float64  `json:"budget,omitempty"`
	GuestCount  int       `json:"guest_count"`
	Status      string    `json:"status"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Populated only on listings that join event_categories.
	Category *CategorySummary `json:"event_categories,omitempty"`
}

// PlanCreate is the insert payload for a plan. Nil optionals are omitted so
// the backend applies its column defaults.
type PlanCreate struct {
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	EventDate   time.Time `json:"event_date"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty"`
	CategoryID  *int      `json:"category_id,omitempty"`
	Budget      *float64  `json:"budget,omitempty"`
	GuestCount  int       `json:"guest_count"`
	Status      string    `json:"status"`
	IsPublic    bool      `json:"is_public"`
}

// PlanUpdate is a partial update; nil fields are left untouched.
type PlanUpdate struct {
	Title       *string    `json:"title,omitempty"`
	EventDate   *time.Time `json:"event_date,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	CategoryID  *int       `json:"category_id,omitempty"`
	Budget      *float64   `json:"budget,omitempty"`
	GuestCount  *int       `json:"guest_count,omitempty"`
	Status      *string    `json:"status,omitempty"`
	IsPublic    *bool      `json:"is_public,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// =============================================================================
// Guests
// =============================================================================

// Guest is a person invited to a plan, with RSVP tracking.
type Guest struct {
	ID               string     `json:"id"`
	PlanID           string     `json:"plan_id"`
	Name             string     `json:"name"`
	Email            *string    `json:"email,omitempty"`
	Phone            *string    `json:"phone,omitempty"` // legacy single-phone field
	RSVPStatus       string     `json:"rsvp_status"`
	IsInvitationSent bool       `json:"is_invitation_sent"`
	InvitationSentAt *time.Time `json:"invitation_sent_at,omitempty"`
	AdditionalNotes  *string    `json:"additional_notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Attached from guest_phones, never stored on the guests row.
	PhoneNumbers []GuestPhone `json:"phone_numbers"`
}

// GuestPhone is one phone number belonging to a guest.
type GuestPhone struct {
	ID          string    `json:"id"`
	GuestID     string    `json:"guest_id"`
	PhoneNumber string    `json:"phone_number"`
	PhoneType   string    `json:"phone_type"`
	IsPrimary   bool      `json:"is_primary"`
	CreatedAt   time.Time `json:"created_at"`
}

// PhoneInput is the caller-facing shape of one phone entry.
type PhoneInput struct {
	Number    string `json:"number"`
	Type      string `json:"type,omitempty"`
	IsPrimary bool   `json:"is_primary,omitempty"`
}

// GuestCreate is the insert payload for a guest row.
type GuestCreate struct {
	PlanID          string  `json:"plan_id"`
	Name            string  `json:"name"`
	Email           *string `json:"email,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	RSVPStatus      string  `json:"rsvp_status"`
	AdditionalNotes *string `json:"additional_notes,omitempty"`
}

// GuestUpdate is a partial update; nil fields are left untouched.
type GuestUpdate struct {
	Name             *string    `json:"name,omitempty"`
	Email            *string    `json:"email,omitempty"`
	Phone            *string    `json:"phone,omitempty"`
	RSVPStatus       *string    `json:"rsvp_status,omitempty"`
	IsInvitationSent *bool      `json:"is_invitation_sent,omitempty"`
	InvitationSentAt *time.Time `json:"invitation_sent_at,omitempty"`
	AdditionalNotes  *string    `json:"additional_notes,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// guestPhoneCreate is the insert payload for a phone row.
type guestPhoneCreate struct {
	GuestID     string `json:"guest_id"`
	PhoneNumber string `json:"phone_number"`
	PhoneType   string `json:"phone_type"`
	IsPrimary   bool   `json:"is_primary"`
}

// =============================================================================
// Relationships
// =============================================================================

// GuestRelationship links two guests of the same plan. Directional
// (primary -> related) but queried from both ends.
type GuestRelationship struct {
	ID               string    `json:"id"`
	PlanID           string    `json:"plan_id"`
	PrimaryGuestID   string    `json:"primary_guest_id"`
	RelatedGuestID   string    `json:"related_guest_id"`
	RelationshipType string    `json:"relationship_type"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// RelationshipCreate is the insert payload for a relationship.
type RelationshipCreate struct {
	PlanID           string  `json:"plan_id"`
	PrimaryGuestID   string  `json:"primary_guest_id"`
	RelatedGuestID   string  `json:"related_guest_id"`
	RelationshipType string  `json:"relationship_type"`
	Notes            *string `json:"notes,omitempty"`
}

// =============================================================================
// Tasks
// =============================================================================

// EventTask is one action item attached to a plan.
type EventTask struct {
	ID          string     `json:"id"`
	PlanID      string     `json:"plan_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskCreate is the insert payload for a task.
type TaskCreate struct {
	PlanID      string     `json:"plan_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
}

// TaskUpdate is a partial update; nil fields are left untouched.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Status      *string    `json:"status,omitempty"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// =============================================================================
// Categories
// =============================================================================

// EventCategory is global, read-only reference data.
type EventCategory struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryCreate is the insert payload used by the seeder.
type CategoryCreate struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
}
