package store

import (
	"context"
	"fmt"
	"time"
)

// CreateGuest inserts the guest row, batch-inserts any supplied phone
// entries, then re-fetches by id so the returned guest always carries its
// phone list.
func (r *Repository) CreateGuest(ctx context.Context, create GuestCreate, phones []PhoneInput) (*Guest, error) {
	if err := ValidateID(create.PlanID); err != nil {
		return nil, err
	}
	if create.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if create.RSVPStatus == "" {
		create.RSVPStatus = RSVPPending
	}
	if !ValidRSVPStatus(create.RSVPStatus) {
		return nil, fmt.Errorf("%w: invalid rsvp_status %q", ErrInvalidInput, create.RSVPStatus)
	}

	var guests []Guest
	err := r.client.Database().From(GuestsTable).
		Insert(create).
		ExecuteInto(ctx, &guests)
	if err != nil {
		return nil, fmt.Errorf("%w: create guest: %v", ErrDatabaseError, err)
	}
	if len(guests) == 0 {
		return nil, fmt.Errorf("%w: create guest returned no rows", ErrDatabaseError)
	}

	if len(phones) > 0 {
		if _, err := r.AddPhoneNumbers(ctx, guests[0].ID, phones); err != nil {
			return nil, err
		}
	}

	return r.GetGuest(ctx, guests[0].ID)
}

// AddPhoneNumbers batch-inserts phone entries for a guest and returns the
// created rows.
func (r *Repository) AddPhoneNumbers(ctx context.Context, guestID string, phones []PhoneInput) ([]GuestPhone, error) {
	if err := ValidateID(guestID); err != nil {
		return nil, err
	}
	if len(phones) == 0 {
		return nil, fmt.Errorf("%w: no phone entries provided", ErrInvalidInput)
	}

	rows := make([]guestPhoneCreate, 0, len(phones))
	for _, p := range phones {
		if p.Number == "" {
			return nil, fmt.Errorf("%w: phone entry missing number", ErrInvalidInput)
		}
		phoneType := p.Type
		if phoneType == "" {
			phoneType = PhoneTypeMobile
		}
		rows = append(rows, guestPhoneCreate{
			GuestID:     guestID,
			PhoneNumber: p.Number,
			PhoneType:   phoneType,
			IsPrimary:   p.IsPrimary,
		})
	}

	var created []GuestPhone
	err := r.client.Database().From(GuestPhonesTable).
		Insert(rows).
		ExecuteInto(ctx, &created)
	if err != nil {
		return nil, fmt.Errorf("%w: add phone numbers: %v", ErrDatabaseError, err)
	}
	return created, nil
}

// GetGuest retrieves a guest by id with all phone numbers attached.
func (r *Repository) GetGuest(ctx context.Context, guestID string) (*Guest, error) {
	if err := ValidateID(guestID); err != nil {
		return nil, err
	}

	var guests []Guest
	err := r.client.Database().From(GuestsTable).
		Select("*").
		Eq("id", guestID).
		Limit(1).
		ExecuteInto(ctx, &guests)
	if err != nil {
		return nil, fmt.Errorf("%w: get guest: %v", ErrDatabaseError, err)
	}
	if len(guests) == 0 {
		return nil, NewNotFoundError("guest", guestID)
	}

	guest := guests[0]
	var phones []GuestPhone
	err = r.client.Database().From(GuestPhonesTable).
		Select("*").
		Eq("guest_id", guestID).
		ExecuteInto(ctx, &phones)
	if err != nil {
		return nil, fmt.Errorf("%w: get guest phones: %v", ErrDatabaseError, err)
	}
	guest.PhoneNumbers = phones
	if guest.PhoneNumbers == nil {
		guest.PhoneNumbers = []GuestPhone{}
	}
	return &guest, nil
}

// ListPlanGuests returns all guests of a plan. Phones for every guest are
// fetched in one batched query and grouped in memory, avoiding a phone query
// per guest.
func (r *Repository) ListPlanGuests(ctx context.Context, planID string) ([]Guest, error) {
	if err := ValidateID(planID); err != nil {
		return nil, err
	}

	var guests []Guest
	err := r.client.Database().From(GuestsTable).
		Select("*").
		Eq("plan_id", planID).
		ExecuteInto(ctx, &guests)
	if err != nil {
		return nil, fmt.Errorf("%w: list plan guests: %v", ErrDatabaseError, err)
	}
	if len(guests) == 0 {
		return []Guest{}, nil
	}

	ids := make([]string, 0, len(guests))
	for _, g := range guests {
		ids = append(ids, g.ID)
	}

	if err := r.attachPhones(ctx, guests, ids); err != nil {
		return nil, err
	}
	return guests, nil
}

// attachPhones fetches phones for all ids in one query and assigns each
// guest its subset.
func (r *Repository) attachPhones(ctx context.Context, guests []Guest, guestIDs []string) error {
	var phones []GuestPhone
	err := r.client.Database().From(GuestPhonesTable).
		Select("*").
		In("guest_id", guestIDs).
		ExecuteInto(ctx, &phones)
	if err != nil {
		return fmt.Errorf("%w: list guest phones: %v", ErrDatabaseError, err)
	}

	byGuest := make(map[string][]GuestPhone, len(guests))
	for _, p := range phones {
		byGuest[p.GuestID] = append(byGuest[p.GuestID], p)
	}
	for i := range guests {
		guests[i].PhoneNumbers = byGuest[guests[i].ID]
		if guests[i].PhoneNumbers == nil {
			guests[i].PhoneNumbers = []GuestPhone{}
		}
	}
	return nil
}

// UpdateGuest applies a partial update, stamping updated_at, and returns the
// complete post-update guest including phones.
func (r *Repository) UpdateGuest(ctx context.Context, guestID string, update GuestUpdate) (*Guest, error) {
	if err := ValidateID(guestID); err != nil {
		return nil, err
	}
	if update.RSVPStatus != nil && !ValidRSVPStatus(*update.RSVPStatus) {
		return nil, fmt.Errorf("%w: invalid rsvp_status %q", ErrInvalidInput, *update.RSVPStatus)
	}

	now := time.Now().UTC()
	update.UpdatedAt = &now

	var guests []Guest
	err := r.client.Database().From(GuestsTable).
		Update(update).
		Eq("id", guestID).
		ExecuteInto(ctx, &guests)
	if err != nil {
		return nil, fmt.Errorf("%w: update guest: %v", ErrDatabaseError, err)
	}
	if len(guests) == 0 {
		return nil, NewNotFoundError("guest", guestID)
	}
	return r.GetGuest(ctx, guestID)
}

// UpdateRSVP sets a guest's RSVP status.
func (r *Repository) UpdateRSVP(ctx context.Context, guestID, rsvpStatus string) (*Guest, error) {
	if !ValidRSVPStatus(rsvpStatus) {
		return nil, fmt.Errorf("%w: invalid rsvp_status %q", ErrInvalidInput, rsvpStatus)
	}
	return r.UpdateGuest(ctx, guestID, GuestUpdate{RSVPStatus: &rsvpStatus})
}

// MarkInvitationSent flags the invitation as sent with a server timestamp.
func (r *Repository) MarkInvitationSent(ctx context.Context, guestID string) (*Guest, error) {
	sent := true
	now := time.Now().UTC()
	return r.UpdateGuest(ctx, guestID, GuestUpdate{
		IsInvitationSent: &sent,
		InvitationSentAt: &now,
	})
}

// DeleteGuest hard-deletes a guest; phone rows cascade at the storage layer.
func (r *Repository) DeleteGuest(ctx context.Context, guestID string) error {
	if err := ValidateID(guestID); err != nil {
		return err
	}

	var deleted []Guest
	err := r.client.Database().From(GuestsTable).
		Delete().
		Eq("id", guestID).
		ExecuteInto(ctx, &deleted)
	if err != nil {
		return fmt.Errorf("%w: delete guest: %v", ErrDatabaseError, err)
	}
	if len(deleted) == 0 {
		return NewNotFoundError("guest", guestID)
	}
	return nil
}

// SearchByPhone resolves a phone number to its guests. Matching guests and
// their full phone lists are each fetched with a single batched query.
func (r *Repository) SearchByPhone(ctx context.Context, phoneNumber string) ([]Guest, error) {
	if phoneNumber == "" {
		return nil, fmt.Errorf("%w: phone number cannot be empty", ErrInvalidInput)
	}

	var matches []GuestPhone
	err := r.client.Database().From(GuestPhonesTable).
		Select("guest_id").
		Eq("phone_number", phoneNumber).
		ExecuteInto(ctx, &matches)
	if err != nil {
		return nil, fmt.Errorf("%w: search by phone: %v", ErrDatabaseError, err)
	}
	if len(matches) == 0 {
		return []Guest{}, nil
	}

	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.GuestID]; ok {
			continue
		}
		seen[m.GuestID] = struct{}{}
		ids = append(ids, m.GuestID)
	}

	var guests []Guest
	err = r.client.Database().From(GuestsTable).
		Select("*").
		In("id", ids).
		ExecuteInto(ctx, &guests)
	if err != nil {
		return nil, fmt.Errorf("%w: search by phone: %v", ErrDatabaseError, err)
	}

	if err := r.attachPhones(ctx, guests, ids); err != nil {
		return nil, err
	}
	return guests, nil
}
