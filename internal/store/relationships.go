package store

import (
	"context"
	"fmt"
)

// CreateRelationship links two guests of a plan.
func (r *Repository) CreateRelationship(ctx context.Context, create RelationshipCreate) (*GuestRelationship, error) {
	if err := ValidateID(create.PlanID); err != nil {
		return nil, err
	}
	if err := ValidateID(create.PrimaryGuestID); err != nil {
		return nil, err
	}
	if err := ValidateID(create.RelatedGuestID); err != nil {
		return nil, err
	}
	if !ValidRelationshipType(create.RelationshipType) {
		return nil, fmt.Errorf("%w: invalid relationship_type %q", ErrInvalidInput, create.RelationshipType)
	}

	var rels []GuestRelationship
	err := r.client.Database().From(RelationshipsTable).
		Insert(create).
		ExecuteInto(ctx, &rels)
	if err != nil {
		return nil, fmt.Errorf("%w: create relationship: %v", ErrDatabaseError, err)
	}
	if len(rels) == 0 {
		return nil, fmt.Errorf("%w: create relationship returned no rows", ErrDatabaseError)
	}
	return &rels[0], nil
}

// ListGuestRelationships returns every relationship a guest takes part in,
// as primary and as related, concatenated in that order.
func (r *Repository) ListGuestRelationships(ctx context.Context, guestID string) ([]GuestRelationship, error) {
	if err := ValidateID(guestID); err != nil {
		return nil, err
	}

	var asPrimary []GuestRelationship
	err := r.client.Database().From(RelationshipsTable).
		Select("*").
		Eq("primary_guest_id", guestID).
		ExecuteInto(ctx, &asPrimary)
	if err != nil {
		return nil, fmt.Errorf("%w: list relationships: %v", ErrDatabaseError, err)
	}

	var asRelated []GuestRelationship
	err = r.client.Database().From(RelationshipsTable).
		Select("*").
		Eq("related_guest_id", guestID).
		ExecuteInto(ctx, &asRelated)
	if err != nil {
		return nil, fmt.Errorf("%w: list relationships: %v", ErrDatabaseError, err)
	}

	rels := make([]GuestRelationship, 0, len(asPrimary)+len(asRelated))
	rels = append(rels, asPrimary...)
	rels = append(rels, asRelated...)
	return rels, nil
}
