package services

import (
	"context"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/store"
)

// AddFamilyMember stores a new member. Members carry no audit timestamps.
func (m *Manager) AddFamilyMember(ctx context.Context, in models.FamilyMemberInput) (string, error) {
	uid, ok := m.owner()
	if !ok {
		return "", nil
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return "", err
	}

	id, err := m.store.Add(store.WithOwner(ctx, uid), store.FamilyMembers, familyMemberFields(uid, in))
	if err != nil {
		return "", m.storeError("add family member", err, apperrors.ErrFamilyMemberNotFound)
	}
	return id, nil
}

func (m *Manager) UpdateFamilyMember(ctx context.Context, id string, u models.FamilyMemberUpdate) error {
	uid, ok := m.owner()
	if !ok {
		return nil
	}
	u.Normalize()
	if err := u.Validate(); err != nil {
		return err
	}
	if u.Empty() {
		return nil
	}

	if err := m.store.Update(store.WithOwner(ctx, uid), store.FamilyMembers, id, familyMemberUpdateFields(u)); err != nil {
		return m.storeError("update family member", err, apperrors.ErrFamilyMemberNotFound)
	}
	return nil
}

// DeleteFamilyMember removes a member. Expenses attributed to the member are
// left alone and resolve to an unknown member from then on.
func (m *Manager) DeleteFamilyMember(ctx context.Context, id string) error {
	uid, ok := m.owner()
	if !ok {
		return nil
	}
	if err := m.store.Delete(store.WithOwner(ctx, uid), store.FamilyMembers, id); err != nil {
		return m.storeError("delete family member", err, apperrors.ErrFamilyMemberNotFound)
	}
	return nil
}
