package models

import (
	"strings"

	apperrors "gharkharcha/internal/errors"
)

// MemberRole distinguishes adults from children in the household.
type MemberRole string

const (
	RoleAdult MemberRole = "adult"
	RoleChild MemberRole = "child"
)

// Valid reports whether r is a known role.
func (r MemberRole) Valid() bool {
	return r == RoleAdult || r == RoleChild
}

// FamilyMember is a household member expenses can be attributed to. Members
// carry no audit timestamps.
type FamilyMember struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Role      MemberRole `json:"role"`
	AvatarURL string     `json:"avatar_url,omitempty"`
}

// FamilyMemberInput is the payload for a new family member.
type FamilyMemberInput struct {
	Name      string     `json:"name"`
	Role      MemberRole `json:"role"`
	AvatarURL string     `json:"avatar_url,omitempty"`
}

func (in *FamilyMemberInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)
}

func (in FamilyMemberInput) Validate() error {
	if in.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if !in.Role.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "role must be adult or child")
	}
	return nil
}

// FamilyMemberUpdate carries a partial member change.
type FamilyMemberUpdate struct {
	Name      *string     `json:"name,omitempty"`
	Role      *MemberRole `json:"role,omitempty"`
	AvatarURL *string     `json:"avatar_url,omitempty"`
}

func (u *FamilyMemberUpdate) Normalize() {
	if u.Name != nil {
		n := strings.TrimSpace(*u.Name)
		u.Name = &n
	}
	if u.AvatarURL != nil {
		a := strings.TrimSpace(*u.AvatarURL)
		u.AvatarURL = &a
	}
}

func (u FamilyMemberUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "name cannot be empty")
	}
	if u.Role != nil && !u.Role.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "role must be adult or child")
	}
	return nil
}

func (u FamilyMemberUpdate) Empty() bool {
	return u.Name == nil && u.Role == nil && u.AvatarURL == nil
}
