package models

// Identity is the authenticated session as reported by the identity provider.
// UID is opaque; the profile fields are optional.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}
