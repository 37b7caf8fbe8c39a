// Package uuid generates the document ids assigned by the record store and
// the request ids attached by the HTTP layer.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New generates a new UUIDv7. UUIDv7 ids are time-ordered, so documents added
// later sort after earlier ones when no other order applies.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Fallback to standard UUIDv4 if the clock or random source fails
		return googleuuid.New().String()
	}
	return id.String()
}

// Parse validates and canonicalises a UUID string.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
