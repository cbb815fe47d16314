package nixbase

import (
	"github.com/google/uuid"
)

const idLen = 36

// CreateID returns a fresh random entity id.
func CreateID() string {
	return uuid.New().String()
}

// LooksLikeID decides whether a name-or-id argument is an id.
func LooksLikeID(s string) bool {
	if len(s) != idLen {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
