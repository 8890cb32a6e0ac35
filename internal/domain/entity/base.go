package entity

import (
	"github.com/google/uuid"
)

// ID is a correlation identifier, used to stamp each admin HTTP request
// with a request id. Alerts themselves are never keyed by ID — their
// identity is the (Rule, Element) pair.
type ID = uuid.UUID

// NewID generates a new correlation identifier.
func NewID() ID {
	return uuid.New()
}

// ParseID parses a string representation into an ID.
func ParseID(s string) (ID, error) {
	return uuid.Parse(s)
}
