package record

import (
	"strings"

	"github.com/google/uuid"
)

// StudentIDPrefix prefixes ids derived from a national id.
const StudentIDPrefix = "HS"

// NewID returns a time-sortable UUIDv7 string for records created without
// an id.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// StudentID derives a student id from a national id. It returns "" when the
// national id is blank, in which case the caller keeps the id it has.
func StudentID(nationalID string) string {
	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return ""
	}
	return StudentIDPrefix + nationalID
}

// IDGenerator produces record ids. NewID backs the default implementation;
// tests substitute fixed sequences.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates ids with NewID.
type UUIDv7Generator struct{}

// Generate implements IDGenerator.
func (UUIDv7Generator) Generate() string {
	return NewID()
}
