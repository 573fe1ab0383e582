package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxThingNameLength is the longest name a Thing can carry.
const MaxThingNameLength = 255

// Validation errors for Thing.
var (
	ErrEmptyThingName   = errors.New("thing name cannot be empty")
	ErrThingNameTooLong = fmt.Errorf("thing name cannot exceed %d characters", MaxThingNameLength)
)

// Thing is the persisted record that clients create, read, and mutate.
//
// An ID of zero means the Thing has never been persisted; the store assigns
// the ID exactly once, on creation.
type Thing struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
}

// NewThing creates an unpersisted Thing named name, created now.
func NewThing(name string) (Thing, error) {
	t := Thing{
		Name:    name,
		Created: time.Now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return Thing{}, err
	}
	return t, nil
}

// IsPersisted reports whether the Thing has been assigned an ID by a store.
func (t Thing) IsPersisted() bool {
	return t.ID != 0
}

// Validate checks the Thing's fields, ignoring persistence state.
func (t Thing) Validate() error {
	if t.Name == "" {
		return NewValidationError("name", "is required", ErrEmptyThingName)
	}
	if utf8.RuneCountInString(t.Name) > MaxThingNameLength {
		return NewValidationError("name", "is too long", ErrThingNameTooLong)
	}
	return nil
}
