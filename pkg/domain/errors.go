package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound reports a lookup of a UUID that is not in the store.
type ErrNotFound struct {
	Type ObjectType
	ID   uuid.UUID
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", humanType(e.Type), e.ID)
}

// ErrAlreadyExists reports an insert at a UUID that is already taken.
type ErrAlreadyExists struct {
	Type ObjectType
	ID   uuid.UUID
}

func (e ErrAlreadyExists) Error() string {
	return fmt.Sprintf("%s %q already exists", humanType(e.Type), e.ID)
}

// ErrReferenced reports a delete rejected because another entity still
// points at the target.
type ErrReferenced struct {
	Type   ObjectType
	ID     uuid.UUID
	ByType ObjectType
	ByID   uuid.UUID
}

func (e ErrReferenced) Error() string {
	return fmt.Sprintf("%s %q still referenced by %s %q", humanType(e.Type), e.ID, humanType(e.ByType), e.ByID)
}

func humanType(t ObjectType) string {
	if t == ObjectInvalid {
		return "object"
	}
	return strings.ReplaceAll(string(t), "_", " ")
}
