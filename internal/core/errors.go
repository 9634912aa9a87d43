package core

import (
	"errors"
	"fmt"
)

// ErrUnparseable marks a document that cannot be decoded at all. It is the only
// input error the pipeline reports; everything else is defaulted.
var ErrUnparseable = errors.New("unparseable family document")

// ErrNotFound is returned when a family key is not present in the store.
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("family %s not found", e.Key)
}

// ErrPersonNotFound is returned when a person id does not resolve within a family.
type ErrPersonNotFound struct {
	FamilyKey string
	PersonID  string
}

func (e ErrPersonNotFound) Error() string {
	return fmt.Sprintf("person %s not found in family %s", e.PersonID, e.FamilyKey)
}

// ErrCoreFamily is returned when an operation would delete a seed family.
// Seed families can only be hidden.
var ErrCoreFamily = errors.New("core family cannot be removed")

// ErrNoBlobStore is returned by photo uploads when no blob store is configured.
var ErrNoBlobStore = errors.New("no blob store configured")
