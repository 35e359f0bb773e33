// Package store holds the record store sentinels and the Redis backed record store.
package store

import "errors"

var (
	// ErrDocumentExists is returned when a create targets an existing key.
	ErrDocumentExists = errors.New("document already exists")

	// ErrDocumentNotFound is returned when no record exists for an ID.
	ErrDocumentNotFound = errors.New("document not found")
)
