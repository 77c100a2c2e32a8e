// Package storage turns a prepared image payload into a durably stored,
// publicly addressable object.
package storage

import (
	"context"
	"errors"
)

// Error categories surfaced to the submission flow. Transport and access
// problems are deliberately collapsed into this small closed set; the caller
// decides whether the user retries the whole submission.
var (
	// ErrObjectExists means an object with the requested name is already
	// stored. Overwrite is disabled on purpose so a name collision cannot
	// corrupt a prior report's image.
	ErrObjectExists = errors.New("object already exists")
	// ErrNetwork covers connection failures and timeouts.
	ErrNetwork = errors.New("network failure")
	// ErrStorageAccess covers misconfiguration and missing permissions on
	// the bucket.
	ErrStorageAccess = errors.New("storage not accessible")
)

// ObjectStore is the object storage collaborator.
type ObjectStore interface {
	// Put stores data under key with overwrite disabled; an existing object
	// yields ErrObjectExists.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// PublicURL returns the publicly resolvable URL for key.
	PublicURL(key string) string
	// Remove deletes the object. Used for report deletion and for the
	// compensating cleanup after a failed database insert.
	Remove(ctx context.Context, key string) error
}
