package kv

import "context"

// DefaultPageSize is the number of keys requested per List page.
const DefaultPageSize = 100

// Page is one bounded page of keys returned by List.
type Page struct {
	// Keys are the keys in this page, in backend-defined order.
	Keys []string

	// Cursor is the continuation cursor for the next page.
	// Only meaningful when Complete is false.
	Cursor string

	// Complete indicates that the listing has reached the end of the
	// key space for the requested prefix.
	Complete bool
}

// Store is a string-keyed, string-valued store with prefix-scoped
// paginated listing. All meetgate state (meeting cache, stored tokens,
// alias index) lives behind this interface; backends are expected to be
// shared and eventually consistent, with last-write-wins semantics and
// no cross-key transactions.
type Store interface {
	// Get returns the value for key. The second return value is false
	// when the key does not exist; absence is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put stores value under key, overwriting any existing value.
	Put(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns one bounded page of keys starting with prefix.
	// Pass an empty cursor to start a new listing and the returned
	// Page.Cursor to continue it. Callers must iterate until
	// Page.Complete is true to see the full key space.
	List(ctx context.Context, prefix, cursor string) (Page, error)
}
