// Package kv provides the keyed store that backs all meetgate state.
//
// The Store interface models a flat string-to-string keyspace with
// prefix-scoped, cursor-paginated listing. Two backends are provided:
//
//   - ValkeyStore: the production backend, built on the Valkey SCAN
//     cursor protocol
//   - MemoryStore: an in-memory backend for tests and local development
//
// Key namespaces are owned by the packages that use them (meetings,
// tokens, alias) and are disjoint by construction, so a bulk operation
// on one prefix can never touch another package's data.
package kv
