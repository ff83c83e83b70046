// Package scoped provides ownership-scoped repositories over entity stores.
//
// A Repository wraps a Store and transparently enforces per-user row
// ownership: reads are filtered to rows the caller created, writes are gated
// behind ownership checks, and super-admins bypass scoping entirely. Entities
// without an owner column opt out automatically; whether an entity
// participates is decided once, at repository construction, from its Schema.
//
// The package deliberately owns four small concerns so calling services never
// re-implement them:
//
//   - resolving who is asking (Context, read from request-scoped values)
//   - deciding whether the entity is ownable (Ownership descriptor)
//   - normalizing heterogeneous criteria into one filter shape (Criteria)
//   - expanding dotted relation paths into deduplicated join steps
//
// Stores come in pairs, in-memory for unit tests and PostgreSQL for real use,
// both driven by the same Schema metadata.
package scoped
