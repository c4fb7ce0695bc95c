// Package store defines the persistence interfaces for users and tasks,
// the shared pagination query object, and the sentinel errors the rest of
// the application checks with errors.Is. Concrete implementations live in
// internal/platform/postgres.
package store
