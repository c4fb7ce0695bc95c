// Package postgres provides PostgreSQL-specific implementations for the
// data storage interfaces defined in the internal/store package. It handles
// query execution and mapping between domain entities, database records,
// and the store package's sentinel errors.
package postgres
