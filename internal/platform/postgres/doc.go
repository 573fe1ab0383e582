// Package postgres provides PostgreSQL implementations of store.ThingStore
// and task.ResultStore, along with the embedded schema migrations for them.
// Errors from the driver are classified into the store package's error
// values so callers never inspect driver types.
package postgres
