// Package sqlite provides SQLite implementations of store.ThingStore and
// task.ResultStore on the CGO-free modernc.org/sqlite driver. It backs local
// development and the test suites.
package sqlite
