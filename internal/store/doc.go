// Package store defines the persistence contracts of the service and the
// error values every implementation reports. Concrete implementations live
// under internal/platform (postgres, sqlite).
package store
