// Package service contains the application use cases behind the HTTP API.
// It coordinates the thing store and the task runner, translates storage
// errors into service sentinels, and never blocks a caller on background
// work.
//
// Services receive their dependencies through constructor injection and
// depend only on interfaces declared in store and here, never on a concrete
// database or broker.
package service
