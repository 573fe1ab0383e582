// Package task manages background job queuing, processing, and lifecycle.
//
// A Runner accepts work items of registered types, records each one in a
// ResultStore as "sent" before it is queued, and hands it to a pool of worker
// goroutines. Callers poll the Runner for the outcome. Unfinished tasks are
// recovered when the Runner starts, so a restarted process never reports an
// issued task as unknown.
package task
