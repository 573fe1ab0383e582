// Package ciutil detects CI environments and locates the external services
// that integration tests may use there.
package ciutil
