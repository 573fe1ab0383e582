// Package domain contains the core entities of the zero service (Thing and
// Baz) and the pure operations on them, such as the mutation applied by
// background tasks. It is independent of any storage or delivery mechanism.
package domain
