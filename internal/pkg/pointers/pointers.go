// Package pointers has the pointer-literal helpers used when filling
// optional struct fields in tests and fixtures.
package pointers

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Typed aliases for the common cases; they read better than Ptr[float64]
// at call sites.
func Float64(v float64) *float64 { return &v }
func Int(v int) *int             { return &v }
func String(v string) *string    { return &v }
