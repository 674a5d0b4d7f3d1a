//go:build !debug

package engine

// invariant is a no-op in release builds; build with -tags debug to panic on
// broken render invariants.
func invariant(bool, string) {}
