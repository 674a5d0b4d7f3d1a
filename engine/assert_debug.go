//go:build debug

package engine

func invariant(ok bool, msg string) {
	if !ok {
		panic("engine: " + msg)
	}
}
