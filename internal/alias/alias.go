// Package alias reports whether byte slices share backing memory.
// It mirrors the shape of the standard library's crypto/internal/alias.
package alias

import "unsafe"

// AnyOverlap reports whether x and y share any memory at all, regardless of
// whether the corresponding indexes line up. An empty slice overlaps nothing.
func AnyOverlap(x, y []byte) bool {
	return len(x) > 0 && len(y) > 0 &&
		uintptr(unsafe.Pointer(&x[0])) <= uintptr(unsafe.Pointer(&y[len(y)-1])) &&
		uintptr(unsafe.Pointer(&y[0])) <= uintptr(unsafe.Pointer(&x[len(x)-1]))
}
