package crypto

import "runtime"

// Wipe overwrites b with zeros. Secret scalars and derived keys pass through
// short-lived buffers all over this package; callers wipe each one as soon
// as its copy is no longer needed. The noinline pragma plus KeepAlive keep
// the stores from being optimized out, though once the runtime has copied
// the backing array there is no hard guarantee.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
