// Package prng implements two deterministic pseudorandom generation
// mechanisms over the module's keyed-hash capability: CTR, which derives
// each 32 octet block from an incrementing synchronization value, and HMAC,
// which chains blocks through repeated keyed-hash derivation.
//
// Both mechanisms follow the module's two-tier shape. The low-level tier —
// CTR/HMAC values with Start, StepRand and (for CTR) StepGet — is unchecked
// and reuses its internal block buffers across calls. The high-level tier — Rand and HMACRand —
// validates buffer aliasing, owns a transient generator and, for CTR,
// writes the evolved synchronization value back to the caller.
//
// Determinism is the point: for a fixed key, the synchronization value
// selects the output stream, so each independent run under one key must use
// a fresh value. CTR supports that directly — after generating a whole
// number of blocks, StepGet yields a value distinct from all previously
// used ones:
//
//	var key [prng.KeySize]byte
//	var iv [prng.IVSize]byte // fresh per (key, run)
//
//	buf := make([]byte, 96)
//	if err := prng.Rand(buf, &key, &iv); err != nil {
//	    log.Fatal(err)
//	}
//	// iv now holds the evolved value; resume a later run from it.
//
// The CTR mechanism additionally folds the prior content of the output
// buffer into each freshly generated block, so callers can feed entropy or
// context into a running generator through the same buffer they read from.
// The HMAC mechanism is pure output over an arbitrary-length referenced
// synchronization value.
package prng
