// Package hotp implements event-counter one-time passwords in the style of
// RFC 4226, over the module's keyed-hash capability.
//
// The package exposes two tiers over one core. The low-level tier — State
// with Start, StepGen and StepVerify — performs no input validation and no
// per-step work beyond the MAC computation itself; it is meant for tight
// loops and for callers that pin state into constrained memory. The high-level tier — Gen and
// Verify — validates every input, owns a transient State internally and
// reports failures through a small set of sentinel errors.
//
// The 8 octet counter is big-endian, interpreted modulo 2^64, and owned by
// the caller: generation and successful verification advance it in place,
// while a failed verification leaves it bit-for-bit unchanged.
//
// # Generating and verifying
//
//	key := make([]byte, 32) // shared secret
//	var ctr [hotp.CounterLen]byte
//
//	code, err := hotp.Gen(6, key, &ctr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// The verifier holds its own counter copy; attempts bounds how far
//	// ahead of it the prover may have drifted.
//	var verifierCtr [hotp.CounterLen]byte
//	ok, err := hotp.Verify(code, key, &verifierCtr, 3)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !ok {
//	    log.Print("password rejected")
//	}
//
// # Low-level use
//
// A State is a plain value: copy it by assignment to snapshot a verifier
// position, embed it in larger state, or move it between memory locations.
// Each copy steps independently. Concurrent use of a single State must be
// serialized by the caller; distinct States need no synchronization.
//
//	var st hotp.State
//	st.Start(key)
//	buf := make([]byte, 6)
//	for i := 0; i < n; i++ {
//	    st.StepGen(buf, &ctr) // no validation
//	    consume(buf)
//	}
//
// Zeroizing state and counters after use is the caller's responsibility.
package hotp
