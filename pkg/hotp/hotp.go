package hotp

import (
	"encoding/binary"
	"errors"
	"unsafe"

	"github.com/jeremyhahn/go-otpkit/internal/alias"
	"github.com/jeremyhahn/go-otpkit/pkg/keyed"
)

const (
	// MinDigits and MaxDigits bound the password length.
	MinDigits = 6
	MaxDigits = 8

	// MaxAttempts is the largest resynchronization attempt count Verify
	// accepts. The bound keeps the worst-case guessing probability in
	// check for 6 to 8 digit passwords; it is a contract value, not a
	// derived one.
	MaxAttempts = 9

	// CounterLen is the size of the event counter in octets.
	CounterLen = 8
)

// Errors returned by the high-level functions.
var (
	// ErrBadParams indicates a digit count, attempt bound or capability
	// outside the documented ranges.
	ErrBadParams = errors.New("hotp: bad parameters")
	// ErrBadInput indicates that buffers required to be distinct overlap.
	ErrBadInput = errors.New("hotp: overlapping buffers")
	// ErrBadPassword indicates a password that is not 6 to 8 decimal digits.
	ErrBadPassword = errors.New("hotp: malformed password")
)

// pow10[i] = 10^(MinDigits+i), the modulus for each permitted digit count.
var pow10 = [MaxDigits - MinDigits + 1]uint32{1_000_000, 10_000_000, 100_000_000}

// State is the HOTP engine state: the expanded MAC key plus per-step
// scratch. It is a plain value with no shared mutable internals: assigning
// it snapshots the engine, and distinct copies may be used concurrently.
// The zero State is not usable until Start.
type State struct {
	mac  keyed.State
	tag  [keyed.TagSize]byte
	pass [MaxDigits]byte
}

// Keep returns the state footprint in octets, for callers budgeting
// constrained or pooled memory.
func Keep() int {
	return int(unsafe.Sizeof(State{}))
}

// Start initializes the engine with key under the default capability.
// A 32 octet key is recommended.
func (s *State) Start(key []byte) {
	s.StartHash(keyed.Default(), key)
}

// StartHash initializes the engine with key under an explicit keyed-hash
// capability. Unchecked: fn must be a valid capability.
func (s *State) StartHash(fn keyed.Hash, key []byte) {
	s.mac.Start(fn, key)
}

// StepGen derives the password for ctr into otp and then increments ctr in
// place modulo 2^64, wrapping silently. The password length is len(otp).
//
// Unchecked preconditions: Start was called, MinDigits <= len(otp) <=
// MaxDigits, and otp does not alias ctr.
func (s *State) StepGen(otp []byte, ctr *[CounterLen]byte) {
	s.mac.Sum(&s.tag, ctr[:])
	derive(otp, &s.tag)
	Inc(ctr)
}

// StepVerify compares otp against the passwords at ctr, ctr+1, ...,
// ctr+attempts and reports whether one matched. On a match ctr is left one
// past the matching position, ready for the next password. On a miss ctr is
// restored to its original value.
//
// Unchecked preconditions: Start was called, otp is MinDigits to MaxDigits
// decimal characters, attempts >= 0.
func (s *State) StepVerify(otp string, ctr *[CounterLen]byte, attempts int) bool {
	saved := *ctr
	for i := 0; i <= attempts; i++ {
		s.mac.Sum(&s.tag, ctr[:])
		derive(s.pass[:len(otp)], &s.tag)
		Inc(ctr)
		var diff byte
		for j := 0; j < len(otp); j++ {
			diff |= s.pass[j] ^ otp[j]
		}
		if diff == 0 {
			return true
		}
	}
	*ctr = saved
	return false
}

// derive applies the dynamic truncation transform (RFC 4226 section 5.3,
// generalized to the tag width) and formats the result as len(otp) decimal
// characters with leading zeros.
func derive(otp []byte, tag *[keyed.TagSize]byte) {
	off := tag[keyed.TagSize-1] & 0x0f
	v := binary.BigEndian.Uint32(tag[off:off+4]) & 0x7fffffff
	v %= pow10[len(otp)-MinDigits]
	for i := len(otp) - 1; i >= 0; i-- {
		otp[i] = '0' + byte(v%10)
		v /= 10
	}
}

// Inc increments an 8 octet big-endian counter modulo 2^64.
func Inc(ctr *[CounterLen]byte) {
	for i := CounterLen - 1; i >= 0; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			return
		}
	}
}

// Gen generates a digits-long password for ctr under the default capability
// and increments ctr. See GenHash.
func Gen(digits int, key []byte, ctr *[CounterLen]byte) (string, error) {
	return GenHash(keyed.Default(), digits, key, ctr)
}

// GenHash validates its inputs, runs a transient engine and returns the
// password for ctr, incrementing ctr modulo 2^64 on success.
//
// Failures: ErrBadParams if fn is nil or digits is outside [MinDigits,
// MaxDigits]; ErrBadInput if key overlaps ctr.
func GenHash(fn keyed.Hash, digits int, key []byte, ctr *[CounterLen]byte) (string, error) {
	if fn == nil || digits < MinDigits || digits > MaxDigits {
		return "", ErrBadParams
	}
	if alias.AnyOverlap(key, ctr[:]) {
		return "", ErrBadInput
	}

	var st State
	defer func() { st = State{} }()

	st.StartHash(fn, key)
	var otp [MaxDigits]byte
	st.StepGen(otp[:digits], ctr)
	return string(otp[:digits]), nil
}

// Verify verifies otp under the default capability. See VerifyHash.
func Verify(otp string, key []byte, ctr *[CounterLen]byte, attempts int) (bool, error) {
	return VerifyHash(keyed.Default(), otp, key, ctr, attempts)
}

// VerifyHash validates its inputs, runs a transient engine and probes the
// passwords at ctr through ctr+attempts. It returns true with ctr advanced
// one past the matching position, or false with ctr untouched when no probe
// matches. A miss is a normal outcome, not an error.
//
// Failures: ErrBadParams if fn is nil or attempts is outside [0,
// MaxAttempts]; ErrBadPassword if otp is not 6 to 8 decimal digits;
// ErrBadInput if key overlaps ctr.
func VerifyHash(fn keyed.Hash, otp string, key []byte, ctr *[CounterLen]byte, attempts int) (bool, error) {
	if fn == nil || attempts < 0 || attempts > MaxAttempts {
		return false, ErrBadParams
	}
	if !Decimal(otp) {
		return false, ErrBadPassword
	}
	if alias.AnyOverlap(key, ctr[:]) {
		return false, ErrBadInput
	}

	var st State
	defer func() { st = State{} }()

	st.StartHash(fn, key)
	return st.StepVerify(otp, ctr, attempts), nil
}

// Decimal reports whether otp is a well-formed password: MinDigits to
// MaxDigits characters drawn from '0' through '9'.
func Decimal(otp string) bool {
	if len(otp) < MinDigits || len(otp) > MaxDigits {
		return false
	}
	for i := 0; i < len(otp); i++ {
		if otp[i] < '0' || otp[i] > '9' {
			return false
		}
	}
	return true
}
