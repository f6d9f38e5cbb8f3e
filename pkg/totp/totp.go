// Package totp implements time-based one-time passwords in the style of
// RFC 6238 as a thin temporal layer over the hotp engine.
//
// Wall-clock time is first rounded: t' = (t - t0) / step, with t0 an epoch
// offset and step the password lifetime (30 or 60 seconds recommended). The
// rounded time is reinterpreted as an event counter modulo 2^64; TimeMax is
// a reserved sentinel and never a legitimate rounded time. Unlike hotp, no
// caller-owned counter is threaded through the calls — the timestamp is the
// moving input, and verification searches a bounded window around it.
//
// The two-tier contract matches hotp: State/Start/Step* are unchecked and
// allocation-free, Gen/Verify validate and report sentinel errors, and a
// verification miss is a normal (false, nil) outcome.
package totp

import (
	"encoding/binary"
	"errors"
	"time"
	"unsafe"

	"github.com/jeremyhahn/go-otpkit/pkg/hotp"
	"github.com/jeremyhahn/go-otpkit/pkg/keyed"
)

const (
	// MinDigits and MaxDigits bound the password length.
	MinDigits = hotp.MinDigits
	MaxDigits = hotp.MaxDigits

	// MaxWindow is the largest backward or forward attempt bound Verify
	// accepts. As with hotp.MaxAttempts this is a contract value.
	MaxWindow = 4

	// TimeMax is the reserved rounded-time sentinel. RoundTime returns it
	// for unrepresentable inputs; it is never a valid timestamp.
	TimeMax = ^uint64(0)
)

// Errors returned by the high-level functions.
var (
	// ErrBadParams indicates a digit count, window bound or capability
	// outside the documented ranges, or the TimeMax sentinel.
	ErrBadParams = errors.New("totp: bad parameters")
	// ErrBadPassword indicates a password that is not 6 to 8 decimal digits.
	ErrBadPassword = errors.New("totp: malformed password")
)

// State is the TOTP engine state: an embedded hotp engine plus the counter
// scratch the timestamp is mapped through. The same value semantics apply:
// assignment snapshots the engine, distinct copies are independent.
type State struct {
	hotp hotp.State
	ctr  [hotp.CounterLen]byte
}

// Keep returns the state footprint in octets.
func Keep() int {
	return int(unsafe.Sizeof(State{}))
}

// Start initializes the engine with key under the default capability.
// A 32 octet key is recommended.
func (s *State) Start(key []byte) {
	s.hotp.Start(key)
}

// StartHash initializes the engine with key under an explicit capability.
func (s *State) StartHash(fn keyed.Hash, key []byte) {
	s.hotp.StartHash(fn, key)
}

// StepGen derives the password for rounded time t into otp. The password
// length is len(otp). No counter movement is visible to the caller.
//
// Unchecked preconditions: Start was called, MinDigits <= len(otp) <=
// MaxDigits, t != TimeMax.
func (s *State) StepGen(otp []byte, t uint64) {
	binary.BigEndian.PutUint64(s.ctr[:], t)
	s.hotp.StepGen(otp, &s.ctr)
}

// StepVerify compares otp against the passwords at timestamps t+i for i in
// the order 0, -1, +1, -2, +2, ... clipped to backward and forward, each
// taken modulo 2^64. It reports whether any probe matched.
//
// Unchecked preconditions: Start was called, otp is MinDigits to MaxDigits
// decimal characters, t != TimeMax, backward >= 0, forward >= 0.
func (s *State) StepVerify(otp string, t uint64, backward, forward int) bool {
	if s.probe(otp, t) {
		return true
	}
	max := backward
	if forward > max {
		max = forward
	}
	for k := 1; k <= max; k++ {
		if k <= backward && s.probe(otp, t-uint64(k)) {
			return true
		}
		if k <= forward && s.probe(otp, t+uint64(k)) {
			return true
		}
	}
	return false
}

func (s *State) probe(otp string, t uint64) bool {
	binary.BigEndian.PutUint64(s.ctr[:], t)
	return s.hotp.StepVerify(otp, &s.ctr, 0)
}

// RoundTime rounds a wall-clock instant to the counter (t - t0) / step.
// It returns TimeMax when t precedes t0 or step is shorter than a second,
// so the sentinel is never produced by a representable input.
func RoundTime(t time.Time, t0 int64, step time.Duration) uint64 {
	sec := int64(step / time.Second)
	if sec <= 0 {
		return TimeMax
	}
	u := t.Unix()
	if u < t0 {
		return TimeMax
	}
	return uint64(u-t0) / uint64(sec)
}

// Now returns the current rounded time for the given epoch offset and step.
func Now(t0 int64, step time.Duration) uint64 {
	return RoundTime(time.Now(), t0, step)
}

// Gen generates a digits-long password for rounded time t under the default
// capability. See GenHash.
func Gen(digits int, key []byte, t uint64) (string, error) {
	return GenHash(keyed.Default(), digits, key, t)
}

// GenHash validates its inputs, runs a transient engine and returns the
// password for rounded time t.
//
// Failures: ErrBadParams if fn is nil, digits is outside [MinDigits,
// MaxDigits] or t is the TimeMax sentinel.
func GenHash(fn keyed.Hash, digits int, key []byte, t uint64) (string, error) {
	if fn == nil || digits < MinDigits || digits > MaxDigits || t == TimeMax {
		return "", ErrBadParams
	}

	var st State
	defer func() { st = State{} }()

	st.StartHash(fn, key)
	var otp [MaxDigits]byte
	st.StepGen(otp[:digits], t)
	return string(otp[:digits]), nil
}

// Verify verifies otp under the default capability. See VerifyHash.
func Verify(otp string, key []byte, t uint64, backward, forward int) (bool, error) {
	return VerifyHash(keyed.Default(), otp, key, t, backward, forward)
}

// VerifyHash validates its inputs, runs a transient engine and probes the
// window of timestamps centered at t. A miss is a normal (false, nil)
// outcome.
//
// Failures: ErrBadParams if fn is nil, a window bound is outside
// [0, MaxWindow] or t is the TimeMax sentinel; ErrBadPassword if otp is not
// 6 to 8 decimal digits.
func VerifyHash(fn keyed.Hash, otp string, key []byte, t uint64, backward, forward int) (bool, error) {
	if fn == nil || t == TimeMax ||
		backward < 0 || backward > MaxWindow ||
		forward < 0 || forward > MaxWindow {
		return false, ErrBadParams
	}
	if !hotp.Decimal(otp) {
		return false, ErrBadPassword
	}

	var st State
	defer func() { st = State{} }()

	st.StartHash(fn, key)
	return st.StepVerify(otp, t, backward, forward), nil
}
