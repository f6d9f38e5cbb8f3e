package prng

import (
	"unsafe"

	"github.com/jeremyhahn/go-otpkit/internal/alias"
	"github.com/jeremyhahn/go-otpkit/pkg/keyed"
)

// HMAC is the MAC-derivation generator state. It chains an internal rolling
// tag r — r0 = MAC(key, iv), r = MAC(key, r) per block — and emits
// MAC(key, r || iv) blocks with the same drain-then-generate buffering as
// CTR. Output is pure: the prior content of buf is never consumed.
//
// Unlike CTR the synchronization value is referenced, not copied: the iv
// slice passed to Start must stay valid and unchanged for the lifetime of
// the instance, and it is neither evolved nor re-extractable. A copied HMAC
// value shares that reference but steps independently.
type HMAC struct {
	mac      keyed.State
	iv       []byte
	r        [keyed.TagSize]byte
	block    [BlockSize]byte
	reserved int
}

// HMACKeep returns the HMAC state footprint in octets.
func HMACKeep() int {
	return int(unsafe.Sizeof(HMAC{}))
}

// Start initializes MAC-derivation generation under the default capability.
// key and iv may have any length; a 32 octet key is recommended. Reusing a
// (key, iv) pair across runs regenerates identical output.
func (g *HMAC) Start(key, iv []byte) {
	g.StartHash(keyed.Default(), key, iv)
}

// StartHash initializes MAC-derivation generation under an explicit
// capability. Unchecked: fn must be a valid capability.
func (g *HMAC) StartHash(fn keyed.Hash, key, iv []byte) {
	g.mac.Start(fn, key)
	g.iv = iv
	g.mac.Sum(&g.r, iv)
	g.reserved = 0
}

// StepRand fills buf with generator output, draining the buffered tail of
// the previous block before deriving new ones.
//
// Unchecked precondition: Start was called.
func (g *HMAC) StepRand(buf []byte) {
	if g.reserved > 0 {
		n := copy(buf, g.block[BlockSize-g.reserved:])
		g.reserved -= n
		buf = buf[n:]
	}
	for len(buf) > 0 {
		g.mac.Sum(&g.r, g.r[:])
		g.mac.Sum(&g.block, g.r[:], g.iv)
		n := copy(buf, g.block[:])
		buf = buf[n:]
		if n < BlockSize {
			g.reserved = BlockSize - n
		}
	}
}

// HMACRand fills buf with MAC-derivation output under the default
// capability. See HMACRandHash.
func HMACRand(buf, key, iv []byte) error {
	return HMACRandHash(keyed.Default(), buf, key, iv)
}

// HMACRandHash validates its inputs and runs a transient generator.
//
// Failures: ErrBadParams if fn is nil; ErrBadInput if buf overlaps iv.
func HMACRandHash(fn keyed.Hash, buf, key, iv []byte) error {
	if fn == nil {
		return ErrBadParams
	}
	if alias.AnyOverlap(buf, iv) {
		return ErrBadInput
	}

	var g HMAC
	defer func() { g = HMAC{} }()

	g.StartHash(fn, key, iv)
	g.StepRand(buf)
	return nil
}
