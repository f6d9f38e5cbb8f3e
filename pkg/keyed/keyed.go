// Package keyed supplies the keyed-hash capability consumed by every
// mechanism in this module: an HMAC construction over a caller-chosen
// cryptographic hash with a 32 octet digest.
//
// The expanded key lives in a State value with no shared mutable internals,
// so an initialized State may be copied by plain assignment to snapshot it
// or to move it into a larger aggregate. Two copies are fully independent.
//
// Like the rest of the low-level tier, State performs no input validation.
// Callers guarantee that the constructor produces digests of exactly TagSize
// octets and a block size no larger than 128 octets (every SHA-2 family
// member with a 256-bit digest qualifies).
package keyed

import (
	"crypto/sha256"
	"hash"
)

// TagSize is the width in octets of every tag produced by the capability.
const TagSize = 32

// maxBlock bounds the underlying hash block size the expanded key can hold.
const maxBlock = 128

// Hash constructs a fresh instance of the underlying hash. The produced
// hash must return TagSize from Size.
type Hash func() hash.Hash

// Default returns the reference capability, HMAC over SHA-256.
func Default() Hash {
	return sha256.New
}

// State holds the expanded MAC key: the inner and outer padded key blocks
// and the hash constructor. The zero State is not usable until Start.
type State struct {
	fn    Hash
	block int
	ipad  [maxBlock]byte
	opad  [maxBlock]byte
}

// Start derives the expanded key material for key. Keys longer than the
// hash block size are hashed down first. key may have any length and may be
// released by the caller afterwards; State keeps no reference to it.
func (s *State) Start(fn Hash, key []byte) {
	h := fn()
	s.fn = fn
	s.block = h.BlockSize()
	if len(key) > s.block {
		h.Write(key)
		key = h.Sum(nil)
		h.Reset()
	}
	for i := 0; i < s.block; i++ {
		var k byte
		if i < len(key) {
			k = key[i]
		}
		s.ipad[i] = k ^ 0x36
		s.opad[i] = k ^ 0x5c
	}
}

// Sum computes the tag over the concatenation of data and stores it in tag.
// The variadic parts let hot loops feed counter-and-block messages without
// assembling them in a scratch buffer. data parts may alias tag's memory;
// they are fully consumed before tag is written.
func (s *State) Sum(tag *[TagSize]byte, data ...[]byte) {
	h := s.fn()
	h.Write(s.ipad[:s.block])
	for _, d := range data {
		h.Write(d)
	}
	inner := h.Sum(tag[:0])
	h.Reset()
	h.Write(s.opad[:s.block])
	h.Write(inner)
	h.Sum(tag[:0])
}

// Sum is the single-shot form: it expands key, tags data and discards the
// expanded state.
func Sum(tag *[TagSize]byte, fn Hash, key []byte, data ...[]byte) {
	var s State
	s.Start(fn, key)
	s.Sum(tag, data...)
}
