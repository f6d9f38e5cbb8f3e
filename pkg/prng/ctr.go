package prng

import (
	"errors"
	"unsafe"

	"github.com/jeremyhahn/go-otpkit/internal/alias"
	"github.com/jeremyhahn/go-otpkit/pkg/keyed"
)

const (
	// BlockSize is the generation granularity of both mechanisms.
	BlockSize = 32
	// KeySize is the CTR mechanism key length.
	KeySize = 32
	// IVSize is the CTR synchronization value length.
	IVSize = 32
)

// Errors returned by the high-level functions.
var (
	// ErrBadParams indicates a nil capability.
	ErrBadParams = errors.New("prng: bad parameters")
	// ErrBadInput indicates that the output buffer overlaps the
	// synchronization value.
	ErrBadInput = errors.New("prng: overlapping buffers")
)

// CTR is the counter-mode generator state: the expanded MAC key, the
// evolving synchronization value, and the buffered tail of the last
// generated block. It is a plain value; assignment snapshots the generator
// and distinct copies run independently. The zero CTR is not usable until
// Start.
type CTR struct {
	mac      keyed.State
	iv       [IVSize]byte
	block    [BlockSize]byte
	pad      [BlockSize]byte
	reserved int
}

// CTRKeep returns the CTR state footprint in octets.
func CTRKeep() int {
	return int(unsafe.Sizeof(CTR{}))
}

// Start initializes counter-mode generation under the default capability.
// A nil iv selects the all-zero synchronization value.
//
// Reusing a (key, iv) pair across independent runs regenerates identical
// output. That is a correctness hazard for the caller; it is not detected
// here.
func (g *CTR) Start(key *[KeySize]byte, iv *[IVSize]byte) {
	g.StartHash(keyed.Default(), key, iv)
}

// StartHash initializes counter-mode generation under an explicit
// capability. Unchecked: fn must be a valid capability.
func (g *CTR) StartHash(fn keyed.Hash, key *[KeySize]byte, iv *[IVSize]byte) {
	g.mac.Start(fn, key[:])
	if iv != nil {
		g.iv = *iv
	} else {
		g.iv = [IVSize]byte{}
	}
	g.reserved = 0
}

// StepRand fills buf with generator output. Output is produced in BlockSize
// blocks; unconsumed octets of the previous block are drained first, then
// fresh blocks are generated as iv+1, iv+2, ... tags.
//
// The prior content of buf doubles as the auxiliary input word: each freshly
// generated block folds in the corresponding BlockSize window of buf
// (zero-padded at the tail), so a running generator can absorb caller
// entropy without restarting. Octets satisfied from the drained block do not
// contribute — their prior content is simply overwritten.
//
// Unchecked precondition: Start was called.
func (g *CTR) StepRand(buf []byte) {
	if g.reserved > 0 {
		n := copy(buf, g.block[BlockSize-g.reserved:])
		g.reserved -= n
		buf = buf[n:]
	}
	for len(buf) >= BlockSize {
		incIV(&g.iv)
		g.mac.Sum(&g.block, g.iv[:], buf[:BlockSize])
		copy(buf, g.block[:])
		buf = buf[BlockSize:]
	}
	if len(buf) > 0 {
		incIV(&g.iv)
		n := copy(g.pad[:], buf)
		clear(g.pad[n:])
		g.mac.Sum(&g.block, g.iv[:], g.pad[:])
		copy(buf, g.block[:len(buf)])
		g.reserved = BlockSize - len(buf)
	}
}

// StepGet extracts the current synchronization value: the one passed to
// Start, evolved once per generated block. After a whole number of blocks
// the extracted value differs from every one used so far under this key, so
// it is safe to resume a later run from it.
func (g *CTR) StepGet(iv *[IVSize]byte) {
	*iv = g.iv
}

// incIV steps the synchronization value as a 256-bit little-endian integer.
func incIV(iv *[IVSize]byte) {
	for i := 0; i < IVSize; i++ {
		iv[i]++
		if iv[i] != 0 {
			return
		}
	}
}

// Rand fills buf with counter-mode output under the default capability and
// writes the evolved synchronization value back into iv. See RandHash.
func Rand(buf []byte, key *[KeySize]byte, iv *[IVSize]byte) error {
	return RandHash(keyed.Default(), buf, key, iv)
}

// RandHash validates its inputs, runs a transient generator over buf — the
// prior content of buf is folded in as the auxiliary input word — and
// returns the evolved synchronization value through iv.
//
// Failures: ErrBadParams if fn is nil; ErrBadInput if buf overlaps iv.
func RandHash(fn keyed.Hash, buf []byte, key *[KeySize]byte, iv *[IVSize]byte) error {
	if fn == nil {
		return ErrBadParams
	}
	if alias.AnyOverlap(buf, iv[:]) {
		return ErrBadInput
	}

	var g CTR
	defer func() { g = CTR{} }()

	g.StartHash(fn, key, iv)
	g.StepRand(buf)
	g.StepGet(iv)
	return nil
}
