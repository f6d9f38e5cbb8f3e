// Package verifier wraps the hotp and totp engines in a stateful,
// enrollment-oriented surface: one Verifier per enrolled token, holding the
// shared key, the mechanism parameters and — for HOTP — the server-side
// counter position.
//
// The engines themselves are deliberately stateless between calls; this
// package is the convenience layer a service embeds when it does not want
// to thread counters and rounded timestamps itself. All calls are
// non-blocking and bounded, so no context parameter is taken.
package verifier

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeremyhahn/go-otpkit/pkg/hotp"
	"github.com/jeremyhahn/go-otpkit/pkg/keyed"
	"github.com/jeremyhahn/go-otpkit/pkg/totp"
)

// Type selects the verification mechanism.
type Type string

const (
	// TypeTOTP verifies time-based passwords.
	TypeTOTP Type = "totp"
	// TypeHOTP verifies event-counter passwords.
	TypeHOTP Type = "hotp"
)

var (
	// ErrInvalidConfig indicates the verifier configuration is invalid.
	ErrInvalidConfig = errors.New("verifier: invalid configuration")
	// ErrNilVerifier indicates a nil verifier was used.
	ErrNilVerifier = errors.New("verifier: verifier is nil")
)

// Config holds the parameters of one enrolled token.
type Config struct {
	// Type selects TOTP or HOTP.
	Type Type
	// Key is the raw shared secret (required, 32 octets recommended).
	Key []byte
	// Digits is the password length, 6 to 8. Default: 6.
	Digits int
	// Hash overrides the keyed-hash capability. Default: SHA-256.
	Hash keyed.Hash

	// Counter is the initial HOTP counter position.
	Counter uint64
	// Resync is the HOTP look-ahead attempt bound, at most
	// hotp.MaxAttempts. Default: 2.
	Resync int

	// T0 is the TOTP epoch offset in seconds.
	T0 int64
	// Step is the TOTP step. Default: 30s.
	Step time.Duration
	// Backward and Forward bound the TOTP verification window, each at
	// most totp.MaxWindow. Default: 1 each.
	Backward, Forward int

	// Clock overrides the time source, for testing. Default: time.Now.
	Clock func() time.Time
}

func (c Config) validate() error {
	if c.Type != TypeTOTP && c.Type != TypeHOTP {
		return fmt.Errorf("%w: type must be 'totp' or 'hotp'", ErrInvalidConfig)
	}
	if len(c.Key) == 0 {
		return fmt.Errorf("%w: key must not be empty", ErrInvalidConfig)
	}
	if c.Digits != 0 && (c.Digits < hotp.MinDigits || c.Digits > hotp.MaxDigits) {
		return fmt.Errorf("%w: digits must be 6, 7, or 8", ErrInvalidConfig)
	}
	if c.Resync < 0 || c.Resync > hotp.MaxAttempts {
		return fmt.Errorf("%w: resync bound must be in [0,%d]", ErrInvalidConfig, hotp.MaxAttempts)
	}
	if c.Backward < 0 || c.Backward > totp.MaxWindow ||
		c.Forward < 0 || c.Forward > totp.MaxWindow {
		return fmt.Errorf("%w: window bounds must be in [0,%d]", ErrInvalidConfig, totp.MaxWindow)
	}
	if c.Step < 0 {
		return fmt.Errorf("%w: step must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Verifier validates passwords for one enrolled token. It is safe for
// concurrent use; the HOTP counter position is guarded internally.
type Verifier struct {
	cfg Config

	mu  sync.Mutex
	ctr [hotp.CounterLen]byte
}

// New builds a Verifier from the supplied configuration.
func New(cfg Config) (*Verifier, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if cfg.Hash == nil {
		cfg.Hash = keyed.Default()
	}
	if cfg.Type == TypeHOTP && cfg.Resync == 0 {
		cfg.Resync = 2
	}
	if cfg.Type == TypeTOTP {
		if cfg.Step == 0 {
			cfg.Step = 30 * time.Second
		}
		if cfg.Backward == 0 && cfg.Forward == 0 {
			cfg.Backward, cfg.Forward = 1, 1
		}
		if cfg.Clock == nil {
			cfg.Clock = time.Now
		}
	}

	v := &Verifier{cfg: cfg}
	binary.BigEndian.PutUint64(v.ctr[:], cfg.Counter)
	return v, nil
}

// Verify checks code and reports whether it matched. For HOTP a match
// advances the stored counter one past the matching position and a miss
// leaves it unchanged, so a replayed password is rejected on the next call.
func (v *Verifier) Verify(code string) (bool, error) {
	if v == nil {
		return false, ErrNilVerifier
	}

	if v.cfg.Type == TypeTOTP {
		t := totp.RoundTime(v.cfg.Clock(), v.cfg.T0, v.cfg.Step)
		return totp.VerifyHash(v.cfg.Hash, code, v.cfg.Key, t, v.cfg.Backward, v.cfg.Forward)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return hotp.VerifyHash(v.cfg.Hash, code, v.cfg.Key, &v.ctr, v.cfg.Resync)
}

// Generate produces the current password: for TOTP the password of the
// present time step, for HOTP the password at the stored counter, which is
// then advanced.
func (v *Verifier) Generate() (string, error) {
	if v == nil {
		return "", ErrNilVerifier
	}

	if v.cfg.Type == TypeTOTP {
		t := totp.RoundTime(v.cfg.Clock(), v.cfg.T0, v.cfg.Step)
		return totp.GenHash(v.cfg.Hash, v.cfg.Digits, v.cfg.Key, t)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return hotp.GenHash(v.cfg.Hash, v.cfg.Digits, v.cfg.Key, &v.ctr)
}

// Counter returns the current HOTP counter position. It is zero for TOTP
// verifiers.
func (v *Verifier) Counter() uint64 {
	if v == nil || v.cfg.Type != TypeHOTP {
		return 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return binary.BigEndian.Uint64(v.ctr[:])
}
