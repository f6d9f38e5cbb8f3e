// Package provision handles the enrollment side of the module: random
// secret generation, HKDF subkey derivation, and otpauth:// key objects
// that authenticator apps can import by URI or QR code.
//
// The engines themselves treat keys as opaque octets; everything here is
// about getting those octets issued, fanned out and delivered.
package provision

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/hkdf"
)

// Type selects the mechanism a key is provisioned for.
type Type string

const (
	// TypeTOTP provisions a time-based key.
	TypeTOTP Type = "totp"
	// TypeHOTP provisions an event-counter key.
	TypeHOTP Type = "hotp"
)

// SecretLen is the length in octets of generated secrets, matching the
// engines' recommended key length.
const SecretLen = 32

var (
	// ErrInvalidConfig indicates the provisioning configuration is invalid.
	ErrInvalidConfig = errors.New("provision: invalid configuration")
	// ErrDerive indicates subkey derivation failed or was misparameterized.
	ErrDerive = errors.New("provision: key derivation failed")
)

// b32 is the otpauth secret alphabet: base32, no padding.
var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Config describes one enrollment.
type Config struct {
	// Type selects TOTP or HOTP provisioning.
	Type Type
	// Issuer is the issuing organization (e.g. "MyApp"). Required.
	Issuer string
	// AccountName identifies the account (e.g. "user@example.com"). Required.
	AccountName string
	// Secret is the raw shared key. Required.
	Secret []byte
	// Digits is the password length, 6 to 8. Default: 6.
	Digits int
	// Period is the TOTP step in seconds. Default: 30.
	Period uint
	// Counter is the initial HOTP counter. Default: 0.
	Counter uint64
}

func (c Config) validate() error {
	if c.Type != TypeTOTP && c.Type != TypeHOTP {
		return fmt.Errorf("%w: type must be 'totp' or 'hotp'", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Issuer) == "" {
		return fmt.Errorf("%w: issuer must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.AccountName) == "" {
		return fmt.Errorf("%w: account name must not be empty", ErrInvalidConfig)
	}
	if len(c.Secret) == 0 {
		return fmt.Errorf("%w: secret must not be empty", ErrInvalidConfig)
	}
	if c.Digits != 0 && (c.Digits < 6 || c.Digits > 8) {
		return fmt.Errorf("%w: digits must be 6, 7, or 8", ErrInvalidConfig)
	}
	return nil
}

// GenerateSecret returns a fresh random secret, base32 encoded without
// padding, suitable for Config.Secret after ParseSecret or for direct
// display to enrollment tooling.
func GenerateSecret() (string, error) {
	secret := make([]byte, SecretLen)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("provision: failed to generate random secret: %w", err)
	}
	return b32.EncodeToString(secret), nil
}

// ParseSecret decodes a base32 secret as produced by GenerateSecret or
// found in otpauth URIs. Whitespace is ignored and case is normalized.
func ParseSecret(s string) ([]byte, error) {
	clean := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	raw, err := b32.DecodeString(strings.TrimRight(clean, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: secret must be valid base32: %v", ErrInvalidConfig, err)
	}
	return raw, nil
}

// DeriveKey derives an n octet subkey from a master secret via HKDF-SHA256.
// salt is optional; info binds the subkey to its purpose (e.g. "totp/login")
// so one master secret can safely fan out to several mechanisms.
func DeriveKey(master, salt, info []byte, n int) ([]byte, error) {
	if len(master) == 0 {
		return nil, fmt.Errorf("%w: empty master secret", ErrDerive)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: non-positive subkey length", ErrDerive)
	}
	key := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, salt, info), key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDerive, err)
	}
	return key, nil
}

// Key builds an otpauth:// key object for the enrollment. The returned key
// exposes the URI for authenticator apps and can render itself as a QR
// image. The algorithm is pinned to SHA256, the engines' default capability.
func Key(cfg Config) (*otp.Key, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if cfg.Period == 0 {
		cfg.Period = 30
	}

	if cfg.Type == TypeTOTP {
		return totp.Generate(totp.GenerateOpts{
			Issuer:      cfg.Issuer,
			AccountName: cfg.AccountName,
			Secret:      cfg.Secret,
			Digits:      otp.Digits(cfg.Digits),
			Period:      cfg.Period,
			Algorithm:   otp.AlgorithmSHA256,
		})
	}

	// pquerna/otp has no HOTP key builder; assemble the URI by hand in the
	// Key Uri Format and parse it back.
	v := url.Values{}
	v.Set("secret", b32.EncodeToString(cfg.Secret))
	v.Set("issuer", cfg.Issuer)
	v.Set("algorithm", "SHA256")
	v.Set("digits", strconv.Itoa(cfg.Digits))
	v.Set("counter", strconv.FormatUint(cfg.Counter, 10))
	u := url.URL{
		Scheme:   "otpauth",
		Host:     "hotp",
		Path:     "/" + cfg.Issuer + ":" + cfg.AccountName,
		RawQuery: v.Encode(),
	}
	return otp.NewKeyFromURL(u.String())
}
