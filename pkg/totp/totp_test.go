package totp

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"hash"
	"testing"
	"time"

	pqotp "github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(0xe0 ^ i)
	}
	return key
}

// TestGenVerifySymmetricWindow checks exact-time verification and the
// forward search bound.
func TestGenVerifySymmetricWindow(t *testing.T) {
	key := testKey()
	const now = uint64(52_000_000)

	code, err := Gen(6, key, now)
	if err != nil {
		t.Fatalf("Gen() error = %v", err)
	}

	ok, err := Verify(code, key, now, 0, 0)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Fatal("Verify() at generation time = false, want true")
	}

	// Password generated two steps ahead of the verifier's clock.
	ahead, err := Gen(6, key, now+2)
	if err != nil {
		t.Fatalf("Gen() error = %v", err)
	}

	ok, err = Verify(ahead, key, now, 0, 2)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify(forward=2) = false, want true")
	}

	ok, err = Verify(ahead, key, now, 4, 1)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("Verify(forward=1) = true, want false")
	}

	// And two steps behind.
	behind, err := Gen(6, key, now-2)
	if err != nil {
		t.Fatalf("Gen() error = %v", err)
	}
	ok, err = Verify(behind, key, now, 2, 0)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify(backward=2) = false, want true")
	}
}

// recordingHash wraps sha256 and logs every 8 octet write, which in this
// engine is exactly the mapped timestamp of each probe.
type recordingHash struct {
	hash.Hash
	log *[]uint64
}

func (r *recordingHash) Write(p []byte) (int, error) {
	if len(p) == 8 {
		*r.log = append(*r.log, binary.BigEndian.Uint64(p))
	}
	return r.Hash.Write(p)
}

// TestVerifyProbeOrder instruments the keyed-hash capability and checks
// that the window is searched in the order 0, -1, +1, -2, +2, ... with
// asymmetric bounds clipped correctly.
func TestVerifyProbeOrder(t *testing.T) {
	key := testKey()
	const now = uint64(9_000_000)

	tests := []struct {
		name              string
		backward, forward int
		want              []uint64
	}{
		{"symmetric 2", 2, 2, []uint64{now, now - 1, now + 1, now - 2, now + 2}},
		{"backward only", 2, 0, []uint64{now, now - 1, now - 2}},
		{"forward only", 0, 3, []uint64{now, now + 1, now + 2, now + 3}},
		{"asymmetric", 1, 3, []uint64{now, now - 1, now + 1, now + 2, now + 3}},
		{"exact only", 0, 0, []uint64{now}},
	}

	// Pick a password that matches nowhere in the widest window so every
	// verification below visits its whole interval.
	inWindow := map[string]bool{}
	for i := -int64(MaxWindow); i <= int64(MaxWindow); i++ {
		code, err := Gen(8, key, now+uint64(i))
		if err != nil {
			t.Fatalf("Gen() error = %v", err)
		}
		inWindow[code] = true
	}
	miss := ""
	for _, cand := range []string{"00000000", "00000001", "00000002", "00000003",
		"00000004", "00000005", "00000006", "00000007", "00000008", "00000009"} {
		if !inWindow[cand] {
			miss = cand
			break
		}
	}
	if miss == "" {
		t.Fatal("no non-matching candidate password found")
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log []uint64
			fn := func() hash.Hash {
				return &recordingHash{Hash: sha256.New(), log: &log}
			}

			ok, err := VerifyHash(fn, miss, key, now, tt.backward, tt.forward)
			if err != nil {
				t.Fatalf("VerifyHash() error = %v", err)
			}
			if ok {
				t.Fatal("VerifyHash() matched a password chosen to miss")
			}

			if len(log) != len(tt.want) {
				t.Fatalf("probed %d timestamps %v, want %d", len(log), log, len(tt.want))
			}
			for i := range tt.want {
				if log[i] != tt.want[i] {
					t.Errorf("probe[%d] = %d, want %d (full order %v)", i, log[i], tt.want[i], tt.want)
				}
			}
		})
	}
}

// TestAgainstReference cross-checks against an independent RFC 6238
// implementation running HMAC-SHA256 with a 30 second step.
func TestAgainstReference(t *testing.T) {
	key := testKey()
	secret := base32.StdEncoding.EncodeToString(key)
	at := time.Unix(1234567890, 0)

	for _, digits := range []int{6, 8} {
		rounded := RoundTime(at, 0, 30*time.Second)
		got, err := Gen(digits, key, rounded)
		if err != nil {
			t.Fatalf("Gen() error = %v", err)
		}

		want, err := pqtotp.GenerateCodeCustom(secret, at, pqtotp.ValidateOpts{
			Period:    30,
			Digits:    pqotp.Digits(digits),
			Algorithm: pqotp.AlgorithmSHA256,
		})
		if err != nil {
			t.Fatalf("reference GenerateCodeCustom() error = %v", err)
		}
		if got != want {
			t.Errorf("Gen(digits=%d) = %q, reference = %q", digits, got, want)
		}
	}
}

func TestRoundTime(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		t0   int64
		step time.Duration
		want uint64
	}{
		{"epoch", time.Unix(0, 0), 0, 30 * time.Second, 0},
		{"one step", time.Unix(30, 0), 0, 30 * time.Second, 1},
		{"mid step truncates", time.Unix(59, 0), 0, 30 * time.Second, 1},
		{"offset epoch", time.Unix(100, 0), 40, 60 * time.Second, 1},
		{"before offset", time.Unix(10, 0), 40, 30 * time.Second, TimeMax},
		{"zero step", time.Unix(100, 0), 0, 0, TimeMax},
		{"sub-second step", time.Unix(100, 0), 0, time.Millisecond, TimeMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundTime(tt.t, tt.t0, tt.step); got != tt.want {
				t.Errorf("RoundTime() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestGenErrors covers the generation error taxonomy.
func TestGenErrors(t *testing.T) {
	key := testKey()

	tests := []struct {
		name    string
		digits  int
		t       uint64
		wantErr error
	}{
		{"digits too small", 5, 1000, ErrBadParams},
		{"digits too large", 9, 1000, ErrBadParams},
		{"time sentinel", 6, TimeMax, ErrBadParams},
		{"valid", 6, 1000, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Gen(tt.digits, key, tt.t)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Gen() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestVerifyErrors covers the verification error taxonomy.
func TestVerifyErrors(t *testing.T) {
	key := testKey()

	tests := []struct {
		name              string
		otp               string
		t                 uint64
		backward, forward int
		wantErr           error
	}{
		{"backward too large", "123456", 1000, 5, 0, ErrBadParams},
		{"forward too large", "123456", 1000, 0, 5, ErrBadParams},
		{"time sentinel", "123456", TimeMax, 1, 1, ErrBadParams},
		{"password not decimal", "123a56", 1000, 1, 1, ErrBadPassword},
		{"password too short", "12345", 1000, 1, 1, ErrBadPassword},
		{"valid miss or hit", "123456", 1000, 1, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Verify(tt.otp, key, tt.t, tt.backward, tt.forward)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestKeep(t *testing.T) {
	if Keep() <= 0 {
		t.Errorf("Keep() = %d, want > 0", Keep())
	}
}
