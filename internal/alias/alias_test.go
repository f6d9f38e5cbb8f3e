package alias

import "testing"

func TestAnyOverlap(t *testing.T) {
	buf := make([]byte, 16)
	other := make([]byte, 16)

	tests := []struct {
		name string
		x, y []byte
		want bool
	}{
		{"identical", buf, buf, true},
		{"nested", buf, buf[4:8], true},
		{"adjacent halves", buf[:8], buf[8:], false},
		{"distinct buffers", buf, other, false},
		{"empty x", buf[:0], buf, false},
		{"empty y", buf, buf[2:2], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnyOverlap(tt.x, tt.y); got != tt.want {
				t.Errorf("AnyOverlap() = %v, want %v", got, tt.want)
			}
		})
	}
}
