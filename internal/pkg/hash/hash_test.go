package hash

import (
	"testing"
)

func TestSHA256(t *testing.T) {
	tests := []struct {
		input []byte
		want  string
	}{
		{
			[]byte("hello"),
			"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			[]byte(""),
			"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			got := SHA256(tt.input)
			if got != tt.want {
				t.Errorf("SHA256(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestSHA256Short(t *testing.T) {
	full := SHA256([]byte("hello"))

	tests := []struct {
		n    int
		want string
	}{
		{8, full[:8]},
		{64, full},
		{100, full},
	}
	for _, tt := range tests {
		if got := SHA256Short([]byte("hello"), tt.n); got != tt.want {
			t.Errorf("SHA256Short(hello, %d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("casa"), []byte("falar"))

	if len(a) != FingerprintLength {
		t.Errorf("len = %d, want %d", len(a), FingerprintLength)
	}
	if b := Fingerprint([]byte("casa"), []byte("falar")); a != b {
		t.Errorf("not deterministic: %s != %s", a, b)
	}

	tests := []struct {
		name  string
		parts [][]byte
	}{
		{"bytes moved between parts", [][]byte{[]byte("casaf"), []byte("alar")}},
		{"order swapped", [][]byte{[]byte("falar"), []byte("casa")}},
		{"concatenated", [][]byte{[]byte("casafalar")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fingerprint(tt.parts...); got == a {
				t.Errorf("Fingerprint collided with %s", a)
			}
		})
	}
}
