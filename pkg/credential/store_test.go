package credential

import (
	"encoding/base64"
	"testing"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	s, err := NewSealer(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatalf("NewSealer() error = %v", err)
	}
	return s
}

func TestSealer_SealOpenRoundTrip(t *testing.T) {
	s := testSealer(t)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"typical token", "ya29.a0Aexampletoken"},
		{"empty string round-trips to empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := s.seal(tt.plaintext)
			if err != nil {
				t.Fatalf("seal() error = %v", err)
			}
			opened, err := s.open(sealed)
			if err != nil {
				t.Fatalf("open() error = %v", err)
			}
			if opened != tt.plaintext {
				t.Errorf("open(seal(%q)) = %q", tt.plaintext, opened)
			}
		})
	}
}

func TestSealer_SealProducesDistinctCiphertexts(t *testing.T) {
	s := testSealer(t)

	a, err := s.seal("same-secret")
	if err != nil {
		t.Fatalf("seal() error = %v", err)
	}
	b, err := s.seal("same-secret")
	if err != nil {
		t.Fatalf("seal() error = %v", err)
	}
	if string(a) == string(b) {
		t.Error("seal() should use a fresh random nonce per call, got identical ciphertexts")
	}
}

func TestSealer_OpenRejectsTampering(t *testing.T) {
	s := testSealer(t)

	sealed, err := s.seal("a secret")
	if err != nil {
		t.Fatalf("seal() error = %v", err)
	}
	tampered := append([]byte{}, sealed...)
	tampered[len(tampered)-1] ^= 0xFF

	if _, err := s.open(tampered); err == nil {
		t.Error("open() should reject a tampered ciphertext")
	}
}
