package vault

import (
	"bytes"
	"testing"
)

func TestCompositeCipherRoundTrip(t *testing.T) {
	factory := NewCipherFactory("pass")
	nonce, err := GenerateNonce()
	if err != nil {
		t.Fatalf("GenerateNonce failed: %v", err)
	}

	plain := []byte("the quick brown fox jumps over the lazy dog")

	enc, err := factory.Renew(nonce)
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	ct := enc.Encrypt(plain)
	if bytes.Equal(ct, plain) {
		t.Fatalf("ciphertext must not equal plaintext")
	}

	dec, err := factory.Renew(nonce)
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	pt := dec.Decrypt(ct)
	if !bytes.Equal(pt, plain) {
		t.Errorf("got %q, want %q", pt, plain)
	}
}

func TestCompositeCipherDifferentNoncesDiffer(t *testing.T) {
	factory := NewCipherFactory("pass")
	n1, _ := GenerateNonce()
	n2, _ := GenerateNonce()
	if n1 == n2 {
		t.Skip("GenerateNonce collision, vanishingly unlikely")
	}

	plain := []byte("same plaintext, different nonce")

	c1, _ := factory.Renew(n1)
	c2, _ := factory.Renew(n2)

	if bytes.Equal(c1.Encrypt(plain), c2.Encrypt(plain)) {
		t.Errorf("same plaintext under different nonces must produce different ciphertext")
	}
}

func TestFactoryZeroClearsKeys(t *testing.T) {
	factory := NewCipherFactory("pass")
	factory.Zero()
	var zero [KeySize]byte
	for i, k := range factory.keys {
		if k != zero {
			t.Errorf("layer %d key not zeroed: %x", i, k)
		}
	}
}
