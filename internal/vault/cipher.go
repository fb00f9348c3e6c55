package vault

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/chacha20"
)

// NonceSize is the length in bytes of a cipher nonce. A nonce scopes a
// single CompositeCipher to one logical encrypt-or-decrypt operation;
// it must never be reused for the same key.
const NonceSize = 12

// CipherFactory owns the N derived keys for one password and mints
// fresh CompositeCipher instances from them. It never caches an
// instance across calls: every Renew starts all N layers at stream
// position zero.
type CipherFactory struct {
	keys [N][KeySize]byte
}

// NewCipherFactory derives the layer keys for password and returns a
// factory that can mint composite ciphers from them.
func NewCipherFactory(password string) *CipherFactory {
	return &CipherFactory{keys: DeriveKeys(password)}
}

// Zero overwrites the derived key material in place. Callers should
// call this once the factory is no longer needed (Vault.Close does).
func (f *CipherFactory) Zero() {
	for i := range f.keys {
		for j := range f.keys[i] {
			f.keys[i][j] = 0
		}
	}
}

// Renew returns a freshly seeded CompositeCipher keyed by the N
// derived keys, all seeded with nonce. The returned cipher is
// stateful and single-use: obtain a new one per logical operation.
func (f *CipherFactory) Renew(nonce [NonceSize]byte) (*CompositeCipher, error) {
	var layers [N]*chacha20.Cipher
	for i, key := range f.keys {
		c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
		if err != nil {
			return nil, err
		}
		layers[i] = c
	}
	return &CompositeCipher{layers: layers}, nil
}

// GenerateNonce returns a fresh 12-byte random nonce.
func GenerateNonce() ([NonceSize]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nonce, err
	}
	return nonce, nil
}

// CompositeCipher layers N ChaCha20 stream-cipher instances sharing a
// single nonce, each keyed independently. Layers are applied in fixed
// index order 0..N-1 for both encryption and decryption; because each
// layer is a stream XOR, encrypt and decrypt are the same operation
// and the layer order does not change the resulting ciphertext
// strength (it only multiplies keying material and iteration cost —
// see SPEC_FULL.md §9, open question 3). A CompositeCipher carries
// internal stream position and must not be reused after one logical
// encrypt-or-decrypt call.
type CompositeCipher struct {
	layers [N]*chacha20.Cipher
}

// XORKeyStream encrypts or decrypts src into dst by passing it through
// all N layers in order. dst and src may overlap exactly as allowed by
// cipher.Stream implementations.
func (c *CompositeCipher) XORKeyStream(dst, src []byte) {
	c.layers[0].XORKeyStream(dst, src)
	for i := 1; i < N; i++ {
		c.layers[i].XORKeyStream(dst, dst)
	}
}

// Encrypt returns a new slice holding data run through all layers.
func (c *CompositeCipher) Encrypt(data []byte) []byte {
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

// Decrypt is identical to Encrypt: the construction is symmetric.
func (c *CompositeCipher) Decrypt(data []byte) []byte {
	return c.Encrypt(data)
}
