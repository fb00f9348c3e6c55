package vault

import "golang.org/x/crypto/sha3"

// kdfRounds is the number of extra hash iterations applied after the
// salted first hash. Fixed per spec; raising it or swapping SHA3-256
// for a memory-hard KDF would break every existing vault and is out
// of scope here (see SPEC_FULL.md §9).
const kdfRounds = 1000

// KeySize is the length in bytes of each derived layer key.
const KeySize = 32

// DeriveKeys turns a password into N independent 32-byte keys, one per
// salt in the salt table. It is a pure, deterministic, total function:
// the same password always yields the same N-tuple of keys.
func DeriveKeys(password string) [N][KeySize]byte {
	var keys [N][KeySize]byte
	pwBytes := []byte(password)

	for i, salt := range saltTable {
		seed := make([]byte, 0, len(pwBytes)+L)
		seed = append(seed, pwBytes...)
		seed = append(seed, salt[:]...)

		h := sha3.Sum256(seed)
		for round := 0; round < kdfRounds; round++ {
			h = sha3.Sum256(h[:])
		}
		keys[i] = h
	}

	return keys
}
