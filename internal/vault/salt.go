package vault

import "golang.org/x/crypto/sha3"

// Salt table layout: N independent salts of L bytes each, used only for
// domain separation inside key derivation. The reference implementation
// reads this from a side file distributed with the software; this build
// instead expands it once at package init from a fixed seed so the table
// is a build-time constant (see the salt table note in SPEC_FULL.md §3). Changing saltSeed, N, or L breaks every existing vault.
const (
	N        = 8
	L        = 256
	saltSeed = "nokhal-vault-salt-table-v1"
)

var saltTable [N][L]byte

func init() {
	expandSalts()
}

// expandSalts fills saltTable deterministically from saltSeed using
// SHA3-256 in counter mode: block i of the stream is H(seed || i).
// This has no relation to password material and exists purely to give
// every key-derivation layer an independent, fixed salt.
func expandSalts() {
	const blockSize = 32
	blocksPerSalt := L / blockSize

	counter := uint64(0)
	for i := 0; i < N; i++ {
		for b := 0; b < blocksPerSalt; b++ {
			block := saltBlock(counter)
			copy(saltTable[i][b*blockSize:(b+1)*blockSize], block[:])
			counter++
		}
	}
}

func saltBlock(counter uint64) [32]byte {
	buf := make([]byte, len(saltSeed)+8)
	copy(buf, saltSeed)
	for i := 0; i < 8; i++ {
		buf[len(saltSeed)+i] = byte(counter >> (8 * i))
	}
	return sha3.Sum256(buf)
}
