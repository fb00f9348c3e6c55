package vault

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	nameSize          = 64
	dataSizeFieldSize = 8
	timestampFieldSize = 8

	// headerPlainSize is the size of the plaintext header once decrypted:
	// nonce(12) + name(64) + data_size(8) + timestamp(8).
	headerPlainSize = NonceSize + nameSize + dataSizeFieldSize + timestampFieldSize

	// RecordHeaderSize is the full on-disk size of one record header,
	// including the 12 cleartext rec_nonce bytes.
	RecordHeaderSize = NonceSize + headerPlainSize
)

// Record describes one stored item. RecNonce and Nonce are on-disk
// fields; DataPtr is reconstructed at load time and is never
// serialized.
type Record struct {
	RecNonce  [NonceSize]byte
	Nonce     [NonceSize]byte
	Name      string
	DataSize  uint64
	Timestamp int64
	DataPtr   int64
}

// Tombstoned reports whether this record's name has been cleared by a
// delete operation. Tombstoned records keep their payload on disk;
// nothing reclaims the space (see SPEC_FULL.md §9, open question 4).
func (r *Record) Tombstoned() bool {
	return r.Name == ""
}

// Encode serializes the record into its 104-byte on-disk form:
// 12 cleartext rec_nonce bytes followed by 92 bytes of header
// encrypted under a fresh composite cipher keyed by rec_nonce.
func (r *Record) Encode(factory *CipherFactory) ([]byte, error) {
	nameBytes := []byte(r.Name)
	if len(nameBytes) > nameSize {
		return nil, ErrNameTooLong
	}

	plain := make([]byte, headerPlainSize)
	copy(plain[0:NonceSize], r.Nonce[:])
	copy(plain[NonceSize:NonceSize+nameSize], nameBytes) // remainder stays zero (NUL pad)
	binary.LittleEndian.PutUint64(plain[NonceSize+nameSize:], r.DataSize)
	binary.LittleEndian.PutUint64(plain[NonceSize+nameSize+dataSizeFieldSize:], uint64(r.Timestamp))

	cipher, err := factory.Renew(r.RecNonce)
	if err != nil {
		return nil, fmt.Errorf("vault: renew record cipher: %w", err)
	}
	ciphertext := cipher.Encrypt(plain)

	out := make([]byte, 0, RecordHeaderSize)
	out = append(out, r.RecNonce[:]...)
	out = append(out, ciphertext...)
	return out, nil
}

// DecodeRecord reads one record header starting at the current
// position of r. It returns io.EOF (with a nil record) if r is
// exhausted before any bytes are read — the normal end-of-scan
// signal. Any other short read is fatal and reported as
// ErrCorruptOrBadPassword, since a wrong password and truncated
// corruption look identical in this format.
func DecodeRecord(r io.Reader, factory *CipherFactory) (*Record, error) {
	var recNonce [NonceSize]byte
	n, err := io.ReadFull(r, recNonce[:])
	if err != nil {
		if n == 0 && err == io.EOF {
			return nil, io.EOF
		}
		return nil, ErrCorruptOrBadPassword
	}

	headerCT := make([]byte, headerPlainSize)
	if _, err := io.ReadFull(r, headerCT); err != nil {
		return nil, ErrCorruptOrBadPassword
	}

	cipher, err := factory.Renew(recNonce)
	if err != nil {
		return nil, err
	}
	plain := cipher.Decrypt(headerCT)

	var nonce [NonceSize]byte
	copy(nonce[:], plain[0:NonceSize])

	nameRaw := plain[NonceSize : NonceSize+nameSize]
	name := trimTrailingNUL(nameRaw)

	dataSize := binary.LittleEndian.Uint64(plain[NonceSize+nameSize:])
	timestamp := int64(binary.LittleEndian.Uint64(plain[NonceSize+nameSize+dataSizeFieldSize:]))

	return &Record{
		RecNonce:  recNonce,
		Nonce:     nonce,
		Name:      name,
		DataSize:  dataSize,
		Timestamp: timestamp,
	}, nil
}

func trimTrailingNUL(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0x00 {
		end--
	}
	return string(b[:end])
}
