// Package nokhal is the public facade over the encrypted vault
// container: a single-file, password-protected store of named binary
// items, each independently encrypted with a password-derived
// multi-layer ChaCha20 stream cipher. See internal/vault for the
// container format and internal/media for the optional video bridge.
package nokhal

import (
	"io"

	"github.com/wesleyyan-sb/nokhal/internal/vault"
)

// Entry is one item's metadata as returned by List.
type Entry = vault.Entry

// Vault represents a Nokhal encrypted vault instance.
type Vault struct {
	inner *vault.Vault
}

// New creates a new vault at path, protected by password. path must
// not already exist.
func New(path, password string) (*Vault, error) {
	v, err := vault.New(path, password)
	if err != nil {
		return nil, err
	}
	return &Vault{inner: v}, nil
}

// Open opens an existing vault at path with password, reconstructing
// its record list by scanning the file from the start.
func Open(path, password string) (*Vault, error) {
	v, err := vault.Open(path, password)
	if err != nil {
		return nil, err
	}
	return &Vault{inner: v}, nil
}

// StoreItem stores data as a single named item.
func (v *Vault) StoreItem(data []byte, name string) error {
	return v.inner.StoreItem(data, name)
}

// StoreFromReader streams r into the vault in chunks of chunkSize
// bytes, so the whole payload never needs to be buffered in memory.
func (v *Vault) StoreFromReader(r io.Reader, chunkSize int, name string) error {
	return v.inner.StoreFromReader(r, chunkSize, name)
}

// StoreFile stores the whole contents of the file at path, named
// after its base filename.
func (v *Vault) StoreFile(path string) error {
	return v.inner.StoreFile(path)
}

// StoreBatch commits several fully in-memory items with a single
// write and a single fsync.
func (v *Vault) StoreBatch(items []vault.BatchItem) error {
	return v.inner.StoreBatch(items)
}

// ReadItem decrypts and returns the full payload of record index.
func (v *Vault) ReadItem(index int) ([]byte, error) {
	return v.inner.ReadItem(index)
}

// ReadChunks returns a chunked, decrypting reader over record
// index's payload. Chunks must be consumed in order.
func (v *Vault) ReadChunks(index, chunkSize int) (*vault.ChunkReader, error) {
	return v.inner.ReadChunks(index, chunkSize)
}

// ReadAll decrypts and returns every item in the vault, in insertion
// order.
func (v *Vault) ReadAll() ([][]byte, error) {
	return v.inner.ReadAll()
}

// ExportItemToFile decrypts record index and streams it to fp.
func (v *Vault) ExportItemToFile(index int, fp string) error {
	return v.inner.ExportItemToFile(index, fp)
}

// FindByName returns the index of the most recently stored,
// non-tombstoned record named name.
func (v *Vault) FindByName(name string) (int, bool) {
	return v.inner.FindByName(name)
}

// Delete tombstones record index: its name is cleared and its
// timestamp updated, but its payload bytes are never reclaimed.
func (v *Vault) Delete(index int) error {
	return v.inner.Delete(index)
}

// Count returns the number of records, including tombstones.
func (v *Vault) Count() int {
	return v.inner.Count()
}

// BufferEndOffset returns the in-memory end-of-data watermark.
func (v *Vault) BufferEndOffset() int64 {
	return v.inner.BufferEndOffset()
}

// DataSizeTotal returns the sum of every record's payload size.
func (v *Vault) DataSizeTotal() uint64 {
	return v.inner.DataSizeTotal()
}

// List returns a structured summary of every record.
func (v *Vault) List() []Entry {
	return v.inner.List()
}

// Ls returns a human-readable summary of the vault contents.
func (v *Vault) Ls() string {
	return v.inner.Ls()
}

// Close releases the backing file handle and zeroes the derived key
// material.
func (v *Vault) Close() error {
	return v.inner.Close()
}

// Unwrap returns the underlying *vault.Vault, for callers such as the
// media bridge that operate below the facade.
func Unwrap(v *Vault) *vault.Vault {
	return v.inner
}

// Errors re-exported from internal/vault for callers that don't want
// to import it directly.
var (
	ErrAlreadyExists        = vault.ErrAlreadyExists
	ErrNameTooLong          = vault.ErrNameTooLong
	ErrInvalidChunkSize     = vault.ErrInvalidChunkSize
	ErrIndexOutOfRange      = vault.ErrIndexOutOfRange
	ErrCorruptOrBadPassword = vault.ErrCorruptOrBadPassword
	ErrClosed               = vault.ErrClosed
)
