// Package vault implements the encrypted, append-only container
// format described in SPEC_FULL.md: a single file holding an
// arbitrary number of named binary items, each encrypted with a
// password-derived multi-layer ChaCha20 stream cipher, with no
// plaintext index and no ciphertext authentication.
package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultChunkSize is the default chunk size used by StoreFile,
// StoreFromReader and ExportItemToFile when the caller does not pick
// one (10e6 bytes).
const DefaultChunkSize = 10_000_000

// Vault owns exclusive access to one backing file and the key
// material derived from one password. Every method holds mu while it
// runs, since stores seek the shared file handle (SPEC_FULL.md §5); a
// ChunkReader returned by ReadChunks reads without that lock.
type Vault struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	factory *CipherFactory
	records []*Record
	index   *nameIndex

	// bufferEnd is the in-memory end-of-data watermark. It is
	// deliberately never recomputed from the file's actual size: a
	// store interrupted between reserving the header slot and
	// writing the header leaves an orphan payload past bufferEnd,
	// invisible to the next scan and harmlessly overwritten by the
	// next store (SPEC_FULL.md §4.4, orphan-payload self-healing).
	bufferEnd int64
	closed    bool
}

// New creates a fresh vault at path. path must not already exist.
func New(path, password string) (*Vault, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	return &Vault{
		file:    file,
		path:    path,
		factory: NewCipherFactory(password),
		index:   newNameIndex(),
	}, nil
}

// Open opens an existing vault at path and reconstructs its record
// list by walking the file from offset zero (SPEC_FULL.md §4.4,
// "Record-Table Load"). There is no plaintext index: the wrong
// password almost always surfaces here as ErrCorruptOrBadPassword,
// either from an impossible data_size or a short read mid-record.
func Open(path, password string) (*Vault, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	v := &Vault{
		file:    file,
		path:    path,
		factory: NewCipherFactory(password),
		index:   newNameIndex(),
	}

	if err := v.loadRecordTable(); err != nil {
		file.Close()
		return nil, err
	}
	return v, nil
}

func (v *Vault) loadRecordTable() error {
	stat, err := v.file.Stat()
	if err != nil {
		return err
	}
	fileSize := stat.Size()

	if _, err := v.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	for {
		rec, err := DecodeRecord(v.file, v.factory)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		dataPtr, err := v.file.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		rec.DataPtr = dataPtr

		if rec.DataSize > uint64(fileSize-rec.DataPtr) {
			return ErrCorruptOrBadPassword
		}

		idx := len(v.records)
		v.records = append(v.records, rec)
		v.index.observe(rec, idx)

		next := rec.DataPtr + int64(rec.DataSize)
		if _, err := v.file.Seek(next, io.SeekStart); err != nil {
			return err
		}
	}

	v.bufferEnd = v.computeBufferEnd()
	return nil
}

func (v *Vault) computeBufferEnd() int64 {
	var total int64
	for _, rec := range v.records {
		total += int64(RecordHeaderSize) + int64(rec.DataSize)
	}
	return total
}

// Count returns the number of records, including tombstones.
func (v *Vault) Count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.records)
}

// BufferEndOffset returns the in-memory end-of-data watermark.
func (v *Vault) BufferEndOffset() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bufferEnd
}

// DataSizeTotal returns the sum of every record's payload size.
func (v *Vault) DataSizeTotal() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	var total uint64
	for _, rec := range v.records {
		total += rec.DataSize
	}
	return total
}

func (v *Vault) recordAt(index int) (*Record, error) {
	if index < 0 || index >= len(v.records) {
		return nil, ErrIndexOutOfRange
	}
	return v.records[index], nil
}

// ChunkSource pulls successive plaintext chunks for a streaming store.
// It returns io.EOF once exhausted.
type ChunkSource func() ([]byte, error)

// storeChunks is the shared back-patch write pipeline used by every
// store operation (SPEC_FULL.md §4.4): reserve the header slot,
// stream-encrypt chunks to the end of the file, then seek back and
// fill in the header once the final size is known.
func (v *Vault) storeChunks(name string, next ChunkSource) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if len([]byte(name)) > nameSize {
		return ErrNameTooLong
	}

	recordStart := v.bufferEnd
	if _, err := v.file.Seek(recordStart+int64(RecordHeaderSize), io.SeekStart); err != nil {
		return err
	}

	payloadNonce, err := GenerateNonce()
	if err != nil {
		return err
	}
	cipher, err := v.factory.Renew(payloadNonce)
	if err != nil {
		return err
	}

	var bytesWritten int64
	for {
		chunk, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		ct := cipher.Encrypt(chunk)
		n, err := v.file.Write(ct)
		if err != nil {
			return err
		}
		bytesWritten += int64(n)
	}

	recNonce, err := GenerateNonce()
	if err != nil {
		return err
	}
	rec := &Record{
		RecNonce:  recNonce,
		Nonce:     payloadNonce,
		Name:      name,
		DataSize:  uint64(bytesWritten),
		Timestamp: time.Now().Unix(),
	}

	encoded, err := rec.Encode(v.factory)
	if err != nil {
		return err
	}
	if _, err := v.file.Seek(recordStart, io.SeekStart); err != nil {
		return err
	}
	if _, err := v.file.Write(encoded); err != nil {
		return err
	}
	if err := v.file.Sync(); err != nil {
		return err
	}

	rec.DataPtr = recordStart + int64(RecordHeaderSize)
	idx := len(v.records)
	v.records = append(v.records, rec)
	v.index.observe(rec, idx)
	v.bufferEnd = rec.DataPtr + bytesWritten
	return nil
}

// StoreItem stores a single in-memory blob under name.
func (v *Vault) StoreItem(data []byte, name string) error {
	sent := false
	return v.storeChunks(name, func() ([]byte, error) {
		if sent {
			return nil, io.EOF
		}
		sent = true
		return data, nil
	})
}

// StoreFromReader streams r in chunks of chunkSize bytes, encrypting
// as it goes so the whole payload never needs to be buffered. The
// final size is only known once r is exhausted, hence the back-patch
// write pattern.
func (v *Vault) StoreFromReader(r io.Reader, chunkSize int, name string) error {
	if chunkSize <= 0 {
		return ErrInvalidChunkSize
	}

	buf := make([]byte, chunkSize)
	done := false
	source := func() ([]byte, error) {
		if done {
			return nil, io.EOF
		}
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if err != nil {
				done = true
			}
			return chunk, nil
		}
		if err == nil {
			return nil, io.EOF
		}
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}

	return v.storeChunks(name, source)
}

// StoreFile stores the whole contents of the file at path, named
// after its base filename.
func (v *Vault) StoreFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return v.StoreFromReader(f, DefaultChunkSize, filepath.Base(path))
}

// ReadItem decrypts and returns the full payload of record index.
func (v *Vault) ReadItem(index int) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, ErrClosed
	}
	rec, err := v.recordAt(index)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, rec.DataSize)
	if _, err := v.file.ReadAt(buf, rec.DataPtr); err != nil {
		return nil, ErrCorruptOrBadPassword
	}

	cipher, err := v.factory.Renew(rec.Nonce)
	if err != nil {
		return nil, err
	}
	return cipher.Decrypt(buf), nil
}

// ReadChunks returns a ChunkReader over record index's payload,
// yielding chunks of at most chunkSize bytes. The caller must consume
// it in order: the underlying cipher carries stream position.
func (v *Vault) ReadChunks(index, chunkSize int) (*ChunkReader, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, ErrClosed
	}
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	rec, err := v.recordAt(index)
	if err != nil {
		return nil, err
	}

	cipher, err := v.factory.Renew(rec.Nonce)
	if err != nil {
		return nil, err
	}

	return &ChunkReader{v: v, rec: rec, cipher: cipher, chunkSize: chunkSize}, nil
}

// ReadAll decrypts and returns every item in the vault, in insertion
// order, including tombstones (whose payload is still readable).
func (v *Vault) ReadAll() ([][]byte, error) {
	count := v.Count()
	out := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		data, err := v.ReadItem(i)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// ExportItemToFile decrypts record index and writes it to fp, chunk
// by chunk, never buffering the whole item in memory.
func (v *Vault) ExportItemToFile(index int, fp string) error {
	cr, err := v.ReadChunks(index, DefaultChunkSize)
	if err != nil {
		return err
	}

	out, err := os.Create(fp)
	if err != nil {
		return err
	}
	defer out.Close()

	for {
		chunk, err := cr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := out.Write(chunk); err != nil {
			return err
		}
	}
}

// FindByName returns the index of the most recently stored, non-
// tombstoned record with the given name, rebuilt in memory on every
// Open (SPEC_FULL.md: there is no persisted index).
func (v *Vault) FindByName(name string) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.index.find(name)
}

// Delete tombstones record index in place: its name is cleared, its
// timestamp updated and its header re-encrypted under a fresh
// rec_nonce, but the payload bytes are never rewritten or reclaimed
// (SPEC_FULL.md §9, open question 4).
func (v *Vault) Delete(index int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	rec, err := v.recordAt(index)
	if err != nil {
		return err
	}

	recNonce, err := GenerateNonce()
	if err != nil {
		return err
	}

	oldName := rec.Name
	rec.RecNonce = recNonce
	rec.Name = ""
	rec.Timestamp = time.Now().Unix()

	encoded, err := rec.Encode(v.factory)
	if err != nil {
		return err
	}
	recordStart := rec.DataPtr - int64(RecordHeaderSize)
	if _, err := v.file.WriteAt(encoded, recordStart); err != nil {
		return err
	}
	if err := v.file.Sync(); err != nil {
		return err
	}

	if at, ok := v.index.byName[oldName]; ok && at == index {
		delete(v.index.byName, oldName)
		for j := index - 1; j >= 0; j-- {
			if v.records[j].Name == oldName {
				v.index.byName[oldName] = j
				break
			}
		}
	}
	return nil
}

// Entry is one human-readable summary line of List/Ls.
type Entry struct {
	Index     int
	Name      string
	DataSize  uint64
	Timestamp time.Time
}

// List returns a structured summary of every record, tombstones
// included (with an empty Name).
func (v *Vault) List() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]Entry, len(v.records))
	for i, rec := range v.records {
		out[i] = Entry{
			Index:     i,
			Name:      rec.Name,
			DataSize:  rec.DataSize,
			Timestamp: time.Unix(rec.Timestamp, 0),
		}
	}
	return out
}

// Ls returns a human-readable summary of the vault contents: total
// count, total size, and one line per record with its index, name,
// size and timestamp. Tombstoned entries show an empty name.
func (v *Vault) Ls() string {
	entries := v.List()

	var totalData uint64
	for _, e := range entries {
		totalData += e.DataSize
	}
	totalSize := int64(len(entries))*int64(RecordHeaderSize) + int64(totalData)

	var b strings.Builder
	fmt.Fprintf(&b, "Vault with %d entries (%s):\n", len(entries), humanize.Bytes(uint64(totalSize)))
	for _, e := range entries {
		fmt.Fprintf(&b, "%d\t%s (%s) (%s)\n", e.Index, e.Name, humanize.Bytes(e.DataSize), e.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

// Close releases the backing file handle and zeroes the derived key
// material. Afterwards the store methods, ReadItem, ReadChunks,
// ExportItemToFile and Delete return ErrClosed, and so does a second
// Close. Count, List, Ls, FindByName, BufferEndOffset and
// DataSizeTotal have no error result and keep answering from the
// in-memory record list.
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	v.factory.Zero()
	v.closed = true
	return v.file.Close()
}
