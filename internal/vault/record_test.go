package vault

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestRecordEncodeDecodeRoundTrip(t *testing.T) {
	factory := NewCipherFactory("pass")
	recNonce, _ := GenerateNonce()
	payloadNonce, _ := GenerateNonce()

	rec := &Record{
		RecNonce:  recNonce,
		Nonce:     payloadNonce,
		Name:      "photos/beach.jpg",
		DataSize:  12345,
		Timestamp: 1700000000,
	}

	encoded, err := rec.Encode(factory)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(encoded) != RecordHeaderSize {
		t.Fatalf("encoded record must be %d bytes, got %d", RecordHeaderSize, len(encoded))
	}

	got, err := DecodeRecord(bytes.NewReader(encoded), factory)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	if got.Name != rec.Name || got.DataSize != rec.DataSize || got.Timestamp != rec.Timestamp || got.Nonce != rec.Nonce {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestRecordEncodeRejectsLongName(t *testing.T) {
	factory := NewCipherFactory("pass")
	rec := &Record{Name: strings.Repeat("x", nameSize+1)}
	if _, err := rec.Encode(factory); err != ErrNameTooLong {
		t.Errorf("expected ErrNameTooLong, got %v", err)
	}
}

func TestRecordEncodePadsNameWithNUL(t *testing.T) {
	factory := NewCipherFactory("pass")
	recNonce, _ := GenerateNonce()
	rec := &Record{RecNonce: recNonce, Name: "short"}

	encoded, err := rec.Encode(factory)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := DecodeRecord(bytes.NewReader(encoded), factory)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	if got.Name != "short" {
		t.Errorf("expected trailing NUL padding trimmed, got %q", got.Name)
	}
}

func TestDecodeRecordEmptyReaderIsEOF(t *testing.T) {
	factory := NewCipherFactory("pass")
	_, err := DecodeRecord(bytes.NewReader(nil), factory)
	if err != io.EOF {
		t.Errorf("expected io.EOF on empty reader, got %v", err)
	}
}

func TestDecodeRecordShortReadIsCorrupt(t *testing.T) {
	factory := NewCipherFactory("pass")
	truncated := make([]byte, RecordHeaderSize-1)
	_, err := DecodeRecord(bytes.NewReader(truncated), factory)
	if err != ErrCorruptOrBadPassword {
		t.Errorf("expected ErrCorruptOrBadPassword on truncated record, got %v", err)
	}
}

func TestDecodeRecordWrongPasswordIsCorrupt(t *testing.T) {
	writer := NewCipherFactory("correct")
	reader := NewCipherFactory("wrong")

	recNonce, _ := GenerateNonce()
	rec := &Record{RecNonce: recNonce, Name: "secret", DataSize: 42, Timestamp: 1}
	encoded, err := rec.Encode(writer)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := DecodeRecord(bytes.NewReader(encoded), reader)
	if err != nil {
		// Garbage plaintext can legitimately surface as a decode error
		// elsewhere in the pipeline; this record format has no MAC.
		return
	}
	if got.Name == rec.Name && got.DataSize == rec.DataSize {
		t.Errorf("expected wrong password to produce garbled header, got identical fields")
	}
}

func TestTombstoned(t *testing.T) {
	rec := &Record{Name: ""}
	if !rec.Tombstoned() {
		t.Errorf("empty name should be tombstoned")
	}
	rec.Name = "x"
	if rec.Tombstoned() {
		t.Errorf("non-empty name should not be tombstoned")
	}
}
