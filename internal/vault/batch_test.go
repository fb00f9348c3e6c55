package vault

import (
	"bytes"
	"testing"
)

func TestStoreBatchRoundTrip(t *testing.T) {
	path, cleanup := tempFile()
	defer cleanup()

	v, err := New(path, "pass")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer v.Close()

	items := []BatchItem{
		{Name: "one", Data: []byte("1111")},
		{Name: "two", Data: []byte("22222222")},
		{Name: "three", Data: []byte("3")},
	}
	if err := v.StoreBatch(items); err != nil {
		t.Fatalf("StoreBatch failed: %v", err)
	}

	if v.Count() != len(items) {
		t.Fatalf("expected %d records, got %d", len(items), v.Count())
	}
	for i, it := range items {
		got, err := v.ReadItem(i)
		if err != nil {
			t.Fatalf("ReadItem(%d) failed: %v", i, err)
		}
		if !bytes.Equal(got, it.Data) {
			t.Errorf("record %d: got %q, want %q", i, got, it.Data)
		}
	}
}

func TestStoreBatchEmptyIsNoop(t *testing.T) {
	path, cleanup := tempFile()
	defer cleanup()

	v, err := New(path, "pass")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer v.Close()

	if err := v.StoreBatch(nil); err != nil {
		t.Fatalf("StoreBatch(nil) failed: %v", err)
	}
	if v.Count() != 0 {
		t.Errorf("expected no records, got %d", v.Count())
	}
	if v.BufferEndOffset() != 0 {
		t.Errorf("expected buffer-end unchanged, got %d", v.BufferEndOffset())
	}
}

func TestStoreBatchRejectsLongNameBeforeWriting(t *testing.T) {
	path, cleanup := tempFile()
	defer cleanup()

	v, err := New(path, "pass")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer v.Close()

	items := []BatchItem{
		{Name: "ok", Data: []byte("x")},
		{Name: string(make([]byte, nameSize+1)), Data: []byte("y")},
	}
	if err := v.StoreBatch(items); err != ErrNameTooLong {
		t.Errorf("expected ErrNameTooLong, got %v", err)
	}
	if v.Count() != 0 {
		t.Errorf("expected no records committed on validation failure, got %d", v.Count())
	}
}

func TestStoreBatchPersistsAcrossReopen(t *testing.T) {
	path, cleanup := tempFile()
	defer cleanup()

	v, err := New(path, "pass")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	items := []BatchItem{
		{Name: "alpha", Data: []byte("alpha-data")},
		{Name: "beta", Data: []byte("beta-data")},
	}
	if err := v.StoreBatch(items); err != nil {
		t.Fatalf("StoreBatch failed: %v", err)
	}
	v.Close()

	reopened, err := Open(path, "pass")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reopened.Close()

	idx, ok := reopened.FindByName("beta")
	if !ok {
		t.Fatalf("expected to find beta after reopen")
	}
	got, err := reopened.ReadItem(idx)
	if err != nil {
		t.Fatalf("ReadItem failed: %v", err)
	}
	if string(got) != "beta-data" {
		t.Errorf("got %q, want %q", got, "beta-data")
	}
}
