package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wesleyyan-sb/nokhal/internal/vault"
)

func TestNewBridgeNeverPanics(t *testing.T) {
	b := NewBridge(t.TempDir(), nil)
	if b == nil {
		t.Fatal("NewBridge returned nil")
	}
}

func TestUnavailableBridgeRejectsStoreAndPlay(t *testing.T) {
	b := &Bridge{logDir: t.TempDir()} // zero-value paths: binaries not found
	if b.Available() {
		t.Skip("ffmpeg/ffplay unexpectedly on PATH for this zero-value bridge")
	}

	dir := t.TempDir()
	vaultPath := filepath.Join(dir, "v.nok")
	v, err := vault.New(vaultPath, "pass")
	if err != nil {
		t.Fatalf("vault.New failed: %v", err)
	}
	defer v.Close()

	ctx := context.Background()
	if err := b.StoreStreamableVideo(ctx, v, "in.mp4", "item", EncodeOptions{}); !errors.Is(err, ErrMediaUnavailable) {
		t.Errorf("expected ErrMediaUnavailable, got %v", err)
	}
	if err := b.PlayVideo(ctx, v, 0); !errors.Is(err, ErrMediaUnavailable) {
		t.Errorf("expected ErrMediaUnavailable, got %v", err)
	}
}

func TestEncodeOptionsDefaults(t *testing.T) {
	o := EncodeOptions{}.withDefaults()
	if o.Codec != "libx265" || o.Preset != "medium" || o.CRF != "23" {
		t.Errorf("unexpected defaults: %+v", o)
	}

	custom := EncodeOptions{Codec: "libx264"}.withDefaults()
	if custom.Codec != "libx264" {
		t.Errorf("explicit codec must not be overridden, got %q", custom.Codec)
	}
	if custom.Preset != "medium" || custom.CRF != "23" {
		t.Errorf("unset fields must still take defaults: %+v", custom)
	}
}

func TestOpenLogFileFallsBackToDevNull(t *testing.T) {
	b := &Bridge{}
	f, err := b.openLogFile("store")
	if err != nil {
		t.Fatalf("openLogFile failed: %v", err)
	}
	defer f.Close()
	if f.Name() != os.DevNull {
		t.Errorf("expected devnull fallback when logDir is empty, got %q", f.Name())
	}
}

func TestOpenLogFileCreatesUniqueFiles(t *testing.T) {
	dir := t.TempDir()
	b := &Bridge{logDir: dir}

	f1, err := b.openLogFile("play")
	if err != nil {
		t.Fatalf("openLogFile failed: %v", err)
	}
	f1.Close()
	f2, err := b.openLogFile("play")
	if err != nil {
		t.Fatalf("openLogFile failed: %v", err)
	}
	f2.Close()

	if f1.Name() == f2.Name() {
		t.Errorf("expected unique log file names, got %q twice", f1.Name())
	}
}
