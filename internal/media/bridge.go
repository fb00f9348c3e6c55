// Package media is the optional adapter that drives the external
// ffmpeg/ffplay binaries to stream video into and out of a vault.
// Grounded on iconidentify-xgrabba's pkg/ffmpeg.VideoProcessor, which
// detects its binaries with exec.LookPath and drives them with
// exec.CommandContext the same way.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wesleyyan-sb/nokhal/internal/vault"
)

// playChunkSize matches SPEC_FULL.md §4.5's play_video default.
const playChunkSize = 1_000_000

// Bridge is a capability detected once at startup: if ffmpeg or
// ffplay are missing from PATH, StoreStreamableVideo and PlayVideo
// both report ErrMediaUnavailable and every other vault operation is
// unaffected.
type Bridge struct {
	ffmpegPath string
	ffplayPath string
	logDir     string
	logger     *logrus.Logger
}

// NewBridge probes PATH for ffmpeg and ffplay and returns a Bridge
// reflecting whatever it found. logDir is where subprocess stderr is
// redirected; it is created on first use if missing.
func NewBridge(logDir string, logger *logrus.Logger) *Bridge {
	ffmpegPath, _ := exec.LookPath("ffmpeg")
	ffplayPath, _ := exec.LookPath("ffplay")
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Bridge{ffmpegPath: ffmpegPath, ffplayPath: ffplayPath, logDir: logDir, logger: logger}
}

// Available reports whether both binaries were found on PATH.
func (b *Bridge) Available() bool {
	return b.ffmpegPath != "" && b.ffplayPath != ""
}

// EncodeOptions controls the ffmpeg re-encode used by
// StoreStreamableVideo.
type EncodeOptions struct {
	Codec      string // e.g. "libx264" or "libx265"
	Preset     string // compression speed, e.g. "medium"
	CRF        string // quality, "0" lossless .. "51" terrible
	ExtraFlags []string
}

func (o EncodeOptions) withDefaults() EncodeOptions {
	if o.Codec == "" {
		o.Codec = "libx265"
	}
	if o.Preset == "" {
		o.Preset = "medium"
	}
	if o.CRF == "" {
		o.CRF = "23"
	}
	return o
}

// StoreStreamableVideo re-encodes the video at path into a Matroska
// byte stream on ffmpeg's stdout and feeds that stream directly into
// the vault's standard back-patch store pipeline, so the whole
// re-encoded file never needs to exist on disk. ffmpeg's exit status
// is not consulted (DESIGN.md, decision 5): by the time it would be known,
// the store has already observed the full stream or failed on I/O.
func (b *Bridge) StoreStreamableVideo(ctx context.Context, v *vault.Vault, path, name string, opts EncodeOptions) error {
	if !b.Available() {
		return ErrMediaUnavailable
	}
	opts = opts.withDefaults()

	args := []string{
		"-i", path,
		"-c:v", opts.Codec,
		"-preset", opts.Preset,
		"-crf", opts.CRF,
	}
	args = append(args, opts.ExtraFlags...)
	args = append(args, "-f", "matroska", "-")

	cmd := exec.CommandContext(ctx, b.ffmpegPath, args...)

	logFile, err := b.openLogFile("store")
	if err != nil {
		return err
	}
	defer logFile.Close()
	cmd.Stderr = logFile

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("media: %w: %v", ErrSubprocess, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("media: %w: %v", ErrSubprocess, err)
	}

	storeErr := v.StoreFromReader(stdout, vault.DefaultChunkSize, name)
	if waitErr := cmd.Wait(); waitErr != nil {
		b.logger.WithError(waitErr).Debug("media: ffmpeg exited non-zero, ignoring per design")
	}
	return storeErr
}

// PlayVideo decrypts record index in 1MB chunks and feeds them to
// ffplay's stdin until either the vault item is exhausted or ffplay
// exits / closes its stdin. A broken pipe there is the normal
// end-of-play signal, not an error.
func (b *Bridge) PlayVideo(ctx context.Context, v *vault.Vault, index int) error {
	if !b.Available() {
		return ErrMediaUnavailable
	}

	cmd := exec.CommandContext(ctx, b.ffplayPath, "-autoexit", "-")

	logFile, err := b.openLogFile("play")
	if err != nil {
		return err
	}
	defer logFile.Close()
	cmd.Stderr = logFile

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("media: %w: %v", ErrSubprocess, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("media: %w: %v", ErrSubprocess, err)
	}

	cr, err := v.ReadChunks(index, playChunkSize)
	if err != nil {
		stdin.Close()
		cmd.Wait()
		return err
	}

	for {
		chunk, err := cr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if _, werr := stdin.Write(chunk); werr != nil {
			break // ffplay closed stdin / exited: normal end of playback
		}
	}

	stdin.Close()
	if waitErr := cmd.Wait(); waitErr != nil {
		b.logger.WithError(waitErr).Debug("media: ffplay exited non-zero, ignoring per design")
	}
	return nil
}

func (b *Bridge) openLogFile(op string) (*os.File, error) {
	if b.logDir == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	if err := os.MkdirAll(b.logDir, 0700); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s-%s.log", op, uuid.NewString())
	return os.Create(filepath.Join(b.logDir, name))
}
