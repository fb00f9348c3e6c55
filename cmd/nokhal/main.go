// Command nokhal is the CLI front-end over the vault library: create
// or open a vault, store items (including streaming large files or
// stdin), read items back out, list contents, and optionally push
// video through the ffmpeg/ffplay bridge.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/wesleyyan-sb/nokhal"
	"github.com/wesleyyan-sb/nokhal/internal/config"
	"github.com/wesleyyan-sb/nokhal/internal/media"
	"github.com/wesleyyan-sb/nokhal/internal/vault"
)

// Exit codes per SPEC_FULL.md §6: 0 success, 1 password/corruption
// failure, 2 I/O failure, 3 usage error.
const (
	exitOK          = 0
	exitBadPassword = 1
	exitIOFailure   = 2
	exitUsage       = 3
)

var log = logrus.New()

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("nokhal", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML config file")
	name := flags.String("name", "", "item name (store command)")
	out := flags.String("out", "", "output file path (read command)")
	chunkSize := flags.Int("chunk-size", 0, "streaming chunk size in bytes (0 = config default)")
	logLevel := flags.String("log-level", "", "log level override (overrides config)")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	rest := flags.Args()
	if len(rest) < 2 {
		printUsage()
		return exitUsage
	}
	cmd, path := rest[0], rest[1]

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitUsage
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}
	if *chunkSize <= 0 {
		*chunkSize = cfg.Vault.ChunkSize
	}

	switch cmd {
	case "new":
		return cmdNew(path)
	case "open":
		return cmdOpen(path)
	case "store":
		return cmdStore(path, rest[2:], *name, *chunkSize, cfg)
	case "read":
		return cmdRead(path, rest[2:], *out)
	case "ls":
		return cmdLs(path)
	default:
		printUsage()
		return exitUsage
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: nokhal <command> <vault-path> [args]

commands:
  new    <path>                     create a new, empty vault
  open   <path>                     open a vault and print its item count
  store  <path> <file|-> [--name N] store a file or stdin as a named item
  read   <index> <path> [--out P]   decrypt an item to a file or stdout
  ls     <path>                     list every item in the vault`)
}

func cmdNew(path string) int {
	password, err := readPassword("Set a new vault password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	v, err := nokhal.New(path, password)
	if err != nil {
		return reportErr(err)
	}
	defer v.Close()
	log.WithField("path", path).Info("vault created")
	return exitOK
}

func cmdOpen(path string) int {
	v, err := openExisting(path)
	if err != nil {
		return reportErr(err)
	}
	defer v.Close()
	fmt.Printf("%s: %d item(s), %d bytes total\n", path, v.Count(), v.DataSizeTotal())
	return exitOK
}

func cmdStore(path string, rest []string, name string, chunkSize int, cfg *config.Config) int {
	if len(rest) < 1 {
		printUsage()
		return exitUsage
	}
	source := rest[0]

	v, err := openExisting(path)
	if err != nil {
		return reportErr(err)
	}
	defer v.Close()

	if source == "-" {
		if name == "" {
			fmt.Fprintln(os.Stderr, "store from stdin requires --name")
			return exitUsage
		}
		if err := v.StoreFromReader(os.Stdin, chunkSize, name); err != nil {
			return reportErr(err)
		}
		log.WithField("name", name).Info("stored item from stdin")
		return exitOK
	}

	if isVideoExt(source) {
		bridge := media.NewBridge(cfg.Media.LogDir, log)
		if bridge.Available() {
			itemName := name
			if itemName == "" {
				itemName = filepath.Base(source)
			}
			ctx := context.Background()
			if err := bridge.StoreStreamableVideo(ctx, nokhal.Unwrap(v), source, itemName, media.EncodeOptions{}); err != nil {
				return reportErr(err)
			}
			log.WithField("name", itemName).Info("stored transcoded video")
			return exitOK
		}
		log.Debug("media bridge unavailable, storing file verbatim")
	}

	if name != "" {
		data, err := os.ReadFile(source)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitIOFailure
		}
		if err := v.StoreItem(data, name); err != nil {
			return reportErr(err)
		}
	} else if err := v.StoreFile(source); err != nil {
		return reportErr(err)
	}
	log.WithField("source", source).Info("stored item")
	return exitOK
}

func cmdRead(indexArg string, rest []string, out string) int {
	if len(rest) < 1 {
		printUsage()
		return exitUsage
	}
	var index int
	if _, err := fmt.Sscanf(indexArg, "%d", &index); err != nil {
		fmt.Fprintln(os.Stderr, "read: first argument must be a numeric index")
		return exitUsage
	}
	path := rest[0]

	v, err := openExisting(path)
	if err != nil {
		return reportErr(err)
	}
	defer v.Close()

	if out != "" {
		if err := v.ExportItemToFile(index, out); err != nil {
			return reportErr(err)
		}
		return exitOK
	}

	data, err := v.ReadItem(index)
	if err != nil {
		return reportErr(err)
	}
	os.Stdout.Write(data)
	return exitOK
}

func cmdLs(path string) int {
	v, err := openExisting(path)
	if err != nil {
		return reportErr(err)
	}
	defer v.Close()
	fmt.Print(v.Ls())
	return exitOK
}

func openExisting(path string) (*nokhal.Vault, error) {
	password, err := readPassword("Vault password: ")
	if err != nil {
		return nil, err
	}
	return nokhal.Open(path, password)
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var p string
		if _, err := fmt.Scanln(&p); err != nil {
			return "", err
		}
		return p, nil
	}
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func reportErr(err error) int {
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, vault.ErrCorruptOrBadPassword) {
		return exitBadPassword
	}
	if errors.Is(err, vault.ErrAlreadyExists) {
		return exitUsage
	}
	return exitIOFailure
}

func isVideoExt(path string) bool {
	switch filepath.Ext(path) {
	case ".mp4", ".mkv", ".mov", ".avi", ".webm":
		return true
	default:
		return false
	}
}
