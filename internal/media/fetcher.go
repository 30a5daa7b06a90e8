// Package media turns remote media links into local audio files by driving
// the yt-dlp command line tool.
package media

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrFetchFailed wraps every failure to produce an audio file: unreachable or
// unsupported locators, download errors and transcoding errors alike.
var ErrFetchFailed = errors.New("fetch failed")

// Artifact is a transient audio file in the working directory.
type Artifact struct {
	Path string
	Name string
	Size int64
}

// Options configures the Fetcher.
type Options struct {
	// Binary is the yt-dlp executable name or path.
	Binary string
	// Dir is the working directory receiving artifacts.
	Dir string
	// CookieFile is passed to yt-dlp when it exists. Empty disables it.
	CookieFile string
	// Format is the target audio codec and file extension, e.g. "mp3".
	Format string
	// Quality is the target bitrate in kbps.
	Quality int
}

// Fetcher downloads media and extracts audio with yt-dlp.
type Fetcher struct {
	logger *slog.Logger
	fs     afero.Fs
	opts   Options
	newID  func() string
}

// NewFetcher creates a Fetcher. fs must be backed by the OS filesystem since
// yt-dlp writes the artifacts itself.
func NewFetcher(logger *slog.Logger, fs afero.Fs, opts Options) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		logger: logger.With("component", "media_fetcher"),
		fs:     fs,
		opts:   opts,
		newID:  newArtifactID,
	}
}

func newArtifactID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// PrepareWorkDir creates the working directory if it does not exist.
func PrepareWorkDir(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create working directory %s: %w", dir, err)
	}
	return nil
}

// Fetch downloads locator and returns the produced audio artifact, named with
// a fresh random hex identifier. Every error wraps ErrFetchFailed and leaves
// no partial file behind. There is no timeout beyond ctx.
func (f *Fetcher) Fetch(ctx context.Context, locator string) (Artifact, error) {
	if locator == "" {
		return Artifact{}, fmt.Errorf("%w: empty locator", ErrFetchFailed)
	}

	id := f.newID()
	name := id + "." + f.opts.Format
	path := filepath.Join(f.opts.Dir, name)
	log := f.logger.With("artifact_id", id)

	args := f.args(id, locator, f.cookieFile(ctx))
	log.DebugContext(ctx, "Running fetcher", "binary", f.opts.Binary, "locator", locator)

	cmd := exec.CommandContext(ctx, f.opts.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	startTime := time.Now()
	if err := cmd.Run(); err != nil {
		f.removePartials(ctx, id)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Artifact{}, fmt.Errorf("%w: %s: %v: %s", ErrFetchFailed, locator, err, msg)
		}
		return Artifact{}, fmt.Errorf("%w: %s: %v", ErrFetchFailed, locator, err)
	}

	info, err := f.fs.Stat(path)
	if err != nil {
		f.removePartials(ctx, id)
		return Artifact{}, fmt.Errorf("%w: %s: no output produced: %v", ErrFetchFailed, locator, err)
	}

	log.InfoContext(ctx, "Fetched audio",
		"file", name,
		"size", humanize.Bytes(uint64(info.Size())),
		"duration", time.Since(startTime))

	return Artifact{Path: path, Name: name, Size: info.Size()}, nil
}

// cookieFile returns the configured cookie file when it exists on disk.
func (f *Fetcher) cookieFile(ctx context.Context) string {
	if f.opts.CookieFile == "" {
		return ""
	}
	if _, err := f.fs.Stat(f.opts.CookieFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.WarnContext(ctx, "Cannot stat cookie file, fetching without it", "path", f.opts.CookieFile, "error", err)
		}
		return ""
	}
	return f.opts.CookieFile
}

func (f *Fetcher) args(id, locator, cookieFile string) []string {
	args := []string{
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", f.opts.Format,
		"--audio-quality", strconv.Itoa(f.opts.Quality) + "K",
		"--no-playlist",
		"--no-progress",
		"--quiet",
		"--output", filepath.Join(f.opts.Dir, id+".%(ext)s"),
	}
	if cookieFile != "" {
		args = append(args, "--cookies", cookieFile)
	}
	// "--" keeps a locator starting with a dash from being read as an option.
	return append(args, "--", locator)
}

func (f *Fetcher) removePartials(ctx context.Context, id string) {
	matches, err := afero.Glob(f.fs, filepath.Join(f.opts.Dir, id+".*"))
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to list partial files", "artifact_id", id, "error", err)
		return
	}
	for _, m := range matches {
		if err := f.fs.Remove(m); err != nil {
			f.logger.WarnContext(ctx, "Failed to remove partial file", "path", m, "error", err)
		}
	}
}
