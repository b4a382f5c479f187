// Package fetch downloads benchmark datasets into the local cache.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// ChecksumError is returned when a download's checksum does not match.
type ChecksumError struct {
	Name string
	Want string
	Got  string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: want %s, got %s", e.Name, e.Want, e.Got)
}

// Fetcher downloads files into a cache directory. Files are keyed by
// name; a cached file with a matching checksum is never re-downloaded.
type Fetcher struct {
	// CacheDir is where downloads land.
	CacheDir string

	// Client is the HTTP client to use. Nil means http.DefaultClient.
	Client *http.Client
}

// Result describes a completed fetch.
type Result struct {
	// Path is the cached file location.
	Path string

	// Size is the file size in bytes.
	Size int64

	// Cached is true when the file was already present and valid.
	Cached bool
}

// HumanSize returns the size formatted for display, e.g. "1.9 GB".
func (r Result) HumanSize() string {
	return humanize.Bytes(uint64(r.Size))
}

// Fetch downloads url into the cache as name, verifying sha256 when
// non-empty. The download goes to a temp file first and is renamed into
// place only after the checksum passes, so a cached file is always whole.
func (f *Fetcher) Fetch(ctx context.Context, name, url, sha string) (Result, error) {
	if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create cache dir: %w", err)
	}

	dest := filepath.Join(f.CacheDir, name)
	if info, err := os.Stat(dest); err == nil {
		if sha == "" {
			return Result{Path: dest, Size: info.Size(), Cached: true}, nil
		}
		got, err := fileChecksum(dest)
		if err != nil {
			return Result{}, err
		}
		if got == sha {
			return Result{Path: dest, Size: info.Size(), Cached: true}, nil
		}
		// Stale or corrupt cache entry: fall through and re-download.
	}

	size, err := f.download(ctx, dest, url, sha, name)
	if err != nil {
		return Result{}, err
	}
	return Result{Path: dest, Size: size}, nil
}

func (f *Fetcher) download(ctx context.Context, dest, url, sha, name string) (int64, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(f.CacheDir, name+".part-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("flush download: %w", err)
	}

	if sha != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if got != sha {
			return 0, &ChecksumError{Name: name, Want: sha, Got: got}
		}
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("finalize download: %w", err)
	}
	return size, nil
}

func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("checksum %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
