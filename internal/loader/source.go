package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zstd"
)

// Source is something the loader can read lines from: a FilePath or a Stream.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FilePath is a log file on local disk.
type FilePath string

func (p FilePath) Name() string { return string(p) }

func (p FilePath) Open() (io.ReadCloser, error) {
	f, err := os.Open(string(p))
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(string(p), ".zst") {
		return f, nil
	}
	return newZstdReadCloser(f)
}

// Stream is in-memory content, usually an upload, with the name it arrived under.
type Stream struct {
	Filename string
	Data     []byte
}

func (s Stream) Name() string { return s.Filename }

func (s Stream) Open() (io.ReadCloser, error) {
	r := io.NopCloser(bytes.NewReader(s.Data))
	if !strings.HasSuffix(s.Filename, ".zst") {
		return r, nil
	}
	return newZstdReadCloser(r)
}

// zstdReadCloser closes both the decoder and the underlying reader.
type zstdReadCloser struct {
	*zstd.Decoder
	under io.Closer
}

func newZstdReadCloser(rc io.ReadCloser) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return &zstdReadCloser{Decoder: dec, under: rc}, nil
}

func (z *zstdReadCloser) Close() error {
	z.Decoder.Close()
	return z.under.Close()
}

// ExpandPaths resolves paths and glob patterns (including /var/log/**/*.log)
// to files. A pattern that matches nothing is an error, so typos surface.
func ExpandPaths(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files matched %q", pattern)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, err
			}
			if !seen[abs] {
				seen[abs] = true
				out = append(out, abs)
			}
		}
	}

	return out, nil
}
