// Package archive unpacks uploaded zip archives into a working directory,
// expands zstd-compressed members in place and discovers the log files inside.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// ErrArchive is matched by every ArchiveError.
var ErrArchive = errors.New("archive error")

// ErrMemberPattern reports a member pattern that is not valid doublestar syntax.
var ErrMemberPattern = errors.New("invalid member pattern")

// ArchiveError reports a failure that aborted extraction of a whole archive.
type ArchiveError struct {
	Op   string // open, extract
	Path string // member path, empty for container-level failures
	Err  error
}

func (e *ArchiveError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("archive %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("archive %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

func (e *ArchiveError) Is(target error) bool { return target == ErrArchive }

// MemberError reports one .zst member that could not be decompressed.
type MemberError struct {
	Path string
	Err  error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("decompress %s: %v", e.Path, e.Err)
}

func (e *MemberError) Unwrap() error { return e.Err }

// DecompressReport summarizes a zstd pass over a directory.
type DecompressReport struct {
	Decompressed int
	Failures     []*MemberError
}

// Result is the outcome of Unpack.
type Result struct {
	Dir        string
	LogFiles   []string // absolute paths, traversal order
	Decompress DecompressReport
}

const (
	zstSuffix = ".zst"
	logSuffix = ".log"
)

// Unpacker extracts archives. The zero value is not usable; call New.
type Unpacker struct {
	logger *slog.Logger
}

// New returns an Unpacker that reports per-member outcomes to logger.
func New(logger *slog.Logger) *Unpacker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Unpacker{logger: logger}
}

// Unpack extracts data into dest, decompresses .zst members and lists the
// .log files whose path relative to dest matches member (all when empty).
func (u *Unpacker) Unpack(data []byte, dest, member string) (Result, error) {
	if err := ValidateMember(member); err != nil {
		return Result{}, err
	}
	if err := u.Extract(bytes.NewReader(data), int64(len(data)), dest); err != nil {
		return Result{}, err
	}

	report := u.DecompressAll(dest)

	files, err := Discover(dest, member)
	if err != nil {
		return Result{}, err
	}

	return Result{Dir: dest, LogFiles: files, Decompress: report}, nil
}

// Extract writes every entry of the zip container to dest, preserving relative
// paths. Any failure aborts the extraction and is returned as *ArchiveError.
func (u *Unpacker) Extract(r io.ReaderAt, size int64, dest string) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return &ArchiveError{Op: "open", Err: err}
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return &ArchiveError{Op: "extract", Err: err}
	}

	root, err := filepath.Abs(dest)
	if err != nil {
		return &ArchiveError{Op: "extract", Err: err}
	}

	for _, f := range zr.File {
		if err := extractEntry(f, root); err != nil {
			return &ArchiveError{Op: "extract", Path: f.Name, Err: err}
		}
	}

	u.logger.Info("archive extracted", "dir", root, "entries", len(zr.File))
	return nil
}

func extractEntry(f *zip.File, root string) error {
	target := filepath.Join(root, filepath.FromSlash(f.Name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return fmt.Errorf("entry escapes extraction directory")
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// DecompressAll replaces every *.zst file under dir with its decompressed
// sibling. Failed members are left in place and reported, never fatal.
func (u *Unpacker) DecompressAll(dir string) DecompressReport {
	var report DecompressReport

	var members []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Failures = append(report.Failures, &MemberError{Path: path, Err: err})
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), zstSuffix) {
			members = append(members, path)
		}
		return nil
	})

	if len(members) == 0 {
		return report
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		for _, m := range members {
			report.Failures = append(report.Failures, &MemberError{Path: m, Err: err})
		}
		return report
	}
	defer dec.Close()

	for _, m := range members {
		if err := decompressFile(dec, m); err != nil {
			u.logger.Warn("skipping zstd member", "path", m, "error", err)
			report.Failures = append(report.Failures, &MemberError{Path: m, Err: err})
			continue
		}
		report.Decompressed++
	}

	u.logger.Info("zstd pass complete", "decompressed", report.Decompressed, "failed", len(report.Failures))
	return report
}

// decompressFile writes path minus its .zst suffix and removes path on success.
func decompressFile(dec *zstd.Decoder, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := dec.Reset(in); err != nil {
		return err
	}

	target := strings.TrimSuffix(path, zstSuffix)
	tmp := target + ".partial"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, dec); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return err
	}

	in.Close()
	return os.Remove(path)
}

// ValidateMember checks a member pattern; empty selects every file.
func ValidateMember(member string) error {
	if member != "" && !doublestar.ValidatePattern(member) {
		return fmt.Errorf("%w %q", ErrMemberPattern, member)
	}
	return nil
}

// Discover walks dir and returns the absolute paths of all *.log files, in
// traversal order. A non-empty member pattern (doublestar syntax) must match
// the slash-separated path relative to dir. No matches is not an error.
func Discover(dir, member string) ([]string, error) {
	if err := ValidateMember(member); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), logSuffix) {
			return nil
		}
		if member != "" {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if ok, _ := doublestar.Match(member, filepath.ToSlash(rel)); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover log files in %s: %w", dir, err)
	}

	return files, nil
}
