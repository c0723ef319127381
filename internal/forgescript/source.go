// SPDX-License-Identifier: MPL-2.0

package forgescript

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
)

type (
	// Fingerprint is the xxhash64 digest of a module's source text.
	Fingerprint uint64

	// Source is one read of a module file. Text, Fingerprint and Size always
	// describe the same bytes; a Module swaps its Source as a whole.
	Source struct {
		Path        string
		Text        []byte
		Fingerprint Fingerprint
		Size        int64
		// ModTime is the file modification time observed when Text was read.
		ModTime time.Time
		// ReadTime and HashTime are kept apart for diagnostics.
		ReadTime time.Duration
		HashTime time.Duration
	}
)

// FingerprintOf hashes b.
func FingerprintOf(b []byte) Fingerprint {
	return Fingerprint(xxhash.Sum64(b))
}

// String renders the fingerprint as 16 hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// LoadSource reads the file at path and fingerprints its content. It does not
// retry; callers decide whether a failure is skipped, reported or fatal.
func LoadSource(path string) (Source, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return Source{}, fmt.Errorf("open script: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	info, err := f.Stat()
	if err != nil {
		return Source{}, fmt.Errorf("stat script: %w", err)
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("read script %s: is a directory", path)
	}

	text, err := io.ReadAll(f)
	if err != nil {
		return Source{}, fmt.Errorf("read script: %w", err)
	}
	readTime := time.Since(start)

	start = time.Now()
	fp := FingerprintOf(text)
	hashTime := time.Since(start)

	return Source{
		Path:        path,
		Text:        text,
		Fingerprint: fp,
		Size:        int64(len(text)),
		ModTime:     info.ModTime(),
		ReadTime:    readTime,
		HashTime:    hashTime,
	}, nil
}
