// Package archive serves the game client's bundled asset files out of its
// zip package. The archive is opened once at startup and is read-only for
// the process lifetime.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// EntryDocument is the canonical entry point served for the root path.
const EntryDocument = "index.html"

// seasonalPrefixes are the path segments the official backend namespaces
// its seasonal and test realms under.
var seasonalPrefixes = []string{"season", "ptr"}

// Store resolves logical request paths against the archive. Safe for
// concurrent use: there is no writer after Open.
type Store struct {
	reader       *zip.ReadCloser
	entries      map[string]*zip.File
	lastModified time.Time
}

// Open loads the archive at path. The returned store's last-modified
// timestamp is the archive file's own modification time, shared by every
// entry.
func Open(path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat client package %s: %w", path, err)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening client package %s: %w", path, err)
	}

	entries := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		entries[f.Name] = f
	}

	if _, ok := entries[EntryDocument]; !ok {
		r.Close()
		return nil, fmt.Errorf("client package %s has no %s", path, EntryDocument)
	}

	return &Store{reader: r, entries: entries, lastModified: info.ModTime()}, nil
}

// Close releases the underlying archive file.
func (s *Store) Close() error {
	return s.reader.Close()
}

// LastModified is the shared timestamp for every entry.
func (s *Store) LastModified() time.Time {
	return s.lastModified
}

// Unchanged reports whether the archive is no newer than the given
// precondition timestamp. If-Modified-Since carries second granularity, so
// the comparison truncates.
func (s *Store) Unchanged(since time.Time) bool {
	return !s.lastModified.Truncate(time.Second).After(since)
}

// Resolve maps an inner endpoint to an archive path. For the official
// backend a leading seasonal segment is stripped before lookup and returned
// separately so rewritten links can re-inject it. A miss is not an error:
// the caller falls through to backend forwarding.
func (s *Store) Resolve(inner string, official bool) (archivePath, prefix string, ok bool) {
	if official {
		for _, p := range seasonalPrefixes {
			if inner == "/"+p {
				inner, prefix = "/", p
				break
			}
			if strings.HasPrefix(inner, "/"+p+"/") {
				inner, prefix = inner[len(p)+1:], p
				break
			}
		}
	}

	if inner == "/" {
		archivePath = EntryDocument
	} else {
		archivePath = strings.TrimPrefix(inner, "/")
	}

	_, ok = s.entries[archivePath]
	return archivePath, prefix, ok
}

// ReadFile decompresses and returns an entry's content. The caller owns the
// returned bytes; the stored entry is never mutated.
func (s *Store) ReadFile(archivePath string) ([]byte, error) {
	f, ok := s.entries[archivePath]
	if !ok {
		return nil, fmt.Errorf("no archive entry %s", archivePath)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening archive entry %s: %w", archivePath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading archive entry %s: %w", archivePath, err)
	}
	return data, nil
}
