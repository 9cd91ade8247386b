package denylist

import (
	"bytes"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// Resource is a lazily opened ranked list.
type Resource interface {
	// Open returns a fresh reader positioned at rank 1.
	Open() (io.ReadCloser, error)
}

// FileResource is a plain-text ranked list on disk.
type FileResource struct {
	Path string
}

// Open opens the file.
func (r FileResource) Open() (io.ReadCloser, error) {
	return os.Open(r.Path)
}

// CachedResource is a ranked list stored as an lz4 frame, as written by Fetcher.
// It is decompressed on the fly so a check only inflates the scanned prefix.
type CachedResource struct {
	Path string
}

// Open opens the cache file and wraps it in an lz4 reader.
func (r CachedResource) Open() (io.ReadCloser, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, err
	}
	return &lz4ReadCloser{Reader: lz4.NewReader(f), file: f}, nil
}

// lz4ReadCloser closes the underlying file of an lz4 stream.
type lz4ReadCloser struct {
	*lz4.Reader
	file *os.File
}

// Close closes the underlying file.
func (r *lz4ReadCloser) Close() error {
	return r.file.Close()
}

// BytesResource is an in-memory ranked list.
type BytesResource string

// Open returns a reader over the list.
func (r BytesResource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte(r))), nil
}
