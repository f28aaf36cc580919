package service

import (
	"io"
	"time"
)

// FileStream is an open stored file ready to be written to a response.
type FileStream struct {
	Body        io.ReadCloser
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
	ETag        string
}

// readCloser pairs a reader that may wrap sniffed bytes with the original closer.
type readCloser struct {
	io.Reader
	io.Closer
}
