// Package mmap maps files read-only into memory.
package mmap

import "errors"

// ErrUnsupported is returned on platforms without memory mapping.
var ErrUnsupported = errors.New("mmap: not supported on this platform")

// Map maps the first size bytes of the file behind fd. The returned slice
// must be released with Unmap and must not be written to.
func Map(fd uintptr, size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.New("mmap: size must be positive")
	}
	return mapFile(fd, size)
}

// Unmap releases a mapping obtained from Map.
func Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unmapFile(b)
}
