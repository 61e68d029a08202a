//go:build !unix

package mmap

func mapFile(fd uintptr, size int) ([]byte, error) { return nil, ErrUnsupported }

func unmapFile(b []byte) error { return ErrUnsupported }
