package rtable

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

var magic = []byte{82, 84, 66, 76, 158, 29, 106, 115}

const (
	footerLen       = 16
	dataStartOffset = 0
)

// Error kinds. Errors returned by this package can be matched against these
// with errors.Is.
var (
	// ErrCorruptFormat is returned when the trailer, the properties or a record are malformed.
	ErrCorruptFormat = errors.New("rtable: corrupt format")
	// ErrIO is matched by errors originating from the underlying file.
	ErrIO = errors.New("rtable: I/O failure")
	// ErrNotSupported is returned by reverse-direction iterator operations.
	ErrNotSupported = errors.New("rtable: not supported")
	// ErrInvalidArgument is returned when a malformed key is passed in.
	ErrInvalidArgument = errors.New("rtable: invalid argument")
	// ErrNotFound is returned by Reader.Find when a key cannot be found.
	ErrNotFound = errors.New("rtable: not found")
)

var (
	errClosed   = errors.New("rtable: is closed")
	errReleased = errors.New("rtable: iterator was released")
)

// ioError wraps a failure of the underlying file.
type ioError struct {
	op  string
	off int64
	err error
}

func (e *ioError) Error() string {
	return fmt.Sprintf("rtable: %s at offset %d: %v", e.op, e.off, e.err)
}

func (e *ioError) Unwrap() error { return e.err }

func (e *ioError) Is(target error) bool { return target == ErrIO }

// readAt fills p from r at off. An io.EOF accompanying a complete read is
// ignored.
func readAt(r io.ReaderAt, p []byte, off int64, op string) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return &ioError{op: op, off: off, err: err}
}

func corruptf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrCorruptFormat, format, args...)
}

// Fixed32Element returns the n-th element of base, where every 4 bytes are
// considered a fixed little-endian uint32.
func Fixed32Element(base []byte, n int) uint32 {
	return binary.LittleEndian.Uint32(base[n*4:])
}

// --------------------------------------------------------------------

// AccessMode determines how the data region is addressed.
type AccessMode byte

func (m AccessMode) isValid() bool {
	return m >= DirectAccess && m < unknownAccess
}

func (m AccessMode) String() string {
	switch m {
	case DirectAccess:
		return "direct"
	case MappedAccess:
		return "mapped"
	}
	return fmt.Sprintf("AccessMode(%d)", byte(m))
}

// Supported access modes
const (
	// DirectAccess reads records from the file on demand.
	DirectAccess AccessMode = iota
	// MappedAccess makes the whole file resident at open time.
	MappedAccess
	unknownAccess
)
