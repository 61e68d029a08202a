package rtable

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// Comparer defines a total order over keys.
type Comparer interface {
	// Compare returns -1, 0, or +1 depending on whether a is 'less than',
	// 'equal to' or 'greater than' b.
	Compare(a, b []byte) int

	// Name identifies the order. It is stored in the table properties.
	Name() string
}

// BytewiseComparer orders keys lexicographically.
var BytewiseComparer Comparer = bytewiseComparer{}

type bytewiseComparer struct{}

func (bytewiseComparer) Compare(a, b []byte) int { return bytes.Compare(a, b) }
func (bytewiseComparer) Name() string            { return "rtable.BytewiseComparator" }

// --------------------------------------------------------------------

// Kind enumerates the operation encoded in an internal key.
type Kind byte

// Supported kinds
const (
	KindDelete Kind = iota
	KindSet

	// kindSeek is the highest kind, used for search keys.
	kindSeek = KindSet
)

func (k Kind) String() string {
	switch k {
	case KindDelete:
		return "DEL"
	case KindSet:
		return "SET"
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// SeqNum defines precedence among entries with identical user keys.
type SeqNum uint64

// MaxSeqNum is the largest sequence number that fits into a trailer.
const MaxSeqNum SeqNum = 1<<56 - 1

const trailerLen = 8

// InternalKey combines a user key with a sequence number and a kind.
//
//	+-------------+------------+----------+
//	| UserKey (N) | SeqNum (7) | Kind (1) |
//	+-------------+------------+----------+
type InternalKey struct {
	UserKey []byte
	Trailer uint64
}

// MakeInternalKey constructs an internal key.
func MakeInternalKey(userKey []byte, seq SeqNum, kind Kind) InternalKey {
	return InternalKey{
		UserKey: userKey,
		Trailer: uint64(seq)<<8 | uint64(kind),
	}
}

// SearchKey returns the encoded internal key which sorts before all entries
// of userKey.
func SearchKey(userKey []byte) []byte {
	return MakeInternalKey(userKey, MaxSeqNum, kindSeek).Encode(nil)
}

// ParseInternalKey parses an encoded internal key. The returned user key
// references b.
func ParseInternalKey(b []byte) (InternalKey, error) {
	n := len(b) - trailerLen
	if n < 0 {
		return InternalKey{}, errors.Wrapf(ErrInvalidArgument, "internal key too short (%d bytes)", len(b))
	}
	return InternalKey{
		UserKey: b[:n:n],
		Trailer: binary.LittleEndian.Uint64(b[n:]),
	}, nil
}

// SeqNum returns the sequence number.
func (k InternalKey) SeqNum() SeqNum { return SeqNum(k.Trailer >> 8) }

// Kind returns the key kind.
func (k InternalKey) Kind() Kind { return Kind(k.Trailer & 0xff) }

// Encode appends the encoded key to dst.
func (k InternalKey) Encode(dst []byte) []byte {
	var tmp [trailerLen]byte
	binary.LittleEndian.PutUint64(tmp[:], k.Trailer)
	dst = append(dst, k.UserKey...)
	return append(dst, tmp[:]...)
}

func (k InternalKey) String() string {
	return fmt.Sprintf("%q#%d,%s", k.UserKey, k.SeqNum(), k.Kind())
}

// --------------------------------------------------------------------

type internalKeyComparer struct {
	user Comparer
}

// NewInternalKeyComparer returns a comparer for encoded internal keys. User
// keys are ordered by user, entries of the same user key by decreasing
// trailer. Keys too short to carry a trailer sort first.
func NewInternalKeyComparer(user Comparer) Comparer {
	if user == nil {
		user = BytewiseComparer
	}
	return internalKeyComparer{user: user}
}

func (c internalKeyComparer) Compare(a, b []byte) int {
	ka, erra := ParseInternalKey(a)
	kb, errb := ParseInternalKey(b)
	switch {
	case erra != nil && errb != nil:
		return bytes.Compare(a, b)
	case erra != nil:
		return -1
	case errb != nil:
		return 1
	}

	if n := c.user.Compare(ka.UserKey, kb.UserKey); n != 0 {
		return n
	}
	switch {
	case ka.Trailer > kb.Trailer:
		return -1
	case ka.Trailer < kb.Trailer:
		return 1
	}
	return 0
}

func (c internalKeyComparer) Name() string {
	return "rtable.InternalKeyComparator:" + c.user.Name()
}

// userComparer returns the user key order of an internal comparer, or nil.
func userComparer(c Comparer) Comparer {
	if ic, ok := c.(internalKeyComparer); ok {
		return ic.user
	}
	return nil
}
