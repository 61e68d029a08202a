package rtable

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Iterator is a forward-only cursor over the records of a table. It is not
// safe for concurrent use.
type Iterator struct {
	r *Reader

	offset     int64 // position of the current record
	nextOffset int64 // position of the following record

	key, val []byte
	buf      recordBuffer

	err error
}

func (i *Iterator) init(r *Reader) {
	i.r = r
	i.offset = r.dataEnd
	i.nextOffset = r.dataEnd
	i.key, i.val = nil, nil
	i.err = nil
	if r.isClosed() {
		i.err = errClosed
	}
}

// Valid returns true if the iterator is positioned at a record.
func (i *Iterator) Valid() bool {
	return i.offset >= dataStartOffset && i.offset < i.r.dataEnd
}

// SeekToFirst positions the iterator at the first record and returns true
// if successful.
func (i *Iterator) SeekToFirst() bool {
	if i.err != nil {
		return false
	}

	i.nextOffset = dataStartOffset
	if i.nextOffset >= i.r.dataEnd {
		i.offset, i.nextOffset = i.r.dataEnd, i.r.dataEnd
		i.key, i.val = nil, nil
		return false
	}
	return i.next()
}

// Seek advances the iterator to the first record at or after the current
// position whose key is not less than target. The iterator is never moved
// backwards; an iterator past the end stays there.
func (i *Iterator) Seek(target []byte) bool {
	cmp := i.r.cmp
	for ok := i.Valid() && i.err == nil; ok; ok = i.next() {
		if cmp.Compare(i.key, target) >= 0 {
			return true
		}
	}
	return false
}

// Next advances the cursor to the next record and returns true if
// successful.
func (i *Iterator) Next() bool {
	if i.err != nil || !i.Valid() {
		return false
	}
	return i.next()
}

func (i *Iterator) next() bool {
	end := i.r.dataEnd

	i.offset = i.nextOffset
	if i.offset >= end {
		i.offset, i.nextOffset = end, end
		i.key, i.val = nil, nil
		return false
	}

	key, val, next, err := i.r.decodeRecord(i.offset, &i.buf)
	if err != nil {
		i.r.log.Error("rtable: iteration failed", zap.Int64("offset", i.offset), zap.Error(err))
		i.offset, i.nextOffset = end, end
		i.key, i.val = nil, nil
		i.err = err
		return false
	}

	i.key, i.val, i.nextOffset = key, val, next
	return true
}

// SeekToLast is not supported and always returns an ErrNotSupported error.
func (i *Iterator) SeekToLast() error {
	return errors.Wrap(ErrNotSupported, "SeekToLast")
}

// SeekForPrev is not supported and always returns an ErrNotSupported error.
func (i *Iterator) SeekForPrev(target []byte) error {
	return errors.Wrap(ErrNotSupported, "SeekForPrev")
}

// Prev is not supported and always returns an ErrNotSupported error.
func (i *Iterator) Prev() error {
	return errors.Wrap(ErrNotSupported, "Prev")
}

// Key returns the key of the current record.
func (i *Iterator) Key() []byte { return i.key }

// Value returns the value of the current record. Please note that keys and
// values are temporary buffers and must be copied if used beyond the next
// cursor move.
func (i *Iterator) Value() []byte { return i.val }

// Err exposes iterator errors, if any.
func (i *Iterator) Err() error { return i.err }

// Release releases the iterator. The iterator must not be used after this
// method is called.
func (i *Iterator) Release() {
	if i.err == nil {
		i.err = errReleased
	}
	i.offset, i.nextOffset = i.r.dataEnd, i.r.dataEnd
	i.key, i.val = nil, nil
}

// --------------------------------------------------------------------

// Arena allocates iterators in slabs. Iterators obtained through an arena
// stay valid until Reset is called. An Arena is not safe for concurrent use.
type Arena struct {
	slabs [][]Iterator
	n     int // slots used in the last slab
	size  int
}

// NewArena creates an arena with room for n iterators per slab.
func NewArena(n int) *Arena {
	if n < 1 {
		n = 8
	}
	return &Arena{size: n}
}

func (a *Arena) alloc() *Iterator {
	if len(a.slabs) == 0 || a.n == len(a.slabs[len(a.slabs)-1]) {
		a.slabs = append(a.slabs, make([]Iterator, a.size))
		a.n = 0
	}
	it := &a.slabs[len(a.slabs)-1][a.n]
	a.n++
	return it
}

// Len returns the number of allocated iterators.
func (a *Arena) Len() int {
	if len(a.slabs) == 0 {
		return 0
	}
	return (len(a.slabs)-1)*a.size + a.n
}

// Reset releases all iterators at once. The first slab, including the decode
// buffers of its iterators, is kept for reuse.
func (a *Arena) Reset() {
	if len(a.slabs) == 0 {
		return
	}

	slab := a.slabs[0]
	for j := range slab {
		buf := slab[j].buf
		slab[j] = Iterator{buf: recordBuffer{key: buf.key[:0], val: buf.val[:0]}}
	}
	a.slabs = a.slabs[:1]
	a.n = 0
}
