package rtable

import (
	"bytes"
	"encoding/binary"
	"io"
)

// maxPropertiesLen bounds the size of the properties block.
const maxPropertiesLen = 64 << 10

// Properties are table-wide attributes stored in the properties block.
type Properties struct {
	NumEntries   uint64 // number of records
	DataSize     uint64 // byte length of the data region
	RawKeySize   uint64 // total bytes of all keys
	RawValueSize uint64 // total bytes of all values
	ComparerName string // name of the key order used by the writer
}

func (p *Properties) encode(dst []byte) []byte {
	var tmp [binary.MaxVarintLen64]byte
	for _, u := range []uint64{p.NumEntries, p.DataSize, p.RawKeySize, p.RawValueSize, uint64(len(p.ComparerName))} {
		n := binary.PutUvarint(tmp[:], u)
		dst = append(dst, tmp[:n]...)
	}
	return append(dst, p.ComparerName...)
}

func (p *Properties) decode(b []byte) error {
	var fields [5]uint64
	for i := range fields {
		u, n := binary.Uvarint(b)
		if n <= 0 {
			return corruptf("truncated properties block")
		}
		fields[i] = u
		b = b[n:]
	}
	if fields[4] != uint64(len(b)) {
		return corruptf("bad comparer name length %d, %d bytes left", fields[4], len(b))
	}

	*p = Properties{
		NumEntries:   fields[0],
		DataSize:     fields[1],
		RawKeySize:   fields[2],
		RawValueSize: fields[3],
		ComparerName: string(b),
	}
	return nil
}

// readProperties reads the footer, validates the magic number and decodes
// the properties block.
func readProperties(r io.ReaderAt, size int64, magic []byte) (*Properties, error) {
	if size < footerLen {
		return nil, corruptf("file too short (%d bytes)", size)
	}

	// read footer
	var tmp [footerLen]byte
	footerOffset := size - footerLen
	if err := readAt(r, tmp[:], footerOffset, "read footer"); err != nil {
		return nil, err
	}

	// parse footer
	if !bytes.Equal(tmp[8:16], magic) {
		return nil, corruptf("bad magic byte sequence")
	}
	propsOffset := int64(binary.LittleEndian.Uint64(tmp[:8]))
	if propsOffset < dataStartOffset || propsOffset > footerOffset {
		return nil, corruptf("properties offset %d out of bounds", propsOffset)
	}
	if n := footerOffset - propsOffset; n == 0 {
		return nil, corruptf("truncated properties block")
	} else if n > maxPropertiesLen {
		return nil, corruptf("properties block too large (%d bytes)", n)
	}

	// read properties
	raw := make([]byte, int(footerOffset-propsOffset))
	if err := readAt(r, raw, propsOffset, "read properties"); err != nil {
		return nil, err
	}

	props := new(Properties)
	if err := props.decode(raw); err != nil {
		return nil, err
	}
	if props.DataSize > uint64(propsOffset-dataStartOffset) {
		return nil, corruptf("data size %d exceeds properties offset %d", props.DataSize, propsOffset)
	}
	return props, nil
}
