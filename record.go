package rtable

import "encoding/binary"

const lenPrefix = 4

// recordBuffer holds the scratch space for decoding records in direct mode.
type recordBuffer struct {
	hdr [lenPrefix]byte
	key []byte // key followed by the value length prefix
	val []byte
}

func grow(p []byte, n int) []byte {
	if n <= cap(p) {
		return p[:n]
	}
	return make([]byte, n)
}

// decodeRecord decodes the record at off. It returns the key, the value and
// the offset of the following record. In mapped mode key and value reference
// the mapping, otherwise they reference buf.
func (r *Reader) decodeRecord(off int64, buf *recordBuffer) (key, val []byte, next int64, err error) {
	end := r.dataEnd
	if off+lenPrefix > end {
		return nil, nil, end, corruptf("record at offset %d: truncated key length", off)
	}

	if r.data != nil {
		// mapped
		data := r.data
		klen := int64(Fixed32Element(data[off:], 0))
		kpos := off + lenPrefix
		if kpos+klen+lenPrefix > end {
			return nil, nil, end, corruptf("record at offset %d: key length %d overruns data region", off, klen)
		}
		vlen := int64(Fixed32Element(data[kpos+klen:], 0))
		vpos := kpos + klen + lenPrefix
		if vpos+vlen > end {
			return nil, nil, end, corruptf("record at offset %d: value length %d overruns data region", off, vlen)
		}
		return data[kpos : kpos+klen : kpos+klen], data[vpos : vpos+vlen : vpos+vlen], vpos + vlen, nil
	}

	// direct
	if err := readAt(r.file, buf.hdr[:], off, "read record"); err != nil {
		return nil, nil, end, err
	}
	klen := int64(Fixed32Element(buf.hdr[:], 0))
	kpos := off + lenPrefix
	if kpos+klen+lenPrefix > end {
		return nil, nil, end, corruptf("record at offset %d: key length %d overruns data region", off, klen)
	}

	buf.key = grow(buf.key, int(klen+lenPrefix))
	if err := readAt(r.file, buf.key, kpos, "read record"); err != nil {
		return nil, nil, end, err
	}
	vlen := int64(Fixed32Element(buf.key[klen:], 0))
	vpos := kpos + klen + lenPrefix
	if vpos+vlen > end {
		return nil, nil, end, corruptf("record at offset %d: value length %d overruns data region", off, vlen)
	}

	buf.val = grow(buf.val, int(vlen))
	if err := readAt(r.file, buf.val, vpos, "read record"); err != nil {
		return nil, nil, end, err
	}
	return buf.key[:klen:klen], buf.val, vpos + vlen, nil
}

// appendRecord appends an encoded record to dst.
func appendRecord(dst, key, value []byte) []byte {
	var tmp [lenPrefix]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(key)))
	dst = append(dst, tmp[:]...)
	dst = append(dst, key...)
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(value)))
	dst = append(dst, tmp[:]...)
	return append(dst, value...)
}
