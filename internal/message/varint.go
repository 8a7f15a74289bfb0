package message

import "errors"

// ErrMalformed is returned by Unmarshal when the input is not a valid
// encoding of the target schema: a truncated varint, a length-delimited
// field whose declared length runs past the end of the buffer, or a field
// whose wire type doesn't match what was expected for its number.
var ErrMalformed = errors.New("message: malformed field encoding")

func appendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// consumeVarint reads a base-128 varint from the front of data, returning
// the decoded value and the number of bytes consumed, or n == -1 if data
// doesn't hold a complete, in-range varint (more than 10 continuation bytes,
// i.e. overflowing 64 bits).
func consumeVarint(data []byte) (uint64, int) {
	var v uint64
	for i := 0; i < len(data) && i < 10; i++ {
		b := data[i]
		v |= uint64(b&0x7f) << (7 * i)
		if b < 0x80 {
			return v, i + 1
		}
	}
	return 0, -1
}

func putTag(buf []byte, field int, wireType byte) []byte {
	return appendVarint(buf, uint64(field)<<3|uint64(wireType))
}

func putBytes(buf []byte, field int, v []byte) []byte {
	if len(v) == 0 {
		return buf
	}
	buf = putTag(buf, field, 2)
	buf = appendVarint(buf, uint64(len(v)))
	return append(buf, v...)
}

func putVarint(buf []byte, field int, v uint64) []byte {
	if v == 0 {
		return buf
	}
	buf = putTag(buf, field, 0)
	return appendVarint(buf, v)
}

func putBool(buf []byte, field int, v bool) []byte {
	if !v {
		return buf
	}
	return putVarint(buf, field, 1)
}

func putString(buf []byte, field int, v string) []byte {
	if v == "" {
		return buf
	}
	return putBytes(buf, field, []byte(v))
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

// fieldReader walks a field-encoded buffer one (field, wireType, value) at a
// time. Scalar varint fields land in v; length-delimited fields land in b,
// a window directly into the reader's remaining buffer (callers that retain
// it past the next call must clone it).
type fieldReader struct {
	data []byte
}

func (r *fieldReader) next() (field int, wireType byte, v uint64, b []byte, ok bool, err error) {
	if len(r.data) == 0 {
		return 0, 0, 0, nil, false, nil
	}
	tag, n := consumeVarint(r.data)
	if n < 0 {
		return 0, 0, 0, nil, false, ErrMalformed
	}
	r.data = r.data[n:]
	field = int(tag >> 3)
	wireType = byte(tag & 0x7)

	switch wireType {
	case 0:
		v, n = consumeVarint(r.data)
		if n < 0 {
			return 0, 0, 0, nil, false, ErrMalformed
		}
		r.data = r.data[n:]
	case 2:
		l, n := consumeVarint(r.data)
		if n < 0 {
			return 0, 0, 0, nil, false, ErrMalformed
		}
		r.data = r.data[n:]
		if l > uint64(len(r.data)) {
			return 0, 0, 0, nil, false, ErrMalformed
		}
		b = r.data[:l]
		r.data = r.data[l:]
	default:
		return 0, 0, 0, nil, false, ErrMalformed
	}
	return field, wireType, v, b, true, nil
}
