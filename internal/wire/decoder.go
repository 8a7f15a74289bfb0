package wire

type decodeState int

const (
	stateReadLen decodeState = iota
	stateReadHeader
	stateReadBody
)

// varintReader decodes a base-128 varint one byte at a time, so it can be
// fed across arbitrarily many partial Feed calls without losing progress.
type varintReader struct {
	value uint64
	shift uint
	n     int
}

func (r *varintReader) reset() {
	*r = varintReader{}
}

// step consumes one byte, returning (value, true, nil) once the varint is
// complete.
func (r *varintReader) step(b byte) (uint64, bool, error) {
	if r.n >= 10 {
		return 0, false, ErrInvalidVarint
	}
	r.value |= uint64(b&0x7f) << r.shift
	r.shift += 7
	r.n++
	if b < 0x80 {
		if r.value > maxVarintValue {
			return 0, false, ErrInvalidVarint
		}
		return r.value, true, nil
	}
	return 0, false, nil
}

// Decoder turns a byte stream into a sequence of Frames, accumulating
// across Feed calls at arbitrary chunk boundaries. It is not safe for
// concurrent use; corewire's Session, like the rest of this codebase's
// single-threaded cooperative model, owns one Decoder for its inbound
// stream (outbound frames are built with Encode).
type Decoder struct {
	maxFrameSize int

	state   decodeState
	vr      varintReader
	bodyLen uint64 // remaining bytes declared by the length prefix, header included
	header  uint64

	body    []byte
	bodyPos int
}

// NewDecoder constructs a Decoder. maxFrameSize <= 0 selects
// DefaultMaxFrameSize.
func NewDecoder(maxFrameSize int) *Decoder {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Decoder{maxFrameSize: maxFrameSize}
}

// Feed processes data and invokes onFrame once per fully decoded frame, in
// order. It stops and returns the first error encountered (a malformed
// varint, an oversize frame); the caller must treat that as fatal and stop
// feeding this Decoder.
func (d *Decoder) Feed(data []byte, onFrame func(Frame) error) error {
	for _, b := range data {
		switch d.state {
		case stateReadLen:
			v, done, err := d.vr.step(b)
			if err != nil {
				return err
			}
			if !done {
				continue
			}
			if int(v) > d.maxFrameSize {
				return ErrFrameTooLarge
			}
			d.bodyLen = v
			d.vr.reset()
			if d.bodyLen == 0 {
				// A zero-length body has no header byte either; nothing to
				// dispatch. Stay in stateReadLen for the next frame.
				continue
			}
			d.state = stateReadHeader

		case stateReadHeader:
			v, done, err := d.vr.step(b)
			if err != nil {
				return err
			}
			d.bodyLen--
			if !done {
				// The declared body length must cover every header byte;
				// running out mid-varint would otherwise underflow bodyLen.
				if d.bodyLen == 0 {
					return ErrHeaderExceedsFrameLength
				}
				continue
			}
			d.header = v
			d.vr.reset()
			d.body = make([]byte, d.bodyLen)
			d.bodyPos = 0
			if d.bodyLen == 0 {
				if err := d.dispatch(onFrame); err != nil {
					return err
				}
				continue
			}
			d.state = stateReadBody

		case stateReadBody:
			d.body[d.bodyPos] = b
			d.bodyPos++
			if d.bodyPos < len(d.body) {
				continue
			}
			if err := d.dispatch(onFrame); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Decoder) dispatch(onFrame func(Frame) error) error {
	channel := d.header >> maxTypeBits
	typ := Type(d.header & (1<<maxTypeBits - 1))

	if typ != TypeExtension && !IsKnownType(typ) {
		return ErrUnknownType
	}

	frame := Frame{Channel: channel, Type: typ, Payload: d.body}
	d.body = nil
	d.state = stateReadLen
	d.bodyLen = 0
	d.header = 0

	return onFrame(frame)
}
