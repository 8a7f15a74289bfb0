package message

// Open opens a channel against a feed, identified by its discovery key.
// Exactly one of Capability or Key is meaningful at a time: a caller builds
// Key (the raw, long-term feed secret) and corewire's Session rewrites it
// into Capability before the frame is ever encoded (see SendOpen there).
// Unmarshal never performs that rewrite; it only reports whichever field
// the wire bytes actually carried.
type Open struct {
	DiscoveryKey []byte
	Capability   []byte
	Key          []byte
}

func (m *Open) Marshal() []byte {
	buf := make([]byte, 0, len(m.DiscoveryKey)+len(m.Capability)+len(m.Key)+9)
	buf = putBytes(buf, 1, m.DiscoveryKey)
	buf = putBytes(buf, 2, m.Capability)
	buf = putBytes(buf, 3, m.Key)
	return buf
}

func (m *Open) Unmarshal(data []byte) error {
	*m = Open{}
	r := fieldReader{data: data}
	for {
		field, wireType, _, b, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch field {
		case 1:
			if wireType != 2 {
				return ErrMalformed
			}
			m.DiscoveryKey = cloneBytes(b)
		case 2:
			if wireType != 2 {
				return ErrMalformed
			}
			m.Capability = cloneBytes(b)
		case 3:
			if wireType != 2 {
				return ErrMalformed
			}
			m.Key = cloneBytes(b)
		}
	}
}

// Options negotiates per-channel behavior: the extension names this peer
// supports on the channel, and whether it wants the peer to acknowledge
// receipt of subsequent Have messages.
type Options struct {
	Extensions []string
	Ack        bool
}

func (m *Options) Marshal() []byte {
	var buf []byte
	for _, ext := range m.Extensions {
		buf = putString(buf, 1, ext)
	}
	buf = putBool(buf, 2, m.Ack)
	return buf
}

func (m *Options) Unmarshal(data []byte) error {
	*m = Options{}
	r := fieldReader{data: data}
	for {
		field, wireType, v, b, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch field {
		case 1:
			if wireType != 2 {
				return ErrMalformed
			}
			m.Extensions = append(m.Extensions, string(b))
		case 2:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Ack = v != 0
		}
	}
}

// Status announces whether this peer is currently willing to upload and/or
// download data on the channel.
type Status struct {
	Uploading   bool
	Downloading bool
}

func (m *Status) Marshal() []byte {
	var buf []byte
	buf = putBool(buf, 1, m.Uploading)
	buf = putBool(buf, 2, m.Downloading)
	return buf
}

func (m *Status) Unmarshal(data []byte) error {
	*m = Status{}
	r := fieldReader{data: data}
	for {
		field, wireType, v, _, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch field {
		case 1:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Uploading = v != 0
		case 2:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Downloading = v != 0
		}
	}
}

// Have announces possession of Length entries starting at Start. Bitfield,
// when present, refines a non-contiguous range; Ack requests the peer
// confirm receipt.
type Have struct {
	Start    uint64
	Length   uint64
	Bitfield []byte
	Ack      bool
}

func (m *Have) Marshal() []byte {
	var buf []byte
	buf = putVarint(buf, 1, m.Start)
	buf = putVarint(buf, 2, m.Length)
	buf = putBytes(buf, 3, m.Bitfield)
	buf = putBool(buf, 4, m.Ack)
	return buf
}

func (m *Have) Unmarshal(data []byte) error {
	*m = Have{}
	r := fieldReader{data: data}
	for {
		field, wireType, v, b, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch field {
		case 1:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Start = v
		case 2:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Length = v
		case 3:
			if wireType != 2 {
				return ErrMalformed
			}
			m.Bitfield = cloneBytes(b)
		case 4:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Ack = v != 0
		}
	}
}

// Unhave retracts a previously announced Have range.
type Unhave struct {
	Start  uint64
	Length uint64
}

func (m *Unhave) Marshal() []byte {
	var buf []byte
	buf = putVarint(buf, 1, m.Start)
	buf = putVarint(buf, 2, m.Length)
	return buf
}

func (m *Unhave) Unmarshal(data []byte) error {
	*m = Unhave{}
	return unmarshalStartLength(data, &m.Start, &m.Length)
}

// Want requests the peer notify this side of Have ranges overlapping
// [Start, Start+Length).
type Want struct {
	Start  uint64
	Length uint64
}

func (m *Want) Marshal() []byte {
	var buf []byte
	buf = putVarint(buf, 1, m.Start)
	buf = putVarint(buf, 2, m.Length)
	return buf
}

func (m *Want) Unmarshal(data []byte) error {
	*m = Want{}
	return unmarshalStartLength(data, &m.Start, &m.Length)
}

// Unwant retracts a previously sent Want range.
type Unwant struct {
	Start  uint64
	Length uint64
}

func (m *Unwant) Marshal() []byte {
	var buf []byte
	buf = putVarint(buf, 1, m.Start)
	buf = putVarint(buf, 2, m.Length)
	return buf
}

func (m *Unwant) Unmarshal(data []byte) error {
	*m = Unwant{}
	return unmarshalStartLength(data, &m.Start, &m.Length)
}

func unmarshalStartLength(data []byte, start, length *uint64) error {
	r := fieldReader{data: data}
	for {
		field, wireType, v, _, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch field {
		case 1:
			if wireType != 0 {
				return ErrMalformed
			}
			*start = v
		case 2:
			if wireType != 0 {
				return ErrMalformed
			}
			*length = v
		}
	}
}

// Request asks the peer to send the entry at Index. Bytes, when nonzero,
// requests a byte-range variant; Hash requests only the Merkle proof node
// rather than the entry's value; Nodes caps how many proof nodes the
// response may include; Priority lets a peer hint scheduling order.
type Request struct {
	Index    uint64
	Bytes    uint64
	Hash     bool
	Nodes    uint64
	Priority uint64
}

func (m *Request) Marshal() []byte {
	var buf []byte
	buf = putVarint(buf, 1, m.Index)
	buf = putVarint(buf, 2, m.Bytes)
	buf = putBool(buf, 3, m.Hash)
	buf = putVarint(buf, 4, m.Nodes)
	buf = putVarint(buf, 5, m.Priority)
	return buf
}

func (m *Request) Unmarshal(data []byte) error {
	*m = Request{}
	r := fieldReader{data: data}
	for {
		field, wireType, v, _, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch field {
		case 1:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Index = v
		case 2:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Bytes = v
		case 3:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Hash = v != 0
		case 4:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Nodes = v
		case 5:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Priority = v
		}
	}
}

// Cancel withdraws a previously sent Request for the same Index.
type Cancel struct {
	Index uint64
	Bytes uint64
	Hash  bool
}

func (m *Cancel) Marshal() []byte {
	var buf []byte
	buf = putVarint(buf, 1, m.Index)
	buf = putVarint(buf, 2, m.Bytes)
	buf = putBool(buf, 3, m.Hash)
	return buf
}

func (m *Cancel) Unmarshal(data []byte) error {
	*m = Cancel{}
	r := fieldReader{data: data}
	for {
		field, wireType, v, _, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch field {
		case 1:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Index = v
		case 2:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Bytes = v
		case 3:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Hash = v != 0
		}
	}
}

// DataNode is one Merkle tree proof node accompanying a Data entry.
type DataNode struct {
	Index uint64
	Hash  []byte
}

func (n *DataNode) marshal() []byte {
	var buf []byte
	buf = putVarint(buf, 1, n.Index)
	buf = putBytes(buf, 2, n.Hash)
	return buf
}

func (n *DataNode) unmarshal(data []byte) error {
	*n = DataNode{}
	r := fieldReader{data: data}
	for {
		field, wireType, v, b, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch field {
		case 1:
			if wireType != 0 {
				return ErrMalformed
			}
			n.Index = v
		case 2:
			if wireType != 2 {
				return ErrMalformed
			}
			n.Hash = cloneBytes(b)
		}
	}
}

// Data is the response to a Request: the entry's Value plus whatever proof
// Nodes are needed to verify it against the feed's Merkle root, and,
// optionally, a Signature covering the tree state.
type Data struct {
	Index     uint64
	Value     []byte
	Nodes     []DataNode
	Signature []byte
}

func (m *Data) Marshal() []byte {
	var buf []byte
	buf = putVarint(buf, 1, m.Index)
	buf = putBytes(buf, 2, m.Value)
	for i := range m.Nodes {
		buf = putBytes(buf, 3, m.Nodes[i].marshal())
	}
	buf = putBytes(buf, 4, m.Signature)
	return buf
}

func (m *Data) Unmarshal(data []byte) error {
	*m = Data{}
	r := fieldReader{data: data}
	for {
		field, wireType, v, b, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch field {
		case 1:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Index = v
		case 2:
			if wireType != 2 {
				return ErrMalformed
			}
			m.Value = cloneBytes(b)
		case 3:
			if wireType != 2 {
				return ErrMalformed
			}
			var n DataNode
			if err := n.unmarshal(b); err != nil {
				return err
			}
			m.Nodes = append(m.Nodes, n)
		case 4:
			if wireType != 2 {
				return ErrMalformed
			}
			m.Signature = cloneBytes(b)
		}
	}
}

// Close tears down a channel. Per spec, a Close frame is always emitted
// regardless of whether DiscoveryKey/Uncork hold anything — there is no
// "empty means no-op" special case.
type Close struct {
	DiscoveryKey []byte
	Uncork       bool
}

func (m *Close) Marshal() []byte {
	var buf []byte
	buf = putBytes(buf, 1, m.DiscoveryKey)
	buf = putBool(buf, 2, m.Uncork)
	return buf
}

func (m *Close) Unmarshal(data []byte) error {
	*m = Close{}
	r := fieldReader{data: data}
	for {
		field, wireType, v, b, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch field {
		case 1:
			if wireType != 2 {
				return ErrMalformed
			}
			m.DiscoveryKey = cloneBytes(b)
		case 2:
			if wireType != 0 {
				return ErrMalformed
			}
			m.Uncork = v != 0
		}
	}
}

// NoisePayload is the application payload attached to the final Noise XX
// handshake message: this side's transport-cipher nonce.
type NoisePayload struct {
	Nonce []byte
}

func (m *NoisePayload) Marshal() []byte {
	var buf []byte
	buf = putBytes(buf, 1, m.Nonce)
	return buf
}

func (m *NoisePayload) Unmarshal(data []byte) error {
	*m = NoisePayload{}
	r := fieldReader{data: data}
	for {
		field, wireType, _, b, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if field == 1 {
			if wireType != 2 {
				return ErrMalformed
			}
			m.Nonce = cloneBytes(b)
		}
	}
}
