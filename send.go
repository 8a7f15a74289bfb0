package corewire

import (
	"github.com/fernmesh/corewire/internal/capability"
	"github.com/fernmesh/corewire/internal/message"
	"github.com/fernmesh/corewire/internal/wire"
)

// rawPayload lets SendExtension reuse the generic pendingEntry/emit path:
// its "message" is already-encoded bytes, not a message.* schema.
type rawPayload []byte

func (r rawPayload) Marshal() []byte { return []byte(r) }

// SendOpen sends an Open message on channel. If msg carries a raw Key and
// no Capability, the Key is replaced with a session-bound capability
// derived from the handshake split before the frame is encoded. The
// rewrite happens at emit time, once the split exists; pre-handshake sends
// are always queued, never emitted directly.
func (s *Session) SendOpen(channel uint64, msg message.Open) (bool, error) {
	m := msg
	return s.sendFrame(channel, wire.TypeOpen, &m)
}

func (s *Session) SendOptions(channel uint64, msg message.Options) (bool, error) {
	m := msg
	return s.sendFrame(channel, wire.TypeOptions, &m)
}

func (s *Session) SendStatus(channel uint64, msg message.Status) (bool, error) {
	m := msg
	return s.sendFrame(channel, wire.TypeStatus, &m)
}

func (s *Session) SendHave(channel uint64, msg message.Have) (bool, error) {
	m := msg
	return s.sendFrame(channel, wire.TypeHave, &m)
}

func (s *Session) SendUnhave(channel uint64, msg message.Unhave) (bool, error) {
	m := msg
	return s.sendFrame(channel, wire.TypeUnhave, &m)
}

func (s *Session) SendWant(channel uint64, msg message.Want) (bool, error) {
	m := msg
	return s.sendFrame(channel, wire.TypeWant, &m)
}

func (s *Session) SendUnwant(channel uint64, msg message.Unwant) (bool, error) {
	m := msg
	return s.sendFrame(channel, wire.TypeUnwant, &m)
}

func (s *Session) SendRequest(channel uint64, msg message.Request) (bool, error) {
	m := msg
	return s.sendFrame(channel, wire.TypeRequest, &m)
}

func (s *Session) SendCancel(channel uint64, msg message.Cancel) (bool, error) {
	m := msg
	return s.sendFrame(channel, wire.TypeCancel, &m)
}

func (s *Session) SendData(channel uint64, msg message.Data) (bool, error) {
	m := msg
	return s.sendFrame(channel, wire.TypeData, &m)
}

// SendClose always emits a frame, even for a zero-value msg. There is no
// "empty Close means no-op" special case.
func (s *Session) SendClose(channel uint64, msg message.Close) (bool, error) {
	m := msg
	return s.sendFrame(channel, wire.TypeClose, &m)
}

// SendExtension sends a type-15 frame: varint(id) followed by payload,
// verbatim. Extension frames are never a protocol error at the codec
// layer regardless of id.
func (s *Session) SendExtension(channel, id uint64, payload []byte) (bool, error) {
	body := wire.AppendVarint(make([]byte, 0, 10+len(payload)), id)
	body = append(body, payload...)
	return s.sendFrame(channel, wire.TypeExtension, rawPayload(body))
}

// Capability derives the capability this session sends for feed key key:
// the token that proves possession of key without revealing it on the
// wire. It returns ok == false (the "absent" sentinel) until the handshake
// has completed and a split exists.
func (s *Session) Capability(key []byte) (cap []byte, ok bool) {
	if !s.handshakeOK {
		return nil, false
	}
	c, err := capability.Derive(s.split.Tx[:capability.Size], s.split.Rx[:capability.Size], key)
	if err != nil {
		return nil, false
	}
	return c, true
}

// RemoteCapability derives the capability this session expects to receive
// from its peer for feed key key. See Capability.
func (s *Session) RemoteCapability(key []byte) (cap []byte, ok bool) {
	if !s.handshakeOK {
		return nil, false
	}
	c, err := capability.RemoteCapability(s.split.Tx[:capability.Size], s.split.Rx[:capability.Size], key)
	if err != nil {
		return nil, false
	}
	return c, true
}

// sendFrame is the shared send path for every message type. It returns
// (true, nil) if the frame was encoded, encrypted, and handed to
// Handlers.Send synchronously; (false, nil) if it was queued because the
// handshake hasn't completed or a prior drain is still in progress; and
// (false, err) if it couldn't even be queued (session destroyed, or the
// pending queue is already full).
func (s *Session) sendFrame(channel uint64, typ wire.Type, msg wireMessage) (bool, error) {
	if s.destroyed() {
		return false, ErrSessionDestroyed
	}

	if s.state == stateHandshaking || len(s.pending) > 0 {
		if len(s.pending) >= s.cfg.maxPending {
			return false, ErrPendingQueueFull
		}
		s.pending = append(s.pending, pendingEntry{channel: channel, typ: typ, msg: msg})
		return false, nil
	}

	s.emit(channel, typ, msg)
	return true, nil
}

// emit is only ever reached once the handshake has completed (sendFrame
// queues everything else), so s.split and s.cipher are always live here —
// rewriteOpen never needs its own pre-handshake guard.
func (s *Session) emit(channel uint64, typ wire.Type, msg wireMessage) {
	if typ == wire.TypeOpen {
		if open, ok := msg.(*message.Open); ok {
			s.rewriteOpen(open)
		}
	}

	payload := msg.Marshal()
	frame := wire.Encode(channel, typ, payload)
	ciphertext := s.cipher.Encrypt(nil, frame)
	s.handlers.Send(ciphertext)
}

func (s *Session) rewriteOpen(m *message.Open) {
	if len(m.Key) == 0 || len(m.Capability) != 0 {
		return
	}
	if c, ok := s.Capability(m.Key); ok {
		m.Capability = c
		m.Key = nil
	}
}

// drain flushes the pending queue in FIFO order, stopping immediately if
// the session is destroyed partway through.
func (s *Session) drain() {
	for len(s.pending) > 0 {
		if s.destroyed() {
			return
		}
		entry := s.pending[0]
		s.pending = s.pending[1:]
		s.emit(entry.channel, entry.typ, entry.msg)
	}
}
