package corewire

import (
	"fmt"

	"github.com/fernmesh/corewire/internal/message"
	"github.com/fernmesh/corewire/internal/wire"
)

// Recv feeds inbound bytes into the session. Pre-handshake, they're handed
// to the Noise handshake; post-handshake, they're decrypted and decoded
// into frames dispatched to Handlers. Recv is a no-op once the session is
// destroyed.
func (s *Session) Recv(data []byte) error {
	if s.destroyed() {
		return nil
	}
	if !s.enterRecv() {
		return ErrReentrant
	}
	defer s.leaveRecv()

	if s.state == stateHandshaking {
		if err := s.hs.Recv(data); err != nil {
			// The handshake's own completion callback has already run
			// Destroy with this error; nothing further to do here.
			return err
		}
		return nil
	}

	return s.recvActive(data)
}

func (s *Session) recvActive(data []byte) error {
	plaintext := s.cipher.Decrypt(nil, data)
	if err := s.dec.Feed(plaintext, s.dispatchFrame); err != nil {
		s.Destroy(fmt.Errorf("corewire: frame decode failed: %w", err))
		return err
	}
	return nil
}

func (s *Session) dispatchFrame(f wire.Frame) error {
	if s.destroyed() {
		return nil
	}

	switch f.Type {
	case wire.TypeOpen:
		var m message.Open
		if err := m.Unmarshal(f.Payload); err != nil {
			return s.failDecode("open", err)
		}
		if s.handlers.OnOpen != nil {
			s.handlers.OnOpen(f.Channel, m)
		}
	case wire.TypeOptions:
		var m message.Options
		if err := m.Unmarshal(f.Payload); err != nil {
			return s.failDecode("options", err)
		}
		if s.handlers.OnOptions != nil {
			s.handlers.OnOptions(f.Channel, m)
		}
	case wire.TypeStatus:
		var m message.Status
		if err := m.Unmarshal(f.Payload); err != nil {
			return s.failDecode("status", err)
		}
		if s.handlers.OnStatus != nil {
			s.handlers.OnStatus(f.Channel, m)
		}
	case wire.TypeHave:
		var m message.Have
		if err := m.Unmarshal(f.Payload); err != nil {
			return s.failDecode("have", err)
		}
		if s.handlers.OnHave != nil {
			s.handlers.OnHave(f.Channel, m)
		}
	case wire.TypeUnhave:
		var m message.Unhave
		if err := m.Unmarshal(f.Payload); err != nil {
			return s.failDecode("unhave", err)
		}
		if s.handlers.OnUnhave != nil {
			s.handlers.OnUnhave(f.Channel, m)
		}
	case wire.TypeWant:
		var m message.Want
		if err := m.Unmarshal(f.Payload); err != nil {
			return s.failDecode("want", err)
		}
		if s.handlers.OnWant != nil {
			s.handlers.OnWant(f.Channel, m)
		}
	case wire.TypeUnwant:
		var m message.Unwant
		if err := m.Unmarshal(f.Payload); err != nil {
			return s.failDecode("unwant", err)
		}
		if s.handlers.OnUnwant != nil {
			s.handlers.OnUnwant(f.Channel, m)
		}
	case wire.TypeRequest:
		var m message.Request
		if err := m.Unmarshal(f.Payload); err != nil {
			return s.failDecode("request", err)
		}
		if s.handlers.OnRequest != nil {
			s.handlers.OnRequest(f.Channel, m)
		}
	case wire.TypeCancel:
		var m message.Cancel
		if err := m.Unmarshal(f.Payload); err != nil {
			return s.failDecode("cancel", err)
		}
		if s.handlers.OnCancel != nil {
			s.handlers.OnCancel(f.Channel, m)
		}
	case wire.TypeData:
		var m message.Data
		if err := m.Unmarshal(f.Payload); err != nil {
			return s.failDecode("data", err)
		}
		if s.handlers.OnData != nil {
			s.handlers.OnData(f.Channel, m)
		}
	case wire.TypeClose:
		var m message.Close
		if err := m.Unmarshal(f.Payload); err != nil {
			return s.failDecode("close", err)
		}
		if s.handlers.OnClose != nil {
			s.handlers.OnClose(f.Channel, m)
		}
	case wire.TypeExtension:
		id, n := wire.ConsumeVarint(f.Payload)
		if n < 0 {
			return ErrMalformedExtension
		}
		if s.handlers.OnExtension != nil {
			s.handlers.OnExtension(f.Channel, id, f.Payload[n:])
		}
	}
	return nil
}

func (s *Session) failDecode(kind string, err error) error {
	return fmt.Errorf("decode %s message: %w", kind, err)
}
