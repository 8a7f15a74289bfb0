package corewire

import "github.com/fernmesh/corewire/internal/message"

// Handlers is the event table a Session dispatches to. Every field is
// optional except Send, which is how the Session emits every outbound byte
// (handshake bytes and encrypted frames alike) — without it the Session has
// no way to reach its peer at all.
//
// Every handler is invoked synchronously, from within the Send/Recv call
// that triggered it, on whatever goroutine called that method. None of them
// may block waiting on the Session itself: there is no suspension point
// inside a Session method for another call to interleave through. A handler
// may send on the Session it was dispatched from; it must not call Recv
// (see ErrReentrant).
type Handlers struct {
	// Send is invoked once per outbound byte chunk: raw handshake bytes
	// before the handshake completes, and one Encrypt'd frame afterward.
	// Required.
	Send func(b []byte)

	// Destroy fires exactly once, when the session transitions to DEAD,
	// either from an explicit Destroy call or a fatal protocol error. err
	// is nil for a clean, caller-initiated shutdown.
	Destroy func(err error)

	// OnHandshake fires once, after the Noise exchange completes and the
	// transport cipher is live, before any queued sends are drained.
	OnHandshake func()

	OnOpen      func(channel uint64, msg message.Open)
	OnOptions   func(channel uint64, msg message.Options)
	OnStatus    func(channel uint64, msg message.Status)
	OnHave      func(channel uint64, msg message.Have)
	OnUnhave    func(channel uint64, msg message.Unhave)
	OnWant      func(channel uint64, msg message.Want)
	OnUnwant    func(channel uint64, msg message.Unwant)
	OnRequest   func(channel uint64, msg message.Request)
	OnCancel    func(channel uint64, msg message.Cancel)
	OnData      func(channel uint64, msg message.Data)
	OnClose     func(channel uint64, msg message.Close)
	OnExtension func(channel uint64, id uint64, payload []byte)
}
