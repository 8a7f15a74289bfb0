package corewire

import "errors"

// Construction errors.
var (
	// ErrSendHandlerRequired is returned by New when Handlers.Send is nil;
	// it is the one required handler.
	ErrSendHandlerRequired = errors.New("corewire: Handlers.Send is required")
)

// Handshake and session-lifecycle errors. ErrMissingRemotePayload,
// ErrReentrant and ErrMalformedExtension are fatal: they reach the
// application through Handlers.Destroy, which fires at most once.
// ErrSessionDestroyed and ErrPendingQueueFull are only returned to the
// caller of a Send* method; they do not destroy the session.
var (
	// ErrMissingRemotePayload is reported when the peer's final handshake
	// message carried no application payload.
	ErrMissingRemotePayload = errors.New("corewire: remote handshake payload missing")
	// ErrSessionDestroyed is returned by a Send* method called after the
	// session has already transitioned to DEAD.
	ErrSessionDestroyed = errors.New("corewire: session destroyed")
	// ErrPendingQueueFull is returned by a Send* method when the
	// pre-handshake (or mid-drain) pending queue is already at its
	// configured capacity. The queue is deliberately bounded so a peer
	// that never completes its handshake cannot make the application
	// buffer sends without limit.
	ErrPendingQueueFull = errors.New("corewire: pending send queue full")
	// ErrReentrant is returned (and the session destroyed) when Recv is
	// called while a Recv on the same Session is still in flight, e.g.
	// from within a handler that Recv itself triggered. A nested Recv
	// would interleave two passes over the decoder and receive keystream.
	ErrReentrant = errors.New("corewire: reentrant call into session")
	// ErrMalformedExtension is reported when a type-15 frame's payload
	// doesn't even contain a complete leading varint extension id.
	ErrMalformedExtension = errors.New("corewire: malformed extension frame")
)
