package corewire

import (
	"github.com/fernmesh/corewire/internal/handshake"
	"github.com/fernmesh/corewire/internal/wire"
)

// defaultMaxPending is the pending-send-queue cap applied when
// WithMaxPendingQueue isn't given.
const defaultMaxPending = 1024

type config struct {
	staticKeyPair *handshake.StaticKeyPair
	maxPending    int
	maxFrameSize  int
}

func defaultConfig() config {
	return config{
		maxPending:   defaultMaxPending,
		maxFrameSize: wire.DefaultMaxFrameSize,
	}
}

// Option configures a Session at construction time, following this
// codebase's functional-options idiom.
type Option func(*config)

// WithStaticKeyPair supplies a persistent Curve25519 identity for the
// handshake instead of letting corewire generate a fresh one. Sessions that
// want a stable long-term key across reconnects (so a peer can recognize
// them by public key) use this; one-shot sessions can omit it.
func WithStaticKeyPair(public, private [32]byte) Option {
	return func(c *config) {
		c.staticKeyPair = &handshake.StaticKeyPair{Public: public, Private: private}
	}
}

// WithMaxPendingQueue overrides the pending-send queue cap (default 1024).
func WithMaxPendingQueue(n int) Option {
	return func(c *config) {
		c.maxPending = n
	}
}

// WithMaxFrameSize overrides the codec's maximum accepted frame size
// (default wire.DefaultMaxFrameSize, 8 MiB).
func WithMaxFrameSize(n int) Option {
	return func(c *config) {
		c.maxFrameSize = n
	}
}
