package corewire

import (
	"fmt"

	"github.com/fernmesh/corewire/internal/handshake"
	"github.com/fernmesh/corewire/internal/keystream"
	"github.com/fernmesh/corewire/internal/message"
	"github.com/fernmesh/corewire/internal/wire"
	corelog "github.com/fernmesh/corewire/pkg/lib/log"
)

var sessionLog = corelog.Logger("corewire")

type lifecycleState int

const (
	stateHandshaking lifecycleState = iota
	stateActive
	stateDead
)

// wireMessage is satisfied by every message schema's Marshal method (and by
// the raw extension payload wrapper in send.go). It lets Session keep one
// generic send/enqueue path instead of one per message type.
type wireMessage interface {
	Marshal() []byte
}

type pendingEntry struct {
	channel uint64
	typ     wire.Type
	msg     wireMessage
}

// Session is one side of the corewire protocol: it owns the handshake, the
// transport cipher, the pending-send queue, and dispatch to Handlers. See
// doc.go for the overall package description.
type Session struct {
	handlers Handlers
	cfg      config

	state lifecycleState

	hs         *handshake.Handshake
	localNonce []byte

	cipher *keystream.Cipher
	dec    *wire.Decoder

	localStaticPublicKey [32]byte
	remotePublicKey      [32]byte
	remoteNonce          []byte
	split                handshake.Split

	// handshakeOK is set only when the handshake completed successfully
	// and the remote identity fields above were populated. A session
	// destroyed by a failed handshake is no longer handshaking either, so
	// state alone can't answer "was the peer authenticated".
	handshakeOK bool

	pending []pendingEntry

	// inRecv guards against a handler recursing into Recv while a Recv is
	// already in flight (e.g. calling Recv from within the Send callback
	// Recv itself triggered). That would interleave two passes over the
	// decoder and rx keystream state. Sends from within a receive handler
	// are fine and common (reply to a message as it arrives); only Recv
	// reentry is rejected.
	inRecv bool
}

// New constructs a Session. initiator selects which side of the Noise XX
// pattern this session plays; it must agree with the peer's choice (exactly
// one of a connected pair is the initiator). The initiator's first
// handshake message is sent synchronously, through Handlers.Send, before
// New returns.
func New(initiator bool, handlers Handlers, opts ...Option) (*Session, error) {
	if handlers.Send == nil {
		return nil, ErrSendHandlerRequired
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	nonce, err := keystream.RandomNonce()
	if err != nil {
		return nil, fmt.Errorf("corewire: generate local nonce: %w", err)
	}

	s := &Session{
		handlers:   handlers,
		cfg:        cfg,
		state:      stateHandshaking,
		localNonce: nonce,
	}

	payload := (&message.NoisePayload{Nonce: nonce}).Marshal()

	role := handshake.Responder
	if initiator {
		role = handshake.Initiator
	}

	hsOpts := handshake.Options{}
	if cfg.staticKeyPair != nil {
		hsOpts.StaticKeyPair = cfg.staticKeyPair
	}

	hs, err := handshake.New(role, payload, hsOpts, s.sendHandshakeBytes, s.onHandshakeComplete)
	if err != nil {
		return nil, fmt.Errorf("corewire: start handshake: %w", err)
	}
	s.hs = hs
	s.localStaticPublicKey = hs.LocalStaticPublicKey()

	return s, nil
}

// LocalStaticPublicKey returns this session's own Curve25519 static public
// key, as advertised to the peer during the handshake.
func (s *Session) LocalStaticPublicKey() [32]byte {
	return s.localStaticPublicKey
}

// sendHandshakeBytes is the Handshake's send callback: handshake bytes go
// straight to the application's Send handler, unencrypted.
func (s *Session) sendHandshakeBytes(b []byte) {
	s.handlers.Send(b)
}

// onHandshakeComplete is the Handshake's completion callback. Its sequence
// is fixed: store the remote identity and split, activate the transport
// cipher, fire OnHandshake, replay any overflow bytes, then drain the
// pending queue. Nothing else may run between those steps.
func (s *Session) onHandshakeComplete(err error, remotePayload []byte, split handshake.Split, overflow []byte, remoteStatic [32]byte) {
	if err != nil {
		s.Destroy(fmt.Errorf("corewire: handshake failed: %w", err))
		return
	}
	if len(remotePayload) == 0 {
		s.Destroy(ErrMissingRemotePayload)
		return
	}

	var payload message.NoisePayload
	if err := payload.Unmarshal(remotePayload); err != nil {
		s.Destroy(fmt.Errorf("corewire: decode remote handshake payload: %w", err))
		return
	}

	s.remotePublicKey = remoteStatic
	s.remoteNonce = payload.Nonce
	s.split = split
	s.handshakeOK = true

	txKey := split.Tx[:keystream.KeySize]
	rxKey := split.Rx[:keystream.KeySize]
	cipher, err := keystream.New(txKey, s.localNonce, rxKey, s.remoteNonce)
	if err != nil {
		s.Destroy(fmt.Errorf("corewire: init transport cipher: %w", err))
		return
	}
	s.cipher = cipher
	s.dec = wire.NewDecoder(s.cfg.maxFrameSize)
	s.hs = nil
	s.state = stateActive

	sessionLog.Debug("handshake complete", "remoteKey", fmt.Sprintf("%x", remoteStatic[:8]))

	if s.handlers.OnHandshake != nil {
		s.handlers.OnHandshake()
	}

	if len(overflow) > 0 {
		if s.state == stateDead {
			return
		}
		if err := s.recvActive(overflow); err != nil {
			return
		}
	}

	s.drain()
}

// RemotePublicKey returns the peer's static Curve25519 public key. ok is
// true only once the handshake has completed successfully; a session whose
// handshake failed (or hasn't finished) reports ok == false and the zero
// value.
func (s *Session) RemotePublicKey() ([32]byte, bool) {
	return s.remotePublicKey, s.handshakeOK
}

// Destroy transitions the Session to DEAD: it finalizes and drops the
// transport cipher (keystream.Cipher.Final releases the cipher state but
// does not overwrite the key bytes held inside it, and the session's copy
// of the handshake split is not cleared), discards the pending queue, and
// invokes Handlers.Destroy
// exactly once, if it hasn't already fired. Idempotent: a second call is a
// no-op.
func (s *Session) Destroy(err error) {
	if s.state == stateDead {
		return
	}
	s.state = stateDead
	if s.cipher != nil {
		s.cipher.Final()
		s.cipher = nil
	}
	s.hs = nil
	s.pending = nil

	if s.handlers.Destroy != nil {
		s.handlers.Destroy(err)
	}
}

func (s *Session) destroyed() bool {
	return s.state == stateDead
}

// enterRecv and leaveRecv bracket Recv with the reentrancy guard described
// on the inRecv field.
func (s *Session) enterRecv() bool {
	if s.inRecv {
		s.Destroy(ErrReentrant)
		return false
	}
	s.inRecv = true
	return true
}

func (s *Session) leaveRecv() {
	s.inRecv = false
}
