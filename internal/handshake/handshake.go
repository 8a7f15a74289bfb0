package handshake

import "errors"

// Role distinguishes which side of the XX pattern a Handshake plays. The
// initiator sends message 1 and 3; the responder sends message 2.
type Role bool

const (
	Initiator Role = true
	Responder Role = false
)

// Split holds the two raw chaining-key-derived halves produced once the
// handshake completes. Each is hashLen (64) bytes; a caller that needs a
// 32-byte symmetric key (internal/keystream does) takes the first 32 bytes.
type Split struct {
	Tx []byte // this side's sending half
	Rx []byte // this side's receiving half
}

// StaticKeyPair lets a caller supply a persistent Curve25519 identity instead
// of having Handshake generate an ephemeral-only one. Sessions that want a
// stable long-term key across reconnects pass one in; one-shot sessions can
// leave it nil and get a fresh key pair per handshake.
type StaticKeyPair struct {
	Public  [32]byte
	Private [32]byte
}

// Options configures a Handshake.
type Options struct {
	StaticKeyPair *StaticKeyPair
}

// CompletionFunc is invoked exactly once, synchronously from within Recv,
// when the handshake finishes or fails irrecoverably. remotePayload is the
// application payload the peer attached to its own final handshake message;
// overflow is any bytes received alongside the final handshake message that
// belong to the first post-handshake transport frame.
type CompletionFunc func(err error, remotePayload []byte, split Split, overflow []byte, remoteStaticKey [32]byte)

var (
	// ErrHandshakeComplete is returned by Recv if called again after the
	// handshake has already finished or failed.
	ErrHandshakeComplete = errors.New("handshake: already complete")
)

const (
	stepAwaitMessage1 = iota // responder only
	stepAwaitMessage2        // initiator only
	stepAwaitMessage3        // responder only
	stepDone
)

// Handshake drives one side of a single Noise XX exchange. It is fed inbound
// bytes through Recv and emits outbound bytes through the send callback
// given to New; it never performs I/O itself.
type Handshake struct {
	role Role
	send func([]byte)
	done CompletionFunc

	ss symmetricState

	localStatic    keyPair
	localEphemeral keyPair

	remoteEphemeral [32]byte
	remoteStatic    [32]byte

	localPayload []byte

	step      int
	buf       []byte
	completed bool
}

// New starts a handshake. For an Initiator, message 1 is sent synchronously
// before New returns. localPayload is this side's application payload,
// attached to the last message this side writes (message 2 for a responder,
// message 3 for an initiator) — both sides therefore learn the other's
// payload before either activates a transport cipher.
func New(role Role, localPayload []byte, opts Options, send func([]byte), onComplete CompletionFunc) (*Handshake, error) {
	static, err := resolveStatic(opts)
	if err != nil {
		return nil, err
	}
	ephemeral, err := generateKeyPair()
	if err != nil {
		return nil, err
	}

	h := &Handshake{
		role:           role,
		send:           send,
		done:           onComplete,
		localStatic:    static,
		localEphemeral: ephemeral,
		localPayload:   localPayload,
	}
	h.ss.initialize([]byte(protocolName))

	if role == Initiator {
		if err := h.writeMessage1(); err != nil {
			return nil, err
		}
		h.step = stepAwaitMessage2
	} else {
		h.step = stepAwaitMessage1
	}
	return h, nil
}

func resolveStatic(opts Options) (keyPair, error) {
	if opts.StaticKeyPair != nil {
		return keyPair{private: opts.StaticKeyPair.Private, public: opts.StaticKeyPair.Public}, nil
	}
	return generateKeyPair()
}

// LocalStaticPublicKey returns this side's static public key, as advertised
// to the remote peer during the handshake.
func (h *Handshake) LocalStaticPublicKey() [32]byte {
	return h.localStatic.public
}

// Recv feeds inbound bytes into the handshake. It may be called with
// arbitrarily small or large chunks; Recv buffers internally until a full
// handshake message is available. Called after the handshake has finished
// or failed, it returns ErrHandshakeComplete. Otherwise it returns an error
// only for a fatal protocol failure (bad MAC, bad key material) — such an
// error has already been reported via the completion callback before Recv
// returns it.
func (h *Handshake) Recv(data []byte) error {
	if h.completed {
		return ErrHandshakeComplete
	}
	h.buf = append(h.buf, data...)

	for {
		switch h.step {
		case stepAwaitMessage1:
			if len(h.buf) < msg1Len {
				return nil
			}
			msg := h.buf[:msg1Len]
			h.buf = h.buf[msg1Len:]
			if err := h.readMessage1(msg); err != nil {
				h.fail(err)
				return err
			}
			if err := h.writeMessage2(); err != nil {
				h.fail(err)
				return err
			}
			h.step = stepAwaitMessage3

		case stepAwaitMessage2:
			need := h.msg2Len()
			if len(h.buf) < need {
				return nil
			}
			msg := h.buf[:need]
			overflow := cloneBytes(h.buf[need:])
			h.buf = nil

			remotePayload, err := h.readMessage2(msg)
			if err != nil {
				h.fail(err)
				return err
			}
			split, err := h.writeMessage3()
			if err != nil {
				h.fail(err)
				return err
			}
			h.complete(remotePayload, split, overflow)
			return nil

		case stepAwaitMessage3:
			need := h.msg3Len()
			if len(h.buf) < need {
				return nil
			}
			msg := h.buf[:need]
			overflow := cloneBytes(h.buf[need:])
			h.buf = nil

			remotePayload, split, err := h.readMessage3(msg)
			if err != nil {
				h.fail(err)
				return err
			}
			h.complete(remotePayload, split, overflow)
			return nil

		default:
			return nil
		}
	}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

func (h *Handshake) fail(err error) {
	h.completed = true
	h.step = stepDone
	h.done(err, nil, Split{}, nil, [32]byte{})
}

func (h *Handshake) complete(remotePayload []byte, split Split, overflow []byte) {
	h.completed = true
	h.step = stepDone
	h.done(nil, remotePayload, split, overflow, h.remoteStatic)
}

// Message lengths are fixed because every field in this pattern has a fixed
// size: a 32-byte Curve25519 public key, a 16-byte ChaChaPoly tag, and a
// fixed-size NoisePayload (see internal/message). That determinism is what
// lets Recv know exactly how many bytes to wait for at each step without a
// length prefix on the handshake bytes themselves.
const (
	msg1Len = 32 // e
)

// msg2Len is e (32) + encrypted s (32+16) + encrypted payload (16+payload).
// The responder's payload is assumed the same length as this side's own
// localPayload, which holds for NoisePayload's fixed-size nonce field.
func (h *Handshake) msg2Len() int {
	return 32 + (32 + 16) + (16 + len(h.localPayload))
}

// msg3Len is encrypted s (32+16) + encrypted payload (16+payload).
func (h *Handshake) msg3Len() int {
	return (32 + 16) + (16 + len(h.localPayload))
}

func (h *Handshake) writeMessage1() error {
	msg := append([]byte(nil), h.localEphemeral.public[:]...)
	h.ss.mixHash(h.localEphemeral.public[:])

	ct, err := h.ss.encryptAndHash(nil)
	if err != nil {
		return err
	}
	msg = append(msg, ct...)

	h.send(msg)
	return nil
}

func (h *Handshake) readMessage1(msg []byte) error {
	copy(h.remoteEphemeral[:], msg[:32])
	h.ss.mixHash(msg[:32])

	_, err := h.ss.decryptAndHash(msg[32:])
	return err
}

func (h *Handshake) writeMessage2() error {
	msg := append([]byte(nil), h.localEphemeral.public[:]...)
	h.ss.mixHash(h.localEphemeral.public[:])

	ee, err := dh(h.localEphemeral.private, h.remoteEphemeral)
	if err != nil {
		return err
	}
	h.ss.mixKey(ee)

	sCt, err := h.ss.encryptAndHash(h.localStatic.public[:])
	if err != nil {
		return err
	}
	msg = append(msg, sCt...)

	// "es": responder is writer, so DH(local static, remote ephemeral).
	es, err := dh(h.localStatic.private, h.remoteEphemeral)
	if err != nil {
		return err
	}
	h.ss.mixKey(es)

	payloadCt, err := h.ss.encryptAndHash(h.localPayload)
	if err != nil {
		return err
	}
	msg = append(msg, payloadCt...)

	h.send(msg)
	return nil
}

func (h *Handshake) readMessage2(msg []byte) ([]byte, error) {
	remoteE := msg[:32]
	copy(h.remoteEphemeral[:], remoteE)
	h.ss.mixHash(remoteE)

	ee, err := dh(h.localEphemeral.private, h.remoteEphemeral)
	if err != nil {
		return nil, err
	}
	h.ss.mixKey(ee)

	sCt := msg[32 : 32+48]
	rs, err := h.ss.decryptAndHash(sCt)
	if err != nil {
		return nil, err
	}
	copy(h.remoteStatic[:], rs)

	// "es": initiator is reader but not writer here — the rule is keyed on
	// who wrote the message this DH appears in (the responder), so from the
	// initiator's side this is DH(local ephemeral, remote static).
	es, err := dh(h.localEphemeral.private, h.remoteStatic)
	if err != nil {
		return nil, err
	}
	h.ss.mixKey(es)

	payloadCt := msg[32+48:]
	remotePayload, err := h.ss.decryptAndHash(payloadCt)
	if err != nil {
		return nil, err
	}
	return remotePayload, nil
}

func (h *Handshake) writeMessage3() (Split, error) {
	sCt, err := h.ss.encryptAndHash(h.localStatic.public[:])
	if err != nil {
		return Split{}, err
	}
	msg := append([]byte(nil), sCt...)

	// "se": initiator is writer, so DH(local static, remote ephemeral).
	se, err := dh(h.localStatic.private, h.remoteEphemeral)
	if err != nil {
		return Split{}, err
	}
	h.ss.mixKey(se)

	payloadCt, err := h.ss.encryptAndHash(h.localPayload)
	if err != nil {
		return Split{}, err
	}
	msg = append(msg, payloadCt...)

	h.send(msg)

	tx, rx := h.ss.split()
	return Split{Tx: tx, Rx: rx}, nil
}

func (h *Handshake) readMessage3(msg []byte) ([]byte, Split, error) {
	sCt := msg[:48]
	rs, err := h.ss.decryptAndHash(sCt)
	if err != nil {
		return nil, Split{}, err
	}
	copy(h.remoteStatic[:], rs)

	// "se": responder is reader, writer was the initiator — DH(local
	// ephemeral, remote static) from the responder's side.
	se, err := dh(h.localEphemeral.private, h.remoteStatic)
	if err != nil {
		return nil, Split{}, err
	}
	h.ss.mixKey(se)

	payloadCt := msg[48:]
	remotePayload, err := h.ss.decryptAndHash(payloadCt)
	if err != nil {
		return nil, Split{}, err
	}

	out1, out2 := h.ss.split()
	// Split's convention flips between roles: out1 is the initiator's send
	// key and the responder's receive key; out2 is the reverse.
	return remotePayload, Split{Tx: out2, Rx: out1}, nil
}
