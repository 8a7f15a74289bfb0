// Package keystream implements the session's post-handshake transport
// cipher: a pair of independent XChaCha20 keystreams, one per direction,
// XORed byte-wise against plaintext/ciphertext.
//
// This is deliberately not an authenticated cipher. Per-frame integrity is
// not provided here; a peer that decodes garbage after decrypting must treat
// it as adversarial and destroy the session (see the corewire package's
// Recv). The handshake already authenticates the session as a whole, so the
// transport cipher trades per-frame AEAD overhead for raw XOR throughput.
package keystream

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20"
)

const (
	// KeySize is the length of each direction's symmetric key.
	KeySize = chacha20.KeySize
	// NonceSize is the XChaCha20 extended-nonce length.
	NonceSize = chacha20.NonceSizeX
)

// direction holds the running state for one half of the transport cipher.
// chacha20.Cipher already buffers any keystream bytes produced past the end
// of the caller's slice, so splitting a logical message into arbitrarily
// many Encrypt/Decrypt calls is byte-identical to encrypting it in one call:
// the i-th transmitted byte always XORs against keystream byte i.
type direction struct {
	cipher *chacha20.Cipher
}

func newDirection(key, nonce []byte) (*direction, error) {
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, err
	}
	return &direction{cipher: c}, nil
}

func (d *direction) xor(dst, src []byte) []byte {
	if cap(dst) < len(src) {
		dst = make([]byte, len(src))
	}
	dst = dst[:len(src)]
	d.cipher.XORKeyStream(dst, src)
	return dst
}

// Cipher is the session's two-directional transport cipher: tx encrypts
// outbound bytes, rx decrypts inbound bytes. The two halves never share
// state — a session's tx is its peer's rx and vice versa, by construction
// of the handshake split (see internal/handshake).
type Cipher struct {
	tx *direction
	rx *direction
}

// New builds a Cipher from the two directions' 32-byte keys and 24-byte
// nonces. txNonce is this side's own handshake nonce; rxNonce is the
// nonce the remote peer advertised in its handshake payload.
func New(txKey, txNonce, rxKey, rxNonce []byte) (*Cipher, error) {
	tx, err := newDirection(txKey, txNonce)
	if err != nil {
		return nil, err
	}
	rx, err := newDirection(rxKey, rxNonce)
	if err != nil {
		return nil, err
	}
	return &Cipher{tx: tx, rx: rx}, nil
}

// Encrypt XORs plaintext against the tx keystream and returns the result.
// The output is written from index 0 of dst's backing array when dst has
// room for it (dst's existing contents are overwritten, not appended to);
// otherwise, or when dst is nil, a new slice is allocated. It never fails:
// a stream XOR has no failure mode.
func (c *Cipher) Encrypt(dst, plaintext []byte) []byte {
	return c.tx.xor(dst, plaintext)
}

// Decrypt XORs ciphertext against the rx keystream and returns the result,
// reusing dst's backing array the same way Encrypt does.
func (c *Cipher) Decrypt(dst, ciphertext []byte) []byte {
	return c.rx.xor(dst, ciphertext)
}

// Final drops both directions' key material for garbage collection. Safe to
// call more than once. chacha20.Cipher keeps its expanded key in unexported
// state, so this cannot scrub the bytes in place; callers that need
// in-place scrubbing should not retain this Cipher past Final.
func (c *Cipher) Final() {
	c.tx = nil
	c.rx = nil
}

// RandomNonce returns a fresh 24-byte nonce suitable for one side of a
// handshake's NoisePayload.
func RandomNonce() ([]byte, error) {
	n := make([]byte, NonceSize)
	if _, err := rand.Read(n); err != nil {
		return nil, err
	}
	return n, nil
}
