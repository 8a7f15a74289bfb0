// Package handshake implements the session's Noise XX handshake: three
// messages of mutual Curve25519 authentication, ending in a chaining key
// split into two raw halves for internal/keystream's transport cipher.
//
// This hand-rolls the Noise SymmetricState/HandshakeState machinery on top of
// golang.org/x/crypto/{curve25519,chacha20poly1305,blake2b} rather than
// depending on a packaged Noise library. A packaged implementation's
// handshake completion normally hands back an opaque AEAD cipher state built
// for its own Encrypt/Decrypt calls; this protocol needs the raw
// chaining-key-derived halves themselves, to seed a different, non-AEAD
// cipher afterward. Implementing SymmetricState directly is the only way to
// get at that material.
package handshake

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

// protocolName is this protocol's Noise handshake pattern/algorithm name. It
// seeds the initial hash state and never changes between peers, so omitting
// it from the wire costs nothing: both sides compute the same seed.
const protocolName = "Noise_XX_25519_ChaChaPoly_BLAKE2b"

// hashLen is BLAKE2b-512's digest size, matching Noise's HASHLEN for this
// hash choice.
const hashLen = 64

// keySize is the ChaChaPoly cipher key length used during the handshake's
// own EncryptAndHash/DecryptAndHash steps.
const keySize = chacha20poly1305.KeySize

func newBlake2b512() hash.Hash {
	h, err := blake2b.New512(nil)
	if err != nil {
		// blake2b.New512(nil) only fails for an oversized key, and we never
		// pass one.
		panic(err)
	}
	return h
}

// hkdf2 is Noise's HKDF construction (HMAC-based, two outputs), applied with
// BLAKE2b-512 as the underlying hash.
func hkdf2(chainingKey, inputKeyMaterial []byte) (out1, out2 []byte) {
	tempKeyMAC := hmac.New(newBlake2b512, chainingKey)
	tempKeyMAC.Write(inputKeyMaterial)
	tempKey := tempKeyMAC.Sum(nil)

	out1MAC := hmac.New(newBlake2b512, tempKey)
	out1MAC.Write([]byte{0x01})
	out1 = out1MAC.Sum(nil)

	out2MAC := hmac.New(newBlake2b512, tempKey)
	out2MAC.Write(out1)
	out2MAC.Write([]byte{0x02})
	out2 = out2MAC.Sum(nil)

	return out1, out2
}

// symmetricState is Noise's SymmetricState: the running transcript hash,
// chaining key, and (once a DH has been mixed in) an active cipher key.
type symmetricState struct {
	h      []byte
	ck     []byte
	k      []byte
	n      uint64
	hasKey bool
}

func (s *symmetricState) initialize(prologue []byte) {
	h := make([]byte, hashLen)
	if len(protocolName) <= hashLen {
		copy(h, protocolName)
	} else {
		sum := blake2b512Sum([]byte(protocolName))
		h = sum
	}
	s.h = h
	s.ck = append([]byte(nil), h...)
	s.mixHash(prologue)
}

func blake2b512Sum(data []byte) []byte {
	h := newBlake2b512()
	h.Write(data)
	return h.Sum(nil)
}

func (s *symmetricState) mixHash(data []byte) {
	s.h = blake2b512Sum(append(append([]byte(nil), s.h...), data...))
}

func (s *symmetricState) mixKey(inputKeyMaterial []byte) {
	ck, tempK := hkdf2(s.ck, inputKeyMaterial)
	s.ck = ck
	k := tempK
	if len(k) > keySize {
		k = k[:keySize]
	}
	s.k = k
	s.n = 0
	s.hasKey = true
}

// nonceBytes builds the 12-byte ChaChaPoly nonce Noise specifies for its
// counter-based cipher: four zero bytes followed by a little-endian counter.
func nonceBytes(n uint64) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.LittleEndian.PutUint64(nonce[4:], n)
	return nonce
}

var errHandshakeMAC = errors.New("handshake: message authentication failed")

func (s *symmetricState) encryptAndHash(plaintext []byte) ([]byte, error) {
	var ciphertext []byte
	if s.hasKey {
		aead, err := chacha20poly1305.New(s.k)
		if err != nil {
			return nil, err
		}
		ciphertext = aead.Seal(nil, nonceBytes(s.n), plaintext, s.h)
		s.n++
	} else {
		ciphertext = plaintext
	}
	s.mixHash(ciphertext)
	return ciphertext, nil
}

func (s *symmetricState) decryptAndHash(ciphertext []byte) ([]byte, error) {
	var plaintext []byte
	if s.hasKey {
		aead, err := chacha20poly1305.New(s.k)
		if err != nil {
			return nil, err
		}
		pt, err := aead.Open(nil, nonceBytes(s.n), ciphertext, s.h)
		if err != nil {
			return nil, errHandshakeMAC
		}
		plaintext = pt
		s.n++
	} else {
		plaintext = ciphertext
	}
	s.mixHash(ciphertext)
	return plaintext, nil
}

// split derives the two post-handshake chaining-key halves. Each is the full
// hashLen (64 bytes); internal/keystream takes the first 32 bytes of
// whichever half it's given as its XChaCha20 key.
func (s *symmetricState) split() (out1, out2 []byte) {
	return hkdf2(s.ck, nil)
}

// keyPair is a Curve25519 key pair used as either the static or the
// per-handshake ephemeral identity.
type keyPair struct {
	private [32]byte
	public  [32]byte
}

func generateKeyPair() (keyPair, error) {
	var kp keyPair
	if _, err := rand.Read(kp.private[:]); err != nil {
		return kp, err
	}
	pub, err := curve25519.X25519(kp.private[:], curve25519.Basepoint)
	if err != nil {
		return kp, err
	}
	copy(kp.public[:], pub)
	return kp, nil
}

func dh(private, public [32]byte) ([]byte, error) {
	return curve25519.X25519(private[:], public[:])
}
