// Package capability derives the session-bound tokens a peer sends in place
// of a raw feed key. A feed key is a long-term secret shared out-of-band; a
// capability proves knowledge of it for one handshake's split without ever
// putting the key itself on the wire.
package capability

import "golang.org/x/crypto/blake2b"

// Namespace is the raw domain-separation prefix mixed into every capability
// hash: exactly the 20 ASCII bytes "hypercore capability", no terminator.
// It is part of the wire contract and can never change.
var Namespace = []byte("hypercore capability")

// Size is the length of a derived capability.
const Size = 32

// Derive computes the capability this side sends for feed key key, given
// the handshake split's tx and rx halves (each truncated to 32 bytes by the
// caller, the same truncation the transport keystream uses). Its peer
// computes the same 32 bytes as RemoteCapability using its own (mirrored)
// split.
func Derive(tx, rx, key []byte) ([]byte, error) {
	return hash(tx, rx, key)
}

// RemoteCapability computes the capability this side expects to receive
// from its peer for feed key key. It equals the peer's Derive result for
// the same key, by construction of the Noise split (tx/rx are mirrored
// across the pair).
func RemoteCapability(tx, rx, key []byte) ([]byte, error) {
	return hash(rx, tx, key)
}

// hash computes BLAKE2b-256 keyed by macKey over Namespace||data||feedKey.
func hash(data, macKey, feedKey []byte) ([]byte, error) {
	h, err := blake2b.New256(macKey)
	if err != nil {
		return nil, err
	}
	h.Write(Namespace)
	h.Write(data)
	h.Write(feedKey)
	return h.Sum(nil), nil
}
