// Package corewire implements the peer-to-peer replication protocol's core
// session state machine: a mutually-authenticated Noise XX handshake, the
// XChaCha20 transport keystream it seeds, length-prefixed channel/type
// framing over that keystream, and the eleven typed messages (plus
// extensions) a session exchanges once the handshake completes.
//
// corewire owns no transport. A Session is fed inbound bytes through Recv
// and emits outbound bytes synchronously through the Handlers.Send
// callback; the caller supplies the socket, file, or in-memory pipe on
// either end. See internal/handshake, internal/keystream, internal/wire,
// and internal/message for the four components a Session composes.
package corewire
