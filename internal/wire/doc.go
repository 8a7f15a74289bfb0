// Package wire frames the post-handshake byte stream into length-prefixed,
// channel/type-tagged messages.
//
// One frame is varint(length) || varint(header) || payload, where header is
// (channel<<4 | type) and length counts header+payload together. Decode is a
// byte-at-a-time state machine (readLen -> readHeader -> readBody) so it
// tolerates arbitrary chunk boundaries from the transport, including a
// single byte at a time.
package wire
