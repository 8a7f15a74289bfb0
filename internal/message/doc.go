// Package message defines the eleven typed wire schemas carried inside a
// corewire frame's payload, plus the handshake-internal NoisePayload.
// Extension frames have no schema here; the root corewire package encodes
// and decodes their varint(id) || bytes payload itself.
//
// Encoding is protobuf wire-compatible, hand-rolled rather than generated:
// a varint tag (field<<3|wireType) ahead of each present field, wire type 0
// for varint scalars and 2 for length-delimited bytes/submessages, and
// unrecognized field numbers silently skipped on decode for forward
// compatibility. A zero-value scalar or a nil/empty byte slice is never
// encoded, matching protobuf's proto3 "default values aren't sent"
// convention. The field numbers below are the wire contract; interop with
// existing peers depends on them staying bit-exact.
//
// Field layout:
//
//	Open          1=discoveryKey bytes   2=capability bytes   3=key bytes
//	Options       1=extensions repeated string   2=ack bool
//	Status        1=uploading bool   2=downloading bool
//	Have          1=start varint   2=length varint   3=bitfield bytes   4=ack bool
//	Unhave        1=start varint   2=length varint
//	Want          1=start varint   2=length varint
//	Unwant        1=start varint   2=length varint
//	Request       1=index varint   2=bytes varint   3=hash bool   4=nodes varint   5=priority varint
//	Cancel        1=index varint   2=bytes varint   3=hash bool
//	Data          1=index varint   2=value bytes   3=nodes repeated DataNode   4=signature bytes
//	DataNode      1=index varint   2=hash bytes
//	Close         1=discoveryKey bytes   2=uncork bool
//	NoisePayload  1=nonce bytes
//
// Open's key/capability pair is the only schema with cross-field semantics:
// corewire's Session rewrites a send-time key into a capability before this
// package ever marshals the message (see the root package's SendOpen), so
// on the wire a given Open frame carries one or the other, not both. The
// schema itself has no opinion about that; it happily encodes or decodes
// either field independently.
package message
