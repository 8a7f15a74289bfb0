package message

import (
	"bytes"
	"reflect"
	"testing"
)

func TestOpenRoundTrip(t *testing.T) {
	in := Open{DiscoveryKey: []byte("dk"), Key: bytes.Repeat([]byte{0}, 32)}
	var out Open
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !bytes.Equal(out.DiscoveryKey, in.DiscoveryKey) || !bytes.Equal(out.Key, in.Key) || out.Capability != nil {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestOpenCapabilityInsteadOfKey(t *testing.T) {
	in := Open{DiscoveryKey: []byte("dk"), Capability: []byte("cap")}
	var out Open
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Key != nil {
		t.Fatalf("expected no Key, got %x", out.Key)
	}
	if !bytes.Equal(out.Capability, in.Capability) {
		t.Fatalf("Capability = %x, want %x", out.Capability, in.Capability)
	}
}

func TestHaveRoundTrip(t *testing.T) {
	in := Have{Start: 10, Length: 5, Bitfield: []byte{0xff}, Ack: true}
	var out Have
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	in := Request{Index: 42, Priority: 1}
	var out Request
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestDataRoundTripWithNodes(t *testing.T) {
	in := Data{
		Index: 7,
		Value: []byte("payload"),
		Nodes: []DataNode{
			{Index: 1, Hash: []byte("h1")},
			{Index: 3, Hash: []byte("h2")},
		},
		Signature: []byte("sig"),
	}
	var out Data
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Index != in.Index || !bytes.Equal(out.Value, in.Value) || !bytes.Equal(out.Signature, in.Signature) {
		t.Fatalf("got %+v, want %+v", out, in)
	}
	if len(out.Nodes) != len(in.Nodes) {
		t.Fatalf("got %d nodes, want %d", len(out.Nodes), len(in.Nodes))
	}
	for i := range in.Nodes {
		if !reflect.DeepEqual(out.Nodes[i], in.Nodes[i]) {
			t.Fatalf("node %d: got %+v, want %+v", i, out.Nodes[i], in.Nodes[i])
		}
	}
}

func TestCloseAlwaysEncodesEvenWhenEmpty(t *testing.T) {
	var in Close
	encoded := in.Marshal()
	// An all-default Close still marshals to a (possibly empty) well-formed
	// buffer that decodes back to the zero value, rather than panicking or
	// refusing to encode.
	var out Close
	if err := out.Unmarshal(encoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("got %+v, want zero value", out)
	}
}

func TestUnknownFieldsSkipped(t *testing.T) {
	// Field 99, a bytes field this schema doesn't define, followed by a
	// legitimate field 1. Decoding must ignore 99 and still pick up field 1.
	var buf []byte
	buf = putBytes(buf, 99, []byte("future extension"))
	buf = putBytes(buf, 1, []byte("dk"))

	var out Open
	if err := out.Unmarshal(buf); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !bytes.Equal(out.DiscoveryKey, []byte("dk")) {
		t.Fatalf("DiscoveryKey = %q, want %q", out.DiscoveryKey, "dk")
	}
}

func TestNoisePayloadRoundTrip(t *testing.T) {
	in := NoisePayload{Nonce: bytes.Repeat([]byte{7}, 24)}
	var out NoisePayload
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !bytes.Equal(out.Nonce, in.Nonce) {
		t.Fatalf("got %x, want %x", out.Nonce, in.Nonce)
	}
}

func TestMalformedVarintRejected(t *testing.T) {
	// 10 continuation bytes with the high bit always set never terminates.
	buf := bytes.Repeat([]byte{0x80}, 11)
	var out Request
	if err := out.Unmarshal(buf); err != ErrMalformed {
		t.Fatalf("Unmarshal = %v, want ErrMalformed", err)
	}
}
