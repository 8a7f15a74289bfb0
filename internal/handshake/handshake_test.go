package handshake

import (
	"bytes"
	"testing"
)

type result struct {
	called    bool
	err       error
	payload   []byte
	split     Split
	overflow  []byte
	remoteKey [32]byte
}

func captureResult(r *result) CompletionFunc {
	return func(err error, payload []byte, split Split, overflow []byte, remoteKey [32]byte) {
		r.called = true
		r.err = err
		r.payload = payload
		r.split = split
		r.overflow = overflow
		r.remoteKey = remoteKey
	}
}

// pump drives a full, uncorrupted XX exchange between a freshly constructed
// initiator and responder, returning their outbound message logs and
// completion results. Messages are captured into per-side outboxes rather
// than wired directly into each other's Recv, since New's synchronous send
// for the initiator's first message would otherwise race the as-yet-unset
// variable holding the responder (or vice versa).
func pump(t *testing.T, initiatorPayload, responderPayload []byte) (initiatorResult, responderResult result, initiatorOut, responderOut [][]byte) {
	t.Helper()

	capture := func(out *[][]byte) func([]byte) {
		return func(b []byte) {
			*out = append(*out, append([]byte(nil), b...))
		}
	}

	initiatorHS, err := New(Initiator, initiatorPayload, Options{}, capture(&initiatorOut), captureResult(&initiatorResult))
	if err != nil {
		t.Fatalf("New(Initiator): %v", err)
	}
	responderHS, err := New(Responder, responderPayload, Options{}, capture(&responderOut), captureResult(&responderResult))
	if err != nil {
		t.Fatalf("New(Responder): %v", err)
	}

	if len(initiatorOut) != 1 {
		t.Fatalf("initiator should have sent message 1 synchronously, got %d messages", len(initiatorOut))
	}
	if err := responderHS.Recv(initiatorOut[0]); err != nil {
		t.Fatalf("responder recv message 1: %v", err)
	}
	if len(responderOut) != 1 {
		t.Fatalf("responder should have sent message 2 synchronously, got %d messages", len(responderOut))
	}
	if err := initiatorHS.Recv(responderOut[0]); err != nil {
		t.Fatalf("initiator recv message 2: %v", err)
	}
	if len(initiatorOut) != 2 {
		t.Fatalf("initiator should have sent message 3 synchronously, got %d messages", len(initiatorOut))
	}
	if err := responderHS.Recv(initiatorOut[1]); err != nil {
		t.Fatalf("responder recv message 3: %v", err)
	}

	return initiatorResult, responderResult, initiatorOut, responderOut
}

func TestXXHandshakeRoundTrip(t *testing.T) {
	initiatorPayload := []byte("initiator-nonce-placeholder-24b")
	responderPayload := []byte("responder-nonce-placeholder-24b")

	initiatorResult, responderResult, _, _ := pump(t, initiatorPayload, responderPayload)

	if !initiatorResult.called || initiatorResult.err != nil {
		t.Fatalf("initiator completion: called=%v err=%v", initiatorResult.called, initiatorResult.err)
	}
	if !responderResult.called || responderResult.err != nil {
		t.Fatalf("responder completion: called=%v err=%v", responderResult.called, responderResult.err)
	}

	if !bytes.Equal(initiatorResult.payload, responderPayload) {
		t.Fatalf("initiator should have decoded responder's payload, got %q", initiatorResult.payload)
	}
	if !bytes.Equal(responderResult.payload, initiatorPayload) {
		t.Fatalf("responder should have decoded initiator's payload, got %q", responderResult.payload)
	}

	// Each side's send half must equal the other's receive half: that is
	// what lets internal/keystream build a working tx/rx cipher pair.
	if !bytes.Equal(initiatorResult.split.Tx[:32], responderResult.split.Rx[:32]) {
		t.Fatal("initiator tx must match responder rx")
	}
	if !bytes.Equal(initiatorResult.split.Rx[:32], responderResult.split.Tx[:32]) {
		t.Fatal("initiator rx must match responder tx")
	}
}

func TestXXHandshakeOverflowCarriesPostHandshakeBytes(t *testing.T) {
	var initiatorOut, responderOut [][]byte
	var initiatorResult, responderResult result

	capture := func(out *[][]byte) func([]byte) {
		return func(b []byte) { *out = append(*out, append([]byte(nil), b...)) }
	}

	payload := []byte("a-24-byte-nonce-goes-right-here")
	initiatorHS, err := New(Initiator, payload, Options{}, capture(&initiatorOut), captureResult(&initiatorResult))
	if err != nil {
		t.Fatalf("New(Initiator): %v", err)
	}
	responderHS, err := New(Responder, payload, Options{}, capture(&responderOut), captureResult(&responderResult))
	if err != nil {
		t.Fatalf("New(Responder): %v", err)
	}

	if err := responderHS.Recv(initiatorOut[0]); err != nil {
		t.Fatalf("responder recv message 1: %v", err)
	}
	if err := initiatorHS.Recv(responderOut[0]); err != nil {
		t.Fatalf("initiator recv message 2: %v", err)
	}

	trailer := []byte("first-post-handshake-frame-bytes")
	withTrailer := append(append([]byte(nil), initiatorOut[1]...), trailer...)
	if err := responderHS.Recv(withTrailer); err != nil {
		t.Fatalf("responder recv message 3 + trailer: %v", err)
	}

	if !bytes.Equal(responderResult.overflow, trailer) {
		t.Fatalf("overflow mismatch: got %q want %q", responderResult.overflow, trailer)
	}
}

func TestXXHandshakeRejectsTamperedMessage(t *testing.T) {
	var initiatorOut, responderOut [][]byte
	var initiatorResult, responderResult result

	capture := func(out *[][]byte) func([]byte) {
		return func(b []byte) { *out = append(*out, append([]byte(nil), b...)) }
	}

	payload := []byte("a-24-byte-nonce-goes-right-here")
	initiatorHS, err := New(Initiator, payload, Options{}, capture(&initiatorOut), captureResult(&initiatorResult))
	if err != nil {
		t.Fatalf("New(Initiator): %v", err)
	}
	responderHS, err := New(Responder, payload, Options{}, capture(&responderOut), captureResult(&responderResult))
	if err != nil {
		t.Fatalf("New(Responder): %v", err)
	}

	if err := responderHS.Recv(initiatorOut[0]); err != nil {
		t.Fatalf("responder recv message 1: %v", err)
	}

	// Flip a byte inside message 2's encrypted static-key field. This must
	// break AEAD authentication, since the whole point of EncryptAndHash is
	// that any bit flip in the ciphertext fails decryption.
	tampered := append([]byte(nil), responderOut[0]...)
	tampered[40] ^= 0xff

	if err := initiatorHS.Recv(tampered); err == nil {
		t.Fatal("expected a MAC failure on tampered message 2")
	}
	if initiatorResult.err == nil {
		t.Fatal("expected completion callback to report the MAC failure")
	}
}

func TestRecvAfterCompleteReturnsError(t *testing.T) {
	var out [][]byte
	var r result
	hs, err := New(Initiator, []byte("another-24-byte-nonce-value-xx"), Options{}, func(b []byte) {
		out = append(out, b)
	}, captureResult(&r))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	hs.completed = true
	hs.step = stepDone

	if err := hs.Recv([]byte("anything")); err != ErrHandshakeComplete {
		t.Fatalf("expected ErrHandshakeComplete, got %v", err)
	}
}
