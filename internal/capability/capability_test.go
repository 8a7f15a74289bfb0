package capability

import (
	"bytes"
	"testing"
)

func fill(seed byte) []byte {
	b := make([]byte, 32)
	for i := range b {
		b[i] = seed
	}
	return b
}

// TestSymmetry: A's Derive for a key equals B's RemoteCapability for the
// same key, given A's tx/rx are B's rx/tx.
func TestSymmetry(t *testing.T) {
	aTx, aRx := fill(1), fill(2)
	bTx, bRx := aRx, aTx // mirrored, as the Noise split guarantees

	key := fill(0)

	aCap, err := Derive(aTx, aRx, key)
	if err != nil {
		t.Fatalf("A.Derive: %v", err)
	}
	bRemote, err := RemoteCapability(bTx, bRx, key)
	if err != nil {
		t.Fatalf("B.RemoteCapability: %v", err)
	}
	if !bytes.Equal(aCap, bRemote) {
		t.Fatalf("A's capability %x != B's remote capability %x", aCap, bRemote)
	}

	bCap, err := Derive(bTx, bRx, key)
	if err != nil {
		t.Fatalf("B.Derive: %v", err)
	}
	aRemote, err := RemoteCapability(aTx, aRx, key)
	if err != nil {
		t.Fatalf("A.RemoteCapability: %v", err)
	}
	if !bytes.Equal(bCap, aRemote) {
		t.Fatalf("B's capability %x != A's remote capability %x", bCap, aRemote)
	}
}

func TestDeriveLength(t *testing.T) {
	out, err := Derive(fill(1), fill(2), fill(3))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(out) != Size {
		t.Fatalf("len(out) = %d, want %d", len(out), Size)
	}
}
