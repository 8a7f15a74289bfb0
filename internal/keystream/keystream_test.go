package keystream

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func mustCipher(t *testing.T) *Cipher {
	t.Helper()
	txKey := make([]byte, KeySize)
	txNonce := make([]byte, NonceSize)
	rxKey := make([]byte, KeySize)
	rxNonce := make([]byte, NonceSize)
	for _, b := range [][]byte{txKey, txNonce, rxKey, rxNonce} {
		if _, err := rand.Read(b); err != nil {
			t.Fatalf("rand.Read: %v", err)
		}
	}
	c, err := New(txKey, txNonce, rxKey, rxNonce)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestEncryptChangesPlaintext(t *testing.T) {
	a := mustCipher(t)
	// Decryption by a mirrored peer is covered by TestDecryptReversesEncrypt.
	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	ciphertext := a.Encrypt(nil, plaintext)
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext should not equal plaintext")
	}
}

func TestChunkIndependence(t *testing.T) {
	msg := make([]byte, 4096)
	if _, err := rand.Read(msg); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	txKey := make([]byte, KeySize)
	txNonce := make([]byte, NonceSize)
	rxKey := make([]byte, KeySize)
	rxNonce := make([]byte, NonceSize)
	for _, b := range [][]byte{txKey, txNonce, rxKey, rxNonce} {
		if _, err := rand.Read(b); err != nil {
			t.Fatalf("rand.Read: %v", err)
		}
	}

	whole, err := New(txKey, txNonce, rxKey, rxNonce)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	wholeCT := whole.Encrypt(nil, msg)

	chunked, err := New(txKey, txNonce, rxKey, rxNonce)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var chunkedCT []byte
	for _, size := range []int{1, 63, 64, 65, 1000, 4096 - 1 - 63 - 64 - 65 - 1000} {
		chunkedCT = append(chunkedCT, chunked.Encrypt(nil, msg[:size])...)
		msg = msg[size:]
	}

	if !bytes.Equal(wholeCT, chunkedCT) {
		t.Fatal("encrypting in arbitrary chunks must equal encrypting in one call")
	}
}

func TestDecryptReversesEncrypt(t *testing.T) {
	txKey := make([]byte, KeySize)
	txNonce := make([]byte, NonceSize)
	rxKey := make([]byte, KeySize)
	rxNonce := make([]byte, NonceSize)
	for _, b := range [][]byte{txKey, txNonce, rxKey, rxNonce} {
		if _, err := rand.Read(b); err != nil {
			t.Fatalf("rand.Read: %v", err)
		}
	}

	// a.tx == b.rx, a.rx == b.tx, mirroring the handshake split.
	a, err := New(txKey, txNonce, rxKey, rxNonce)
	if err != nil {
		t.Fatalf("New a: %v", err)
	}
	b, err := New(rxKey, rxNonce, txKey, txNonce)
	if err != nil {
		t.Fatalf("New b: %v", err)
	}

	plaintext := []byte("hello, peer")
	ct := a.Encrypt(nil, plaintext)
	pt := b.Decrypt(nil, ct)
	if !bytes.Equal(pt, plaintext) {
		t.Fatalf("decrypt mismatch: got %q want %q", pt, plaintext)
	}
}

func TestFinalIsIdempotent(t *testing.T) {
	c := mustCipher(t)
	c.Final()
	c.Final()
}
