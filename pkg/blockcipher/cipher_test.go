package blockcipher

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestGenerateKeyPairValid(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	kp := GenerateKeyPair(rng)
	if !kp.Public.Valid() || !kp.Private.Valid() {
		t.Fatal("generated keys should be valid")
	}
	if kp.Public.Modulus != kp.Private.Modulus {
		t.Fatal("public and private keys must share a modulus")
	}
	if kp.Public.Exponent != publicExponent {
		t.Fatalf("public exponent = %d, want %d", kp.Public.Exponent, publicExponent)
	}
}

func TestEncryptDecryptRoundTripExactBlockMultiple(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	kp := GenerateKeyPair(rng)
	bb := BlockBytes(kp.Public.Modulus)

	plaintext := bytes.Repeat([]byte{0x41}, bb*3)

	ct := Encrypt(kp.Private, plaintext)
	pt := Decrypt(kp.Public, ct)

	if !bytes.Equal(pt, plaintext) {
		t.Fatalf("round trip mismatch: got %x want %x", pt, plaintext)
	}
}

func TestEncryptDecryptRoundTripWithPadding(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	kp := GenerateKeyPair(rng)
	bb := BlockBytes(kp.Public.Modulus)
	if bb < 2 {
		t.Skip("block too small to exercise padding in this run")
	}

	plaintext := []byte("Hi!")

	ct := Encrypt(kp.Private, plaintext)
	pt := Decrypt(kp.Public, ct)

	if !bytes.HasPrefix(pt, plaintext) {
		t.Fatalf("decrypted %x does not have plaintext %x as a prefix", pt, plaintext)
	}
	for _, b := range pt[len(plaintext):] {
		if b != 0 {
			t.Fatalf("expected trailing zero padding, got %x", pt[len(plaintext):])
		}
	}
}

func TestBlockBytesAtLeastOne(t *testing.T) {
	if BlockBytes(1) != 1 {
		t.Fatal("block bytes must be clamped to at least 1")
	}
	if BlockBytes(0) != 1 {
		t.Fatal("block bytes for zero modulus must be clamped to at least 1")
	}
}

func TestAsymmetricSigningOrientation(t *testing.T) {
	// Each side encrypts outgoing traffic with its own private key; the
	// peer decrypts with the sender's public key. This is a signing
	// orientation, not confidentiality (spec.md §4.5, §9 item 7).
	rng := rand.New(rand.NewSource(4))
	kp := GenerateKeyPair(rng)

	msg := []byte("name alice")
	ct := Encrypt(kp.Private, msg)
	pt := Decrypt(kp.Public, ct)

	if !bytes.HasPrefix(pt, msg) {
		t.Fatalf("expected peer to recover message using the sender's public key")
	}
}
