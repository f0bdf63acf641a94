package parcelnet

import (
	"fmt"
	"math/rand"

	"github.com/pg9182/parcel/pkg/blockcipher"
	"github.com/pg9182/parcel/pkg/framesock"
	"github.com/pg9182/parcel/pkg/netbuf"
)

// encodeKey writes a key as two big-endian u64 fields (exponent, modulus).
func encodeKey(k blockcipher.Key) []byte {
	buf := netbuf.New(16)
	w := netbuf.Acquire(buf, netbuf.ModeWrite)
	w.WriteU64(k.Exponent)
	w.WriteU64(k.Modulus)
	return buf.Bytes()
}

func decodeKey(payload []byte) (blockcipher.Key, bool) {
	buf := netbuf.NewFromBytes(payload)
	r := netbuf.Acquire(buf, netbuf.ModeRead)
	exp, ok1 := r.ReadU64()
	mod, ok2 := r.ReadU64()
	if !ok1 || !ok2 {
		return blockcipher.Key{}, false
	}
	return blockcipher.Key{Exponent: exp, Modulus: mod}, true
}

// ClientHandshake performs the client side of the two-message public-key
// swap (spec.md §4.4): generate a key pair, send the public half, then
// receive the server's public key. The handshake payload is
// length-framed but not encrypted.
func ClientHandshake(conn *framesock.TCPConn, rng *rand.Rand) (own blockcipher.KeyPair, peerPublic blockcipher.Key, err error) {
	own = blockcipher.GenerateKeyPair(rng)

	if err = conn.SendFrame(encodeKey(own.Public)); err != nil {
		return blockcipher.KeyPair{}, blockcipher.Key{}, fmt.Errorf("send public key: %w", err)
	}

	payload, err := conn.RecvFrame()
	if err != nil {
		return blockcipher.KeyPair{}, blockcipher.Key{}, fmt.Errorf("recv server public key: %w", err)
	}
	peerPublic, ok := decodeKey(payload)
	if !ok {
		return blockcipher.KeyPair{}, blockcipher.Key{}, fmt.Errorf("malformed server public key")
	}
	return own, peerPublic, nil
}

// ServerHandshake performs the server side: receive the client's public
// key, generate its own key pair, and send its public half. Each direction
// of the connection uses the block size derived from the sending side's
// own modulus; the client's modulus does not set the block size of
// server-to-client traffic.
func ServerHandshake(conn *framesock.TCPConn, rng *rand.Rand) (own blockcipher.KeyPair, peerPublic blockcipher.Key, err error) {
	payload, err := conn.RecvFrame()
	if err != nil {
		return blockcipher.KeyPair{}, blockcipher.Key{}, fmt.Errorf("recv client public key: %w", err)
	}
	peerPublic, ok := decodeKey(payload)
	if !ok {
		return blockcipher.KeyPair{}, blockcipher.Key{}, fmt.Errorf("malformed client public key")
	}

	own = blockcipher.GenerateKeyPair(rng)

	if err = conn.SendFrame(encodeKey(own.Public)); err != nil {
		return blockcipher.KeyPair{}, blockcipher.Key{}, fmt.Errorf("send server public key: %w", err)
	}
	return own, peerPublic, nil
}
