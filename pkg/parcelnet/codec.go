package parcelnet

import (
	"fmt"

	"github.com/pg9182/parcel/pkg/blockcipher"
	"github.com/pg9182/parcel/pkg/framesock"
)

// Codec wraps a framed TCP connection with the encrypt-on-send /
// decrypt-on-recv behavior from spec.md §4.5. Key pairing is asymmetric
// across a connection: each side signs its own outgoing traffic with its
// own private key, and the peer verifies/recovers it with that side's
// public key.
type Codec struct {
	conn       *framesock.TCPConn
	privateKey blockcipher.Key // used to encrypt outgoing payloads
	peerPublic blockcipher.Key // used to decrypt incoming payloads
}

// NewCodec constructs a Codec from a handshake's resulting keys.
func NewCodec(conn *framesock.TCPConn, privateKey, peerPublic blockcipher.Key) *Codec {
	return &Codec{conn: conn, privateKey: privateKey, peerPublic: peerPublic}
}

// Send encrypts plaintext with the local private key and transmits it as
// one framed message.
func (c *Codec) Send(plaintext []byte) error {
	ciphertext := blockcipher.Encrypt(c.privateKey, plaintext)
	if err := c.conn.SendFrame(ciphertext); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

// Recv receives one framed message and decrypts it with the peer's public
// key. The returned plaintext may exceed the original by up to one block
// less one byte of trailing zero padding (spec.md §9 item 6).
func (c *Codec) Recv() ([]byte, error) {
	ciphertext, err := c.conn.RecvFrame()
	if err != nil {
		return nil, fmt.Errorf("recv frame: %w", err)
	}
	return blockcipher.Decrypt(c.peerPublic, ciphertext), nil
}
