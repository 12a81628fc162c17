// Package wire implements the world-server frame codec: header
// encrypt/decrypt and opcode+payload (de)serialization. It is a plain
// push-pull decoder (no goroutine, no blocking read) so the transport
// loop in package world drives it directly off a growing byte buffer.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Frame is a decoded world-server packet: an opcode and its exact-length
// payload. Payload aliases the caller's buffer; callers that retain it
// past the next Decode call must copy it.
type Frame struct {
	Opcode  uint16
	Payload []byte
}

// HeaderCrypt is the pluggable header-obfuscation hook. The codec is
// shared with wire variants that perform RC4-style header scrambling;
// for the variant this module targets, the hook is a no-op once
// initialized. It toggles from uninitialized to initialized exactly
// once, immediately after the client emits CMSG_AUTH_SESSION.
type HeaderCrypt interface {
	Init(sessionKey []byte)
	Encrypt(header []byte)
	Decrypt(header []byte)
	Initialized() bool
}

// NopHeaderCrypt is the header-crypt hook for this wire variant: it
// toggles initialized state but never mutates header bytes.
type NopHeaderCrypt struct {
	initialized bool
}

func (n *NopHeaderCrypt) Init(sessionKey []byte) { n.initialized = true }
func (n *NopHeaderCrypt) Encrypt(header []byte)  {}
func (n *NopHeaderCrypt) Decrypt(header []byte)  {}
func (n *NopHeaderCrypt) Initialized() bool      { return n.initialized }

// Codec frames world-server packets over a raw TCP byte stream.
type Codec struct {
	Crypt HeaderCrypt
}

// NewCodec returns a Codec using the no-op header crypt for this wire
// variant.
func NewCodec() *Codec {
	return &Codec{Crypt: &NopHeaderCrypt{}}
}

// InitCrypt initializes the header-crypt hook with the session key,
// switching subsequent Encode calls to the 6-byte header shape.
func (c *Codec) InitCrypt(sessionKey []byte) {
	c.Crypt.Init(sessionKey)
}

// Decode attempts to extract one frame from buf. It returns (nil, 0, nil)
// when buf does not yet hold a full frame ("need more"), (frame, n, nil)
// on success where n is the number of bytes consumed from the front of
// buf, or a non-nil error on a malformed frame.
func (c *Codec) Decode(buf []byte) (*Frame, int, error) {
	if len(buf) == 0 {
		return nil, 0, nil
	}

	large := buf[0]&0x80 != 0
	headerSize := 4
	if large {
		headerSize = 5
	}
	if len(buf) < headerSize {
		return nil, 0, nil
	}

	header := make([]byte, headerSize)
	copy(header, buf[:headerSize])
	c.Crypt.Decrypt(header)

	var size int
	var opcode uint16
	if large {
		size = int(header[0]&0x7F)<<16 | int(header[1])<<8 | int(header[2])
		opcode = binary.LittleEndian.Uint16(header[3:5])
	} else {
		size = int(header[0])<<8 | int(header[1])
		opcode = binary.LittleEndian.Uint16(header[2:4])
	}
	if size < 2 {
		return nil, 0, fmt.Errorf("wire: malformed frame: size field %d too small", size)
	}
	payloadSize := size - 2

	total := headerSize + payloadSize
	if len(buf) < total {
		return nil, 0, nil
	}

	payload := buf[headerSize:total]
	return &Frame{Opcode: opcode, Payload: payload}, total, nil
}

// Encode serializes a client→server packet. Before the header crypt is
// initialized (i.e. before CMSG_AUTH_SESSION is sent), the header is 4
// bytes: size(u16 BE) + opcode(u16 LE). Once initialized, it is 6 bytes:
// size(u16 BE) + opcode(u16 LE) + two zero bytes, and the whole header is
// run through the crypt hook before transmission.
func (c *Codec) Encode(opcode uint16, payload []byte) []byte {
	if !c.Crypt.Initialized() {
		out := make([]byte, 4+len(payload))
		totalSize := len(payload) + 2
		out[0] = byte(totalSize >> 8)
		out[1] = byte(totalSize & 0xFF)
		binary.LittleEndian.PutUint16(out[2:4], opcode)
		copy(out[4:], payload)
		return out
	}

	header := make([]byte, 6)
	totalSize := len(payload) + 4
	header[0] = byte(totalSize >> 8)
	header[1] = byte(totalSize & 0xFF)
	binary.LittleEndian.PutUint16(header[2:4], opcode)
	header[4] = 0
	header[5] = 0
	c.Crypt.Encrypt(header)

	out := make([]byte, 6+len(payload))
	copy(out, header)
	copy(out[6:], payload)
	return out
}
