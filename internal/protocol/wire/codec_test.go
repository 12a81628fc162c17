package wire

import (
	"bytes"
	"testing"
)

func TestDecodeNeedsMoreBytes(t *testing.T) {
	c := NewCodec()
	frame, n, err := c.Decode([]byte{0x00, 0x04})
	if err != nil || frame != nil || n != 0 {
		t.Fatalf("expected need-more, got frame=%v n=%d err=%v", frame, n, err)
	}
}

func TestEncodeDecodeRoundTripUninitialized(t *testing.T) {
	c := NewCodec()
	payload := []byte("hello")
	buf := c.Encode(0x1ED, payload)

	frame, n, err := c.Decode(buf)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d want %d", n, len(buf))
	}
	if frame.Opcode != 0x1ED {
		t.Fatalf("opcode = %#x", frame.Opcode)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Fatalf("payload = %q", frame.Payload)
	}
}

func TestEncodeAfterInitUsesSixByteHeader(t *testing.T) {
	c := NewCodec()
	c.InitCrypt(make([]byte, 40))
	buf := c.Encode(0x02, []byte("x"))
	if len(buf) != 6+1 {
		t.Fatalf("len = %d, want 7", len(buf))
	}
}

func TestDecodeLargePacket(t *testing.T) {
	c := NewCodec()
	payload := make([]byte, 40000)
	for i := range payload {
		payload[i] = byte(i)
	}
	size := len(payload) + 2
	header := []byte{
		byte(0x80 | ((size >> 16) & 0x7F)),
		byte((size >> 8) & 0xFF),
		byte(size & 0xFF),
		0x34, 0x12,
	}
	buf := append(append([]byte{}, header...), payload...)

	frame, n, err := c.Decode(buf)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d want %d", n, len(buf))
	}
	if frame.Opcode != 0x1234 {
		t.Fatalf("opcode = %#x", frame.Opcode)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestReadWritePackedGUID(t *testing.T) {
	guid := uint64(0x0000_1200_0000_0042)
	packed := WritePackedGUID(guid)
	got, n, err := ReadPackedGUID(packed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(packed) {
		t.Fatalf("consumed %d want %d", n, len(packed))
	}
	if got != guid {
		t.Fatalf("got %#x want %#x", got, guid)
	}
}

func TestReadCString(t *testing.T) {
	s, n, err := ReadCString([]byte("Alice\x00trailing"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "Alice" || n != 6 {
		t.Fatalf("got %q n=%d", s, n)
	}
}
