package ca

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the length in bytes of a standard Channel Access header.
const HeaderSize = 16

// ExtendedHeaderSize is the length in bytes of a header carrying the
// extended payload_size/data_count fields used for arrays over 16KB.
const ExtendedHeaderSize = 24

// extendedSentinel is the payload_size value (with data_count == 0) that
// signals an extended header follows.
const extendedSentinel = 0xFFFF

// Header is the fixed 16-byte (or, extended, 24-byte) prefix present on
// every Channel Access command. Fields are logical values: callers never
// see whether extension was used on the wire.
type Header struct {
	Command     uint16
	PayloadSize uint32
	DataType    uint16
	DataCount   uint32
	Parameter1  uint32
	Parameter2  uint32
}

// Extended reports whether this header requires the 24-byte encoding,
// i.e. whether PayloadSize or DataCount overflow the 16-bit standard
// fields.
func (h Header) Extended() bool {
	return h.PayloadSize > 0xFFFE || h.DataCount > 0xFFFF
}

// AppendTo serializes h in the standard or extended form as required and
// appends the result to buf, returning the grown slice.
func (h Header) AppendTo(buf []byte) []byte {
	if h.Extended() {
		var b [ExtendedHeaderSize]byte
		binary.BigEndian.PutUint16(b[0:2], h.Command)
		binary.BigEndian.PutUint16(b[2:4], extendedSentinel)
		binary.BigEndian.PutUint16(b[4:6], h.DataType)
		binary.BigEndian.PutUint16(b[6:8], 0)
		binary.BigEndian.PutUint32(b[8:12], h.Parameter1)
		binary.BigEndian.PutUint32(b[12:16], h.Parameter2)
		binary.BigEndian.PutUint32(b[16:20], h.PayloadSize)
		binary.BigEndian.PutUint32(b[20:24], h.DataCount)
		return append(buf, b[:]...)
	}

	var b [HeaderSize]byte
	binary.BigEndian.PutUint16(b[0:2], h.Command)
	binary.BigEndian.PutUint16(b[2:4], uint16(h.PayloadSize))
	binary.BigEndian.PutUint16(b[4:6], h.DataType)
	binary.BigEndian.PutUint16(b[6:8], uint16(h.DataCount))
	binary.BigEndian.PutUint32(b[8:12], h.Parameter1)
	binary.BigEndian.PutUint32(b[12:16], h.Parameter2)
	return append(buf, b[:]...)
}

// PeekHeader inspects the first HeaderSize bytes of buf (without
// consuming them) and reports the logical header plus how many header
// bytes it actually occupies on the wire (16 or 24). It returns
// ok == false if buf is too short to tell.
func PeekHeader(buf []byte) (h Header, wireLen int, ok bool) {
	if len(buf) < HeaderSize {
		return Header{}, 0, false
	}

	h.Command = binary.BigEndian.Uint16(buf[0:2])
	payloadSize16 := binary.BigEndian.Uint16(buf[2:4])
	h.DataType = binary.BigEndian.Uint16(buf[4:6])
	dataCount16 := binary.BigEndian.Uint16(buf[6:8])
	h.Parameter1 = binary.BigEndian.Uint32(buf[8:12])
	h.Parameter2 = binary.BigEndian.Uint32(buf[12:16])

	if payloadSize16 == extendedSentinel && dataCount16 == 0 {
		if len(buf) < ExtendedHeaderSize {
			return Header{}, 0, false
		}
		h.PayloadSize = binary.BigEndian.Uint32(buf[16:20])
		h.DataCount = binary.BigEndian.Uint32(buf[20:24])
		return h, ExtendedHeaderSize, true
	}

	h.PayloadSize = uint32(payloadSize16)
	h.DataCount = uint32(dataCount16)
	return h, HeaderSize, true
}

// padLen returns the length, rounded up to a multiple of 8, needed to hold
// an ASCII string of n bytes plus its NUL terminator.
func padLen(n int) int {
	total := n + 1
	if rem := total % 8; rem != 0 {
		total += 8 - rem
	}
	return total
}

// putPaddedString writes s, NUL-terminated and zero-padded to a multiple
// of 8 bytes, appending to buf.
func putPaddedString(buf []byte, s string) []byte {
	n := padLen(len(s))
	start := len(buf)
	buf = append(buf, make([]byte, n)...)
	copy(buf[start:], s)
	return buf
}

// getPaddedString trims b at the first NUL byte (or returns it whole if
// none is present).
func getPaddedString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// maxNameLen is the protocol limit on a PV name once NUL-padded (§6).
const maxNameLen = 40

func validateName(name string) error {
	if padLen(len(name)) > maxNameLen {
		return &CaprotoValueError{Reason: fmt.Sprintf("name %q exceeds %d bytes padded", name, maxNameLen)}
	}
	return nil
}
