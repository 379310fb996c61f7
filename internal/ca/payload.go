package ca

import (
	"encoding/binary"
	"math"
)

// EncodePayload serializes a DBR-typed value for the wire: the envelope
// metadata for typ's envelope, followed by every element of elements in
// typ's native type. elements must be a []float64, []float32, []int32, []int16,
// []byte, or []string matching the native type, or a scalar of the same
// kinds (treated as a one-element array).
func EncodePayload(typ Type, elements interface{}, meta ControlMetadata) ([]byte, error) {
	native := typ.Native()
	var buf []byte
	buf = appendMetadata(buf, typ, meta)

	switch native {
	case NativeString:
		vals, err := toStringSlice(elements)
		if err != nil {
			return nil, err
		}
		if len(vals) == 1 {
			buf = append(buf, make([]byte, padLen(len(vals[0])))...)
			copy(buf[len(buf)-padLen(len(vals[0])):], vals[0])
			return buf, nil
		}
		for _, s := range vals {
			b := make([]byte, 40)
			copy(b, s)
			buf = append(buf, b...)
		}
		return buf, nil
	case NativeChar:
		vals, err := toByteSlice(elements)
		if err != nil {
			return nil, err
		}
		return append(buf, vals...), nil
	case NativeInt16, NativeEnum:
		vals, err := toInt16Slice(elements)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], uint16(v))
			buf = append(buf, b[:]...)
		}
		return buf, nil
	case NativeInt32:
		vals, err := toInt32Slice(elements)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], uint32(v))
			buf = append(buf, b[:]...)
		}
		return buf, nil
	case NativeFloat32:
		vals, err := toFloat32Slice(elements)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
			buf = append(buf, b[:]...)
		}
		return buf, nil
	case NativeFloat64:
		vals, err := toFloat64Slice(elements)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
			buf = append(buf, b[:]...)
		}
		return buf, nil
	}
	return nil, &CaprotoTypeError{Reason: "unsupported native type for encoding"}
}

// DecodePayload splits a received payload into its envelope metadata and
// the decoded native-typed elements.
func DecodePayload(typ Type, count int, payload []byte) (ControlMetadata, interface{}, error) {
	native := typ.Native()
	metaLen := typ.MetadataSize()
	if len(payload) < metaLen {
		return ControlMetadata{}, nil, &ValidationError{Reason: "payload shorter than envelope metadata"}
	}
	meta, err := parseMetadata(typ, payload[:metaLen])
	if err != nil {
		return ControlMetadata{}, nil, err
	}
	data := payload[metaLen:]

	switch native {
	case NativeString:
		if count <= 1 {
			return meta, getPaddedString(data), nil
		}
		var out []string
		for i := 0; i+40 <= len(data); i += 40 {
			out = append(out, getPaddedString(data[i:i+40]))
		}
		return meta, out, nil
	case NativeChar:
		out := make([]byte, len(data))
		copy(out, data)
		return meta, out, nil
	case NativeInt16, NativeEnum:
		out := make([]int16, 0, count)
		for i := 0; i+2 <= len(data); i += 2 {
			out = append(out, int16(binary.BigEndian.Uint16(data[i:i+2])))
		}
		return meta, out, nil
	case NativeInt32:
		out := make([]int32, 0, count)
		for i := 0; i+4 <= len(data); i += 4 {
			out = append(out, int32(binary.BigEndian.Uint32(data[i:i+4])))
		}
		return meta, out, nil
	case NativeFloat32:
		out := make([]float32, 0, count)
		for i := 0; i+4 <= len(data); i += 4 {
			out = append(out, math.Float32frombits(binary.BigEndian.Uint32(data[i:i+4])))
		}
		return meta, out, nil
	case NativeFloat64:
		out := make([]float64, 0, count)
		for i := 0; i+8 <= len(data); i += 8 {
			out = append(out, math.Float64frombits(binary.BigEndian.Uint64(data[i:i+8])))
		}
		return meta, out, nil
	}
	return ControlMetadata{}, nil, &CaprotoTypeError{Reason: "unsupported native type for decoding"}
}

func appendMetadata(buf []byte, typ Type, m ControlMetadata) []byte {
	env := typ.Envelope()
	if typ > 34 {
		return buf
	}
	if env == EnvelopePlain {
		return buf
	}

	var b16 [2]byte
	put16 := func(v uint16) {
		binary.BigEndian.PutUint16(b16[:], v)
		buf = append(buf, b16[:]...)
	}
	put16(m.Status)
	put16(m.Severity)
	if env == EnvelopePlain || env == EnvelopeStatus {
		return buf
	}
	if env == EnvelopeTime {
		var b4 [4]byte
		binary.BigEndian.PutUint32(b4[:], m.Timestamp.Seconds)
		buf = append(buf, b4[:]...)
		binary.BigEndian.PutUint32(b4[:], m.Timestamp.Nanoseconds)
		buf = append(buf, b4[:]...)
		return buf
	}

	// Graphic / Control envelopes.
	native := typ.Native()
	if native == NativeEnum {
		put16(uint16(len(m.EnumStrings)))
		for i := 0; i < 16; i++ {
			b := make([]byte, 26)
			if i < len(m.EnumStrings) {
				copy(b, m.EnumStrings[i])
			}
			buf = append(buf, b...)
		}
		return buf
	}
	if native == NativeString {
		return buf
	}

	if native.IsFloat() {
		put16(uint16(m.Precision))
	}
	units := make([]byte, 8)
	copy(units, m.Units)
	buf = append(buf, units...)

	appendLimit := func(v float64) {
		buf = appendElement(buf, native, v)
	}
	appendLimit(m.UpperDispLimit)
	appendLimit(m.LowerDispLimit)
	appendLimit(m.UpperAlarmLimit)
	appendLimit(m.UpperWarnLimit)
	appendLimit(m.LowerWarnLimit)
	appendLimit(m.LowerAlarmLimit)

	if env == EnvelopeControl {
		appendLimit(m.UpperCtrlLimit)
		appendLimit(m.LowerCtrlLimit)
	}
	return buf
}

func appendElement(buf []byte, native NativeType, v float64) []byte {
	switch native {
	case NativeInt16:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(int16(v)))
		return append(buf, b[:]...)
	case NativeInt32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(int32(v)))
		return append(buf, b[:]...)
	case NativeFloat32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(v)))
		return append(buf, b[:]...)
	case NativeFloat64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
		return append(buf, b[:]...)
	case NativeChar:
		return append(buf, byte(int8(v)))
	}
	return buf
}

func readElement(native NativeType, b []byte) float64 {
	switch native {
	case NativeInt16:
		return float64(int16(binary.BigEndian.Uint16(b)))
	case NativeInt32:
		return float64(int32(binary.BigEndian.Uint32(b)))
	case NativeFloat32:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
	case NativeFloat64:
		return math.Float64frombits(binary.BigEndian.Uint64(b))
	case NativeChar:
		return float64(int8(b[0]))
	}
	return 0
}

func parseMetadata(typ Type, b []byte) (ControlMetadata, error) {
	var m ControlMetadata
	env := typ.Envelope()
	if typ > 34 || env == EnvelopePlain {
		return m, nil
	}

	m.Status = binary.BigEndian.Uint16(b[0:2])
	m.Severity = binary.BigEndian.Uint16(b[2:4])
	b = b[4:]
	if env == EnvelopeStatus {
		return m, nil
	}
	if env == EnvelopeTime {
		m.Timestamp.Seconds = binary.BigEndian.Uint32(b[0:4])
		m.Timestamp.Nanoseconds = binary.BigEndian.Uint32(b[4:8])
		return m, nil
	}

	native := typ.Native()
	if native == NativeEnum {
		n := binary.BigEndian.Uint16(b[0:2])
		b = b[2:]
		for i := 0; i < 16; i++ {
			s := getPaddedString(b[i*26 : i*26+26])
			if uint16(i) < n {
				m.EnumStrings = append(m.EnumStrings, s)
			}
		}
		return m, nil
	}
	if native == NativeString {
		return m, nil
	}

	if native.IsFloat() {
		m.Precision = int16(binary.BigEndian.Uint16(b[0:2]))
		b = b[2:]
	}
	m.Units = getPaddedString(b[0:8])
	b = b[8:]

	sz := native.ElementSize()
	next := func() float64 {
		v := readElement(native, b[:sz])
		b = b[sz:]
		return v
	}
	m.UpperDispLimit = next()
	m.LowerDispLimit = next()
	m.UpperAlarmLimit = next()
	m.UpperWarnLimit = next()
	m.LowerWarnLimit = next()
	m.LowerAlarmLimit = next()
	if env == EnvelopeControl {
		m.UpperCtrlLimit = next()
		m.LowerCtrlLimit = next()
	}
	return m, nil
}

func toStringSlice(v interface{}) ([]string, error) {
	switch x := v.(type) {
	case string:
		return []string{x}, nil
	case []string:
		return x, nil
	}
	return nil, &CaprotoTypeError{Reason: "expected string or []string"}
}

func toByteSlice(v interface{}) ([]byte, error) {
	switch x := v.(type) {
	case byte:
		return []byte{x}, nil
	case []byte:
		return x, nil
	}
	return nil, &CaprotoTypeError{Reason: "expected byte or []byte"}
}

func toInt16Slice(v interface{}) ([]int16, error) {
	switch x := v.(type) {
	case int16:
		return []int16{x}, nil
	case []int16:
		return x, nil
	}
	return nil, &CaprotoTypeError{Reason: "expected int16 or []int16"}
}

func toInt32Slice(v interface{}) ([]int32, error) {
	switch x := v.(type) {
	case int32:
		return []int32{x}, nil
	case []int32:
		return x, nil
	}
	return nil, &CaprotoTypeError{Reason: "expected int32 or []int32"}
}

func toFloat32Slice(v interface{}) ([]float32, error) {
	switch x := v.(type) {
	case float32:
		return []float32{x}, nil
	case []float32:
		return x, nil
	}
	return nil, &CaprotoTypeError{Reason: "expected float32 or []float32"}
}

func toFloat64Slice(v interface{}) ([]float64, error) {
	switch x := v.(type) {
	case float64:
		return []float64{x}, nil
	case []float64:
		return x, nil
	}
	return nil, &CaprotoTypeError{Reason: "expected float64 or []float64"}
}
