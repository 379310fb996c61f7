package ca

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// NativeType is one of the seven scalar kinds a DBR type ID encodes.
type NativeType int

const (
	NativeString NativeType = iota
	NativeInt16             // DBR_INT / DBR_SHORT
	NativeFloat32
	NativeEnum
	NativeChar
	NativeInt32 // DBR_LONG
	NativeFloat64
)

func (n NativeType) IsInt() bool {
	return n == NativeInt16 || n == NativeInt32
}
func (n NativeType) IsFloat() bool {
	return n == NativeFloat32 || n == NativeFloat64
}
func (n NativeType) IsString() bool { return n == NativeString }
func (n NativeType) IsChar() bool   { return n == NativeChar }
func (n NativeType) IsEnum() bool   { return n == NativeEnum }

// ElementSize is the on-wire byte size of one array element of this
// native type.
func (n NativeType) ElementSize() int {
	switch n {
	case NativeString:
		return 40
	case NativeInt16, NativeEnum:
		return 2
	case NativeFloat32, NativeInt32:
		return 4
	case NativeChar:
		return 1
	case NativeFloat64:
		return 8
	}
	return 0
}

// Envelope is the metadata prefix wrapping a native DBR payload.
type Envelope int

const (
	EnvelopePlain Envelope = iota
	EnvelopeStatus
	EnvelopeTime
	EnvelopeGraphic
	EnvelopeControl
)

// Type is a DBR wire type ID, 0..38: (NativeType, Envelope) plus the two
// sparse extension IDs PutAckT/PutAckS and the two non-lattice IDs
// StsackString and ClassName.
type Type uint16

const (
	DBR_STRING Type = 0
	DBR_INT    Type = 1
	DBR_FLOAT  Type = 2
	DBR_ENUM   Type = 3
	DBR_CHAR   Type = 4
	DBR_LONG   Type = 5
	DBR_DOUBLE Type = 6

	DBR_STS_STRING Type = 7
	DBR_STS_INT    Type = 8
	DBR_STS_FLOAT  Type = 9
	DBR_STS_ENUM   Type = 10
	DBR_STS_CHAR   Type = 11
	DBR_STS_LONG   Type = 12
	DBR_STS_DOUBLE Type = 13

	DBR_TIME_STRING Type = 14
	DBR_TIME_INT    Type = 15
	DBR_TIME_FLOAT  Type = 16
	DBR_TIME_ENUM   Type = 17
	DBR_TIME_CHAR   Type = 18
	DBR_TIME_LONG   Type = 19
	DBR_TIME_DOUBLE Type = 20

	DBR_GR_STRING Type = 21 // allocated, never produced by real servers
	DBR_GR_INT    Type = 22
	DBR_GR_FLOAT  Type = 23
	DBR_GR_ENUM   Type = 24
	DBR_GR_CHAR   Type = 25
	DBR_GR_LONG   Type = 26
	DBR_GR_DOUBLE Type = 27

	DBR_CTRL_STRING Type = 28
	DBR_CTRL_INT    Type = 29
	DBR_CTRL_FLOAT  Type = 30
	DBR_CTRL_ENUM   Type = 31
	DBR_CTRL_CHAR   Type = 32
	DBR_CTRL_LONG   Type = 33
	DBR_CTRL_DOUBLE Type = 34

	DBR_PUT_ACKT     Type = 35
	DBR_PUT_ACKS     Type = 36
	DBR_STSACK_STRING Type = 37
	DBR_CLASS_NAME   Type = 38
)

var nativeNames = [...]string{"STRING", "INT", "FLOAT", "ENUM", "CHAR", "LONG", "DOUBLE"}
var envelopeNames = [...]string{"", "STS_", "TIME_", "GR_", "CTRL_"}

func (t Type) String() string {
	switch t {
	case DBR_PUT_ACKT:
		return "DBR_PUT_ACKT"
	case DBR_PUT_ACKS:
		return "DBR_PUT_ACKS"
	case DBR_STSACK_STRING:
		return "DBR_STSACK_STRING"
	case DBR_CLASS_NAME:
		return "DBR_CLASS_NAME"
	}
	native, env, err := t.Decompose()
	if err != nil {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return "DBR_" + envelopeNames[env] + nativeNames[native]
}

// Decompose splits a lattice Type ID (0..34) into its native type and
// envelope. IDs 35..38 are not part of the lattice and return an error.
func (t Type) Decompose() (NativeType, Envelope, error) {
	if t > 34 {
		return 0, 0, &CaprotoTypeError{Reason: fmt.Sprintf("%d is not a native/status/time/graphic/control type", t)}
	}
	return NativeType(int(t) % 7), Envelope(int(t) / 7), nil
}

// Promote returns the Type ID for (native, envelope), erroring only for
// inputs outside the 0..34 lattice range (native and envelope are both
// closed enums so this cannot otherwise fail).
func Promote(native NativeType, envelope Envelope) (Type, error) {
	if native < NativeString || native > NativeFloat64 {
		return 0, &CaprotoTypeError{Reason: "unknown native type"}
	}
	if envelope < EnvelopePlain || envelope > EnvelopeControl {
		return 0, &CaprotoTypeError{Reason: "unknown envelope"}
	}
	return Type(int(envelope)*7 + int(native)), nil
}

// Native returns the native type for t, tolerating the non-lattice IDs
// (PUT_ACKT/S both report NativeInt16 as they carry no array data of
// their own; STSACK_STRING and CLASS_NAME report NativeString).
func (t Type) Native() NativeType {
	switch t {
	case DBR_PUT_ACKT:
		return NativeInt16
	case DBR_PUT_ACKS:
		return NativeInt16
	case DBR_STSACK_STRING, DBR_CLASS_NAME:
		return NativeString
	}
	n, _, err := t.Decompose()
	if err != nil {
		return NativeString
	}
	return n
}

func (t Type) Envelope() Envelope {
	_, e, err := t.Decompose()
	if err != nil {
		return EnvelopePlain
	}
	return e
}

// MetadataSize is the byte length of the envelope prefix preceding the
// array payload for t (0 for EnvelopePlain).
func (t Type) MetadataSize() int {
	switch t {
	case DBR_STSACK_STRING:
		return 2 + 2 // status, severity (ackt/acks transmitted as part of payload by convention)
	case DBR_CLASS_NAME:
		return 0
	case DBR_PUT_ACKT, DBR_PUT_ACKS:
		return 0
	}
	native, env, err := t.Decompose()
	if err != nil {
		return 0
	}
	switch env {
	case EnvelopePlain:
		return 0
	case EnvelopeStatus:
		return 4 // status u16, severity u16
	case EnvelopeTime:
		return 4 + 8 // status, severity, epics timestamp (u32 seconds, u32 nanoseconds)
	case EnvelopeGraphic:
		return graphicMetaSize(native)
	case EnvelopeControl:
		return graphicMetaSize(native) + ctrlExtraSize(native)
	}
	return 0
}

func graphicMetaSize(native NativeType) int {
	switch native {
	case NativeEnum:
		return 2 + 2 + 2 + 16*26 // status, severity, numStrings u16, 16 strings of 26 bytes
	case NativeString:
		return 0
	default:
		// status u16, severity u16, precision u16 (float only, 0 for int),
		// units char[8], upper_disp, lower_disp, upper_alarm, upper_warning,
		// lower_warning, lower_alarm -- each element-sized
		sz := 4 + 8 // status+severity, units
		if native.IsFloat() {
			sz += 2 // precision
		}
		sz += 6 * native.ElementSize()
		return sz
	}
}

func ctrlExtraSize(native NativeType) int {
	if native == NativeEnum || native == NativeString {
		return 0
	}
	return 2 * native.ElementSize() // upper_ctrl_limit, lower_ctrl_limit
}

// TimeStamp is seconds and nanoseconds since the EPICS epoch,
// 1990-01-01T00:00:00 UTC.
type TimeStamp struct {
	Seconds     uint32
	Nanoseconds uint32
}

// EpicsEpoch is the EPICS protocol's zero time.
var EpicsEpoch = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

func TimeStampFromTime(t time.Time) TimeStamp {
	d := t.Sub(EpicsEpoch)
	return TimeStamp{
		Seconds:     uint32(d / time.Second),
		Nanoseconds: uint32(d % time.Second),
	}
}

func (ts TimeStamp) Time() time.Time {
	return EpicsEpoch.Add(time.Duration(ts.Seconds)*time.Second + time.Duration(ts.Nanoseconds))
}

// StatusMetadata is the EnvelopeStatus/EnvelopeTime/EnvelopeGraphic/
// EnvelopeControl common prefix: a status/severity pair.
type StatusMetadata struct {
	Status   uint16
	Severity uint16
}

// TimeMetadata is the envelope carried by DBR_TIME_* types.
type TimeMetadata struct {
	StatusMetadata
	Timestamp TimeStamp
}

// GraphicMetadata is the envelope carried by DBR_GR_* types (and embedded
// in DBR_CTRL_*). EnumStrings is populated only for enum-native types;
// Precision only for float-native types.
type GraphicMetadata struct {
	StatusMetadata
	Precision       int16
	Units           string
	UpperDispLimit  float64
	LowerDispLimit  float64
	UpperAlarmLimit float64
	UpperWarnLimit  float64
	LowerWarnLimit  float64
	LowerAlarmLimit float64
	EnumStrings     []string
}

// ControlMetadata adds the operator-adjustable control limits on top of
// GraphicMetadata, per DBR_CTRL_*.
type ControlMetadata struct {
	GraphicMetadata
	Timestamp      TimeStamp // DBR_TIME_* only
	UpperCtrlLimit float64
	LowerCtrlLimit float64
}

// ConvertElement converts a single scalar value between native kinds per
// spec §4.2's conversion policies: float->int truncates toward zero,
// any->string formats (with Precision if > 0), string->number parses
// conservatively, and string->enum looks the string up in enumStrings.
// enum<->integer and enum->string work on the numeric index only;
// enumStrings is not consulted for them.
func ConvertElement(value interface{}, from, to NativeType, precision int, enumStrings []string) (interface{}, error) {
	if from == to {
		return value, nil
	}

	switch to {
	case NativeString:
		return convertToString(value, from, precision), nil
	case NativeInt16, NativeInt32, NativeChar:
		return convertToInt(value, from)
	case NativeFloat32, NativeFloat64:
		return convertToFloat(value, from, to)
	case NativeEnum:
		return convertToEnum(value, from, enumStrings)
	}
	return nil, &CaprotoTypeError{Reason: "unsupported conversion target"}
}

func convertToString(value interface{}, from NativeType, precision int) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if precision > 0 {
			return strconv.FormatFloat(v, 'f', precision, 64)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return convertToString(float64(v), from, precision)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return convertToString(int64(v), from, precision)
	case int16:
		return convertToString(int64(v), from, precision)
	case byte:
		return convertToString(int64(v), from, precision)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func convertToInt(value interface{}, from NativeType) (interface{}, error) {
	switch v := value.(type) {
	case float64:
		return int32(math.Trunc(v)), nil
	case float32:
		return int32(math.Trunc(float64(v))), nil
	case int32:
		return v, nil
	case int16:
		return int32(v), nil
	case byte:
		return int32(v), nil
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &CaprotoValueError{Reason: fmt.Sprintf("cannot parse %q as integer: %v", v, err)}
		}
		return int32(i), nil
	default:
		return nil, &CaprotoTypeError{Reason: fmt.Sprintf("cannot convert %T to int", value)}
	}
}

func convertToFloat(value interface{}, from, to NativeType) (interface{}, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int32:
		f = float64(v)
	case int16:
		f = float64(v)
	case byte:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &CaprotoValueError{Reason: fmt.Sprintf("cannot parse %q as float: %v", v, err)}
		}
		f = parsed
	default:
		return nil, &CaprotoTypeError{Reason: fmt.Sprintf("cannot convert %T to float", value)}
	}
	if to == NativeFloat32 {
		return float32(f), nil
	}
	return f, nil
}

func convertToEnum(value interface{}, from NativeType, enumStrings []string) (interface{}, error) {
	if from == NativeString {
		s, _ := value.(string)
		for i, es := range enumStrings {
			if es == s {
				return int16(i), nil
			}
		}
		return nil, &CaprotoValueError{Reason: fmt.Sprintf("%q is not one of the channel's enum strings", s)}
	}
	i, err := convertToInt(value, from)
	if err != nil {
		return nil, err
	}
	return int16(i.(int32)), nil
}
