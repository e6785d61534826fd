/*
   This file handles the closed set of numeric element kinds and routines that
   read and write a single element within a slice of bytes.
*/

package ndtex

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// DataType is a unique ID for each numeric element kind, e.g., a uint8 or a float32.
type DataType uint8

const (
	T_uint8 DataType = iota
	T_int8
	T_uint16
	T_int16
	T_uint32
	T_int32
	T_float32
	T_float64
)

var typeBytes = map[DataType]int{
	T_uint8:   1,
	T_int8:    1,
	T_uint16:  2,
	T_int16:   2,
	T_uint32:  4,
	T_int32:   4,
	T_float32: 4,
	T_float64: 8,
}

var typeNames = map[DataType]string{
	T_uint8:   "uint8",
	T_int8:    "int8",
	T_uint16:  "uint16",
	T_int16:   "int16",
	T_uint32:  "uint32",
	T_int32:   "int32",
	T_float32: "float32",
	T_float64: "float64",
}

// aliases used by NRRD and other volume headers.
var typeAliases = map[string]DataType{
	"uchar":          T_uint8,
	"unsigned char":  T_uint8,
	"uint8_t":        T_uint8,
	"signed char":    T_int8,
	"int8_t":         T_int8,
	"short":          T_int16,
	"int16_t":        T_int16,
	"ushort":         T_uint16,
	"unsigned short": T_uint16,
	"uint16_t":       T_uint16,
	"int":            T_int32,
	"int32_t":        T_int32,
	"uint":           T_uint32,
	"unsigned int":   T_uint32,
	"uint32_t":       T_uint32,
	"float":          T_float32,
	"double":         T_float64,
}

// DataTypeBytes returns the # of bytes for a given type, or 0 if the type is unknown.
func DataTypeBytes(t DataType) int {
	return typeBytes[t]
}

// Bytes returns the width of one element in bytes.
func (t DataType) Bytes() int {
	return typeBytes[t]
}

// Valid returns true if t is one of the supported element kinds.
func (t DataType) Valid() bool {
	_, found := typeBytes[t]
	return found
}

// IsFloat returns true for the floating point kinds.
func (t DataType) IsFloat() bool {
	return t == T_float32 || t == T_float64
}

func (t DataType) String() string {
	if name, found := typeNames[t]; found {
		return name
	}
	return fmt.Sprintf("unknown DataType %d", uint8(t))
}

// NrrdName returns the type name used in NRRD headers.
func (t DataType) NrrdName() string {
	switch t {
	case T_float32:
		return "float"
	case T_float64:
		return "double"
	default:
		return typeNames[t]
	}
}

// ParseDataType returns the DataType for a type name like "uint16" or an NRRD
// alias like "unsigned short" or "double".
func ParseDataType(s string) (DataType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, tname := range typeNames {
		if tname == name {
			return t, nil
		}
	}
	if t, found := typeAliases[name]; found {
		return t, nil
	}
	return 0, fmt.Errorf("unsupported data type %q: %w", s, ErrFormat)
}

// Value decodes the element of kind t held in the first t.Bytes() bytes of b.
func (t DataType) Value(b []byte, bo binary.ByteOrder) float64 {
	switch t {
	case T_uint8:
		return float64(b[0])
	case T_int8:
		return float64(int8(b[0]))
	case T_uint16:
		return float64(bo.Uint16(b))
	case T_int16:
		return float64(int16(bo.Uint16(b)))
	case T_uint32:
		return float64(bo.Uint32(b))
	case T_int32:
		return float64(int32(bo.Uint32(b)))
	case T_float32:
		return float64(math.Float32frombits(bo.Uint32(b)))
	case T_float64:
		return math.Float64frombits(bo.Uint64(b))
	default:
		panic(fmt.Sprintf("Value() called with unexpected data type %d", uint8(t)))
	}
}

// PutValue encodes v as an element of kind t into the first t.Bytes() bytes of b.
// Integer kinds truncate toward zero and wrap modulo their width; NaN and
// infinities are stored as zero.
func (t DataType) PutValue(b []byte, bo binary.ByteOrder, v float64) {
	switch t {
	case T_uint8:
		b[0] = uint8(wrapInt(v))
	case T_int8:
		b[0] = uint8(int8(wrapInt(v)))
	case T_uint16:
		bo.PutUint16(b, uint16(wrapInt(v)))
	case T_int16:
		bo.PutUint16(b, uint16(int16(wrapInt(v))))
	case T_uint32:
		bo.PutUint32(b, uint32(wrapInt(v)))
	case T_int32:
		bo.PutUint32(b, uint32(int32(wrapInt(v))))
	case T_float32:
		bo.PutUint32(b, math.Float32bits(float32(v)))
	case T_float64:
		bo.PutUint64(b, math.Float64bits(v))
	default:
		panic(fmt.Sprintf("PutValue() called with unexpected data type %d", uint8(t)))
	}
}

// wrapInt converts v to an integer congruent to trunc(v) modulo 2^32.
func wrapInt(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Mod(math.Trunc(v), 1<<32))
}
