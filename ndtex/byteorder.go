package ndtex

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ByteOrder tags the ordering of bytes within a multi-byte element.
type ByteOrder byte

const (
	LittleEndian ByteOrder = 'L'
	BigEndian    ByteOrder = 'B'
)

var hostOrder ByteOrder

func init() {
	var test [2]byte
	binary.NativeEndian.PutUint16(test[:], 348)
	if binary.LittleEndian.Uint16(test[:]) == 348 {
		hostOrder = LittleEndian
	} else {
		hostOrder = BigEndian
	}
}

// HostByteOrder returns the byte order of the machine we are running on.
func HostByteOrder() ByteOrder {
	return hostOrder
}

// Binary returns the encoding/binary implementation for this byte order.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

// ParseByteOrder accepts "L", "LE", "little", "B", "BE", "big" in any case.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "le", "little":
		return LittleEndian, nil
	case "b", "be", "big":
		return BigEndian, nil
	default:
		return 0, fmt.Errorf("unknown byte order %q: %w", s, ErrFormat)
	}
}

// SwapBytes reverses the byte order of every width-byte element in data, in place.
// Single byte elements and trailing partial elements are left untouched.
func SwapBytes(data []byte, width int) {
	if width <= 1 {
		return
	}
	for pos := 0; pos+width <= len(data); pos += width {
		elem := data[pos : pos+width]
		for i, j := 0, width-1; i < j; i, j = i+1, j-1 {
			elem[i], elem[j] = elem[j], elem[i]
		}
	}
}
