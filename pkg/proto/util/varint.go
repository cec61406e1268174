package util

import (
	"errors"
	"fmt"
	"io"
)

// ReadVarIntReturnN is like ReadVarInt but also returns the number of bytes read.
func ReadVarIntReturnN(r io.Reader) (result int, n int, err error) {
	var b byte
	for {
		b, err = ReadByte(r)
		if err != nil {
			return 0, n, err
		}
		result |= int(uint32(b&0x7F) << (uint(n) * 7))
		n++
		if b&0x80 == 0 {
			break
		}
		if n == 5 {
			// No valid VarInt continues past its 5th byte.
			return 0, n, errors.New("varint is too big")
		}
	}
	return int(int32(result)), n, nil
}

// WriteVarIntN is like WriteVarInt but also returns the number of bytes written.
func WriteVarIntN(writer io.Writer, val int) (n int, err error) {
	u := uint32(val)
	for {
		temp := byte(u & 0x7F)
		u >>= 7
		if u != 0 {
			temp |= 0x80
		}
		if err = WriteByte(writer, temp); err != nil {
			return n, err
		}
		n++
		if u == 0 {
			return n, nil
		}
	}
}

// VarIntLen returns the number of bytes the VarInt encoding of val takes.
func VarIntLen(val int) int {
	u := uint32(val)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}

// Recover recovers a panic into *err.
// Packet Encode/Decode implementations may index past buffers on
// malformed input; the codec converts that into an error.
func Recover(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = e
			return
		}
		*err = fmt.Errorf("%v", r)
	}
}

// RecoverFunc runs fn and converts a panic into an error.
func RecoverFunc(fn func() error) (err error) {
	defer Recover(&err)
	return fn()
}
