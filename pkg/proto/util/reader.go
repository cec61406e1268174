package util

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/portalmc/portal/pkg/util/profile"
	"github.com/portalmc/portal/pkg/util/uuid"
)

func ReadString(rd io.Reader) (string, error) {
	return ReadStringMax(rd, bufio.MaxScanTokenSize)
}

func ReadStringMax(rd io.Reader, max int) (string, error) {
	length, err := ReadVarInt(rd)
	if err != nil {
		return "", err
	}
	return readStringMax(rd, max, length)
}

func readStringMax(rd io.Reader, max, length int) (string, error) {
	if length < 0 {
		return "", errors.New("length of string must not be negative")
	}
	if length > max*4 { // *4 since an UTF8 character has up to 4 bytes
		return "", fmt.Errorf("bad string length (got %d, max. %d)", length, max)
	}
	str := make([]byte, length)
	_, err := io.ReadFull(rd, str)
	if err != nil {
		return "", err
	}
	return string(str), nil
}

func ReadStringArray(rd io.Reader) ([]string, error) {
	length, err := ReadVarInt(rd)
	if err != nil {
		return nil, err
	}
	a := make([]string, 0, length)
	for i := 0; i < length; i++ {
		s, err := ReadString(rd)
		if err != nil {
			return nil, err
		}
		a = append(a, s)
	}
	return a, nil
}

func ReadBytes(rd io.Reader) ([]byte, error) {
	return ReadBytesLen(rd, bufio.MaxScanTokenSize)
}

func ReadBytesLen(rd io.Reader, maxLength int) (bytes []byte, err error) {
	length, err := ReadVarInt(rd)
	if err != nil {
		return
	}
	if length < 0 {
		err = fmt.Errorf("decoded length %d is negative", length)
		return
	}
	if length > maxLength {
		err = fmt.Errorf("decoded length %d is too long (max. %d)", length, maxLength)
		return
	}
	bytes = make([]byte, length)
	_, err = io.ReadFull(rd, bytes)
	return
}

// ReadRawBytes reads the remainder of the reader.
func ReadRawBytes(rd io.Reader) ([]byte, error) {
	return io.ReadAll(rd)
}

func ReadVarInt(r io.Reader) (result int, err error) {
	var numRead uint
	var b byte
	for {
		b, err = ReadByte(r)
		if err != nil {
			return
		}
		result |= int(uint32(b&0x7F) << (numRead * 7))
		numRead++
		if b&0x80 == 0 {
			break
		}
		if numRead == 5 {
			// 5 bytes hold all 32 bits, a set continuation bit
			// on the 5th byte is malformed.
			return 0, errors.New("varint is too big")
		}
	}
	return int(int32(result)), nil
}

func ReadVarLong(r io.Reader) (result int64, err error) {
	var numRead uint
	var b byte
	for {
		b, err = ReadByte(r)
		if err != nil {
			return
		}
		result |= int64(uint64(b&0x7F) << (numRead * 7))
		numRead++
		if numRead > 10 {
			err = errors.New("varlong is too big")
			return
		}
		if b&0x80 == 0 {
			break
		}
	}
	return result, nil
}

func ReadBool(reader io.Reader) (val bool, err error) {
	uval, err := ReadUint8(reader)
	if err != nil {
		return
	}
	return uval != 0, nil
}

func ReadInt8(reader io.Reader) (val int8, err error) {
	uval, err := ReadUint8(reader)
	val = int8(uval)
	return
}

func ReadUint8(reader io.Reader) (val uint8, err error) {
	if br, ok := reader.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var protocol [1]byte
	_, err = io.ReadFull(reader, protocol[:1])
	val = protocol[0]
	return
}

func ReadByte(reader io.Reader) (val byte, err error) {
	return ReadUint8(reader)
}

func ReadInt16(reader io.Reader) (val int16, err error) {
	uval, err := ReadUint16(reader)
	val = int16(uval)
	return
}

func ReadUint16(reader io.Reader) (val uint16, err error) {
	var protocol [2]byte
	_, err = io.ReadFull(reader, protocol[:2])
	val = binary.BigEndian.Uint16(protocol[:2])
	return
}

func ReadInt32(reader io.Reader) (val int32, err error) {
	uval, err := ReadUint32(reader)
	val = int32(uval)
	return
}

func ReadIntArray(rd io.Reader) ([]int, error) {
	length, err := ReadVarInt(rd)
	if err != nil {
		return nil, err
	}
	a := make([]int, 0, length)
	for i := 0; i < length; i++ {
		b, err := ReadVarInt(rd)
		if err != nil {
			return nil, err
		}
		a = append(a, b)
	}
	return a, nil
}

func ReadInt(rd io.Reader) (int, error) {
	i, err := ReadInt32(rd)
	return int(i), err
}

func ReadUint32(reader io.Reader) (val uint32, err error) {
	var protocol [4]byte
	_, err = io.ReadFull(reader, protocol[:4])
	val = binary.BigEndian.Uint32(protocol[:4])
	return
}

func ReadInt64(reader io.Reader) (val int64, err error) {
	uval, err := ReadUint64(reader)
	val = int64(uval)
	return
}

func ReadUint64(reader io.Reader) (val uint64, err error) {
	var protocol [8]byte
	_, err = io.ReadFull(reader, protocol[:8])
	val = binary.BigEndian.Uint64(protocol[:8])
	return
}

func ReadFloat32(reader io.Reader) (val float32, err error) {
	uval, err := ReadUint32(reader)
	val = math.Float32frombits(uval)
	return
}

func ReadFloat64(reader io.Reader) (val float64, err error) {
	uval, err := ReadUint64(reader)
	val = math.Float64frombits(uval)
	return
}

func ReadUUID(rd io.Reader) (id uuid.UUID, err error) {
	b := make([]byte, 16)
	if _, err = io.ReadFull(rd, b); err != nil {
		return
	}
	return uuid.FromBytes(b)
}

func ReadProperties(rd io.Reader) (props []profile.Property, err error) {
	var size int
	size, err = ReadVarInt(rd)
	if err != nil {
		return
	}
	props = make([]profile.Property, 0, size)
	var name, value, signature string
	for i := 0; i < size; i++ {
		name, err = ReadString(rd)
		if err != nil {
			return
		}
		value, err = ReadString(rd)
		if err != nil {
			return
		}
		signature = ""
		var hasSignature bool
		hasSignature, err = ReadBool(rd)
		if err != nil {
			return
		}
		if hasSignature {
			signature, err = ReadString(rd)
			if err != nil {
				return nil, err
			}
		}
		props = append(props, profile.Property{
			Name:      name,
			Value:     value,
			Signature: signature,
		})
	}
	return
}
