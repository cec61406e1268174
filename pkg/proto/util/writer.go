package util

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/portalmc/portal/pkg/util/profile"
	"github.com/portalmc/portal/pkg/util/uuid"
)

func WriteString(writer io.Writer, val string) (err error) {
	err = WriteVarInt(writer, len(val))
	if err != nil {
		return
	}
	_, err = writer.Write([]byte(val))
	return
}

func WriteVarInt(writer io.Writer, val int) (err error) {
	u := uint32(val)
	for {
		temp := byte(u & 0x7F)
		u >>= 7
		if u != 0 {
			temp |= 0x80
		}
		if err = WriteByte(writer, temp); err != nil {
			return err
		}
		if u == 0 {
			return nil
		}
	}
}

func WriteVarLong(writer io.Writer, val int64) (err error) {
	u := uint64(val)
	for {
		temp := byte(u & 0x7F)
		u >>= 7
		if u != 0 {
			temp |= 0x80
		}
		if err = WriteByte(writer, temp); err != nil {
			return err
		}
		if u == 0 {
			return nil
		}
	}
}

func WriteBool(writer io.Writer, val bool) (err error) {
	if val {
		return WriteUint8(writer, 1)
	}
	return WriteUint8(writer, 0)
}

func WriteInt8(writer io.Writer, val int8) (err error) {
	return WriteUint8(writer, uint8(val))
}

func WriteUint8(writer io.Writer, val uint8) (err error) {
	if bw, ok := writer.(io.ByteWriter); ok {
		return bw.WriteByte(val)
	}
	var protocol [1]byte
	protocol[0] = val
	_, err = writer.Write(protocol[:1])
	return
}

func WriteByte(writer io.Writer, val byte) (err error) {
	return WriteUint8(writer, val)
}

func WriteInt16(writer io.Writer, val int16) (err error) {
	return WriteUint16(writer, uint16(val))
}

func WriteUint16(writer io.Writer, val uint16) (err error) {
	var protocol [2]byte
	binary.BigEndian.PutUint16(protocol[:2], val)
	_, err = writer.Write(protocol[:2])
	return
}

func WriteInt32(writer io.Writer, val int32) (err error) {
	return WriteUint32(writer, uint32(val))
}

func WriteInt(writer io.Writer, val int) (err error) {
	return WriteInt32(writer, int32(val))
}

func WriteUint32(writer io.Writer, val uint32) (err error) {
	var protocol [4]byte
	binary.BigEndian.PutUint32(protocol[:4], val)
	_, err = writer.Write(protocol[:4])
	return
}

func WriteInt64(writer io.Writer, val int64) (err error) {
	return WriteUint64(writer, uint64(val))
}

func WriteUint64(writer io.Writer, val uint64) (err error) {
	var protocol [8]byte
	binary.BigEndian.PutUint64(protocol[:8], val)
	_, err = writer.Write(protocol[:8])
	return
}

func WriteFloat32(writer io.Writer, val float32) (err error) {
	return WriteUint32(writer, math.Float32bits(val))
}

func WriteFloat64(writer io.Writer, val float64) (err error) {
	return WriteUint64(writer, math.Float64bits(val))
}

// WriteBytes writes a length-prefixed byte slice.
func WriteBytes(wr io.Writer, b []byte) (err error) {
	err = WriteVarInt(wr, len(b))
	if err != nil {
		return err
	}
	_, err = wr.Write(b)
	return
}

// WriteRawBytes writes the bytes without a length prefix.
func WriteRawBytes(wr io.Writer, b []byte) (err error) {
	_, err = wr.Write(b)
	return
}

func WriteStrings(wr io.Writer, a []string) error {
	err := WriteVarInt(wr, len(a))
	if err != nil {
		return err
	}
	for _, s := range a {
		err = WriteString(wr, s)
		if err != nil {
			return err
		}
	}
	return nil
}

func WriteUUID(wr io.Writer, id uuid.UUID) error {
	_, err := wr.Write(id[:])
	return err
}

func WriteProperties(wr io.Writer, properties []profile.Property) error {
	err := WriteVarInt(wr, len(properties))
	if err != nil {
		return err
	}
	for _, prop := range properties {
		err = WriteString(wr, prop.Name)
		if err != nil {
			return err
		}
		err = WriteString(wr, prop.Value)
		if err != nil {
			return err
		}
		hasSignature := prop.Signature != ""
		err = WriteBool(wr, hasSignature)
		if err != nil {
			return err
		}
		if hasSignature {
			err = WriteString(wr, prop.Signature)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
