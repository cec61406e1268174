package util

import (
	"io"

	"github.com/portalmc/portal/pkg/util/uuid"
)

// PReader reads values and panics on error. Use together with Recover
// in packet Decode implementations.
type PReader struct {
	r io.Reader
}

func PanicReader(r io.Reader) *PReader {
	return &PReader{r}
}

func (r *PReader) VarInt() int {
	v, err := ReadVarInt(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) VarLong() int64 {
	v, err := ReadVarLong(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) String() string {
	v, err := ReadString(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) StringMax(max int) string {
	v, err := ReadStringMax(r.r, max)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) Strings() []string {
	v, err := ReadStringArray(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) Bool() bool {
	v, err := ReadBool(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) Byte() byte {
	v, err := ReadByte(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) Bytes() []byte {
	v, err := ReadBytes(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) Uint16() uint16 {
	v, err := ReadUint16(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) Int() int {
	v, err := ReadInt(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) Int64() int64 {
	v, err := ReadInt64(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) Float32() float32 {
	v, err := ReadFloat32(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) Float64() float64 {
	v, err := ReadFloat64(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *PReader) UUID() uuid.UUID {
	v, err := ReadUUID(r.r)
	if err != nil {
		panic(err)
	}
	return v
}

// PWriter writes values and panics on error.
type PWriter struct {
	w io.Writer
}

func PanicWriter(w io.Writer) *PWriter {
	return &PWriter{w}
}

func (w *PWriter) VarInt(i int) {
	if err := WriteVarInt(w.w, i); err != nil {
		panic(err)
	}
}

func (w *PWriter) VarLong(i int64) {
	if err := WriteVarLong(w.w, i); err != nil {
		panic(err)
	}
}

func (w *PWriter) String(s string) {
	if err := WriteString(w.w, s); err != nil {
		panic(err)
	}
}

func (w *PWriter) Strings(s []string) {
	if err := WriteStrings(w.w, s); err != nil {
		panic(err)
	}
}

func (w *PWriter) Bool(b bool) bool {
	if err := WriteBool(w.w, b); err != nil {
		panic(err)
	}
	return b
}

func (w *PWriter) Byte(b byte) {
	if err := WriteByte(w.w, b); err != nil {
		panic(err)
	}
}

func (w *PWriter) Bytes(b []byte) {
	if err := WriteBytes(w.w, b); err != nil {
		panic(err)
	}
}

func (w *PWriter) Uint16(i uint16) {
	if err := WriteUint16(w.w, i); err != nil {
		panic(err)
	}
}

func (w *PWriter) Int(i int) {
	if err := WriteInt(w.w, i); err != nil {
		panic(err)
	}
}

func (w *PWriter) Int64(i int64) {
	if err := WriteInt64(w.w, i); err != nil {
		panic(err)
	}
}

func (w *PWriter) Float32(f float32) {
	if err := WriteFloat32(w.w, f); err != nil {
		panic(err)
	}
}

func (w *PWriter) Float64(f float64) {
	if err := WriteFloat64(w.w, f); err != nil {
		panic(err)
	}
}

func (w *PWriter) UUID(id uuid.UUID) {
	if err := WriteUUID(w.w, id); err != nil {
		panic(err)
	}
}
