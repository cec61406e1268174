package codec

import (
	"bytes"
	"sync"
)

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

func getBuf() (*bytes.Buffer, func()) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf, func() { bufPool.Put(buf) }
}
