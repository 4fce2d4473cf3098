package formats

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/Faultbox/meshbake/pkg/encoding"
)

// ErrTruncatedData is returned when a binary file ends mid-record.
var ErrTruncatedData = errors.New("truncated data")

// binReader reads little-endian records and remembers the first failure.
type binReader struct {
	r   *bytes.Reader
	err error
}

func newBinReader(data []byte) *binReader {
	return &binReader{r: bytes.NewReader(data)}
}

func (b *binReader) read(v any) {
	if b.err != nil {
		return
	}
	if err := binary.Read(b.r, binary.LittleEndian, v); err != nil {
		b.err = ErrTruncatedData
	}
}

func (b *binReader) u8() uint8 {
	var v uint8
	b.read(&v)
	return v
}

func (b *binReader) i32() int32 {
	var v int32
	b.read(&v)
	return v
}

func (b *binReader) f32() float32 {
	var v float32
	b.read(&v)
	return v
}

func (b *binReader) vec3() [3]float32 {
	var v [3]float32
	b.read(&v)
	return v
}

// count reads an int32 element count and rejects values above limit.
func (b *binReader) count(limit int32, what error) int {
	n := b.i32()
	if b.err == nil && (n < 0 || n > limit) {
		b.err = what
	}
	if b.err != nil {
		return 0
	}
	return int(n)
}

// str reads a fixed-size, null-terminated EUC-KR string.
func (b *binReader) str(n int) string {
	if b.err != nil {
		return ""
	}
	if b.r.Len() < n {
		b.err = ErrTruncatedData
		return ""
	}
	buf := make([]byte, n)
	b.r.Read(buf)
	return encoding.FixedStringToUTF8(buf)
}

func (b *binReader) skip(n int64) {
	if b.err != nil {
		return
	}
	if int64(b.r.Len()) < n {
		b.err = ErrTruncatedData
		return
	}
	b.r.Seek(n, 1)
}
