package firmware

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"os"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// Raw is an undecoded element value: an integer, or a float for float types.
type Raw struct {
	Int     int64
	Float   float64
	IsFloat bool
}

// Value returns the raw value as float64.
func (r Raw) Value() float64 {
	if r.IsFloat {
		return r.Float
	}
	return float64(r.Int)
}

// Buffer is an immutable firmware image.
type Buffer struct {
	path string
	data []byte

	digestOnce sync.Once
	digest     string
}

// Load reads a firmware image from disk.
func Load(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if len(data) == 0 {
		return nil, &Error{Path: path, Err: ErrEmpty}
	}
	return &Buffer{path: path, data: data}, nil
}

// FromBytes creates a buffer from a copy of data. Path is informational.
func FromBytes(path string, data []byte) *Buffer {
	return &Buffer{path: path, data: append([]byte(nil), data...)}
}

// Path returns the file the image was loaded from.
func (b *Buffer) Path() string {
	return b.path
}

// Len returns the image size in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Digest returns the hex BLAKE2b-256 digest of the image.
func (b *Buffer) Digest() string {
	b.digestOnce.Do(func() {
		sum := blake2b.Sum256(b.data)
		b.digest = hex.EncodeToString(sum[:])
	})
	return b.digest
}

// Source describes the image for a resolved catalog.
func (b *Buffer) Source() *xdf.Source {
	return &xdf.Source{Path: b.path, Size: len(b.data), Digest: b.Digest()}
}

// Bytes returns a copy of n bytes at addr.
func (b *Buffer) Bytes(addr uint32, n int) ([]byte, error) {
	s, err := b.slice(addr, n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), s...), nil
}

func (b *Buffer) slice(addr uint32, n int) ([]byte, error) {
	end := uint64(addr) + uint64(n)
	if n < 0 || end > uint64(len(b.data)) {
		return nil, &OutOfBoundsError{Address: addr, Width: n, Length: len(b.data)}
	}
	return b.data[addr:end], nil
}

// Read decodes one value of type dt at addr.
func (b *Buffer) Read(addr uint32, dt xdf.DataType) (Raw, error) {
	switch dt.Bits {
	case 8, 16, 32:
	default:
		return Raw{}, &UnsupportedWidthError{Bits: dt.Bits, Float: dt.Float}
	}
	if dt.Float && dt.Bits != 32 {
		return Raw{}, &UnsupportedWidthError{Bits: dt.Bits, Float: true}
	}

	s, err := b.slice(addr, dt.Width())
	if err != nil {
		return Raw{}, err
	}

	var order binary.ByteOrder = binary.BigEndian
	if dt.LittleEndian {
		order = binary.LittleEndian
	}

	switch dt.Bits {
	case 8:
		if dt.Signed {
			return Raw{Int: int64(int8(s[0]))}, nil
		}
		return Raw{Int: int64(s[0])}, nil
	case 16:
		v := order.Uint16(s)
		if dt.Signed {
			return Raw{Int: int64(int16(v))}, nil
		}
		return Raw{Int: int64(v)}, nil
	default:
		v := order.Uint32(s)
		if dt.Float {
			return Raw{Float: float64(math.Float32frombits(v)), IsFloat: true}, nil
		}
		if dt.Signed {
			return Raw{Int: int64(int32(v))}, nil
		}
		return Raw{Int: int64(v)}, nil
	}
}

// ReadBit reports whether bit (0 = least significant) of the byte at addr is set.
func (b *Buffer) ReadBit(addr uint32, bit int) (bool, error) {
	if bit < 0 || bit > 7 {
		return false, &InvalidBitError{Bit: bit}
	}
	s, err := b.slice(addr, 1)
	if err != nil {
		return false, err
	}
	return s[0]&(1<<bit) != 0, nil
}
