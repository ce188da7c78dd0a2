package firmware

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

func TestRead(t *testing.T) {
	data := []byte{0x2A, 0xFF, 0x12, 0x34, 0xDE, 0xAD, 0xBE, 0xEF, 0x3F, 0x80, 0x00, 0x00}
	buf := FromBytes("test.bin", data)

	tests := []struct {
		name string
		addr uint32
		dt   xdf.DataType
		want float64
	}{
		{"u8", 0, xdf.DataType{Bits: 8}, 42},
		{"u8 high", 1, xdf.DataType{Bits: 8}, 255},
		{"s8", 1, xdf.DataType{Bits: 8, Signed: true}, -1},
		{"u16 big-endian", 2, xdf.DataType{Bits: 16}, 0x1234},
		{"u16 little-endian", 2, xdf.DataType{Bits: 16, LittleEndian: true}, 0x3412},
		{"s16", 4, xdf.DataType{Bits: 16, Signed: true}, -8531},
		{"u32", 4, xdf.DataType{Bits: 32}, 0xDEADBEEF},
		{"s32", 4, xdf.DataType{Bits: 32, Signed: true}, -559038737},
		{"f32", 8, xdf.DataType{Bits: 32, Float: true}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := buf.Read(tt.addr, tt.dt)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if raw.Value() != tt.want {
				t.Errorf("Read() = %v, want %v", raw.Value(), tt.want)
			}
			if raw.IsFloat != tt.dt.Float {
				t.Errorf("IsFloat = %v, want %v", raw.IsFloat, tt.dt.Float)
			}
		})
	}
}

func TestReadErrors(t *testing.T) {
	buf := FromBytes("test.bin", make([]byte, 4))

	t.Run("OutOfBounds", func(t *testing.T) {
		_, err := buf.Read(3, xdf.DataType{Bits: 16})
		var oob *OutOfBoundsError
		if !errors.As(err, &oob) {
			t.Fatalf("error = %v, want *OutOfBoundsError", err)
		}
		if oob.Address != 3 || oob.Width != 2 || oob.Length != 4 {
			t.Errorf("OutOfBoundsError = %+v", oob)
		}
	})

	t.Run("AddressOverflow", func(t *testing.T) {
		_, err := buf.Read(math.MaxUint32, xdf.DataType{Bits: 32})
		var oob *OutOfBoundsError
		if !errors.As(err, &oob) {
			t.Fatalf("error = %v, want *OutOfBoundsError", err)
		}
	})

	t.Run("LastByteInBounds", func(t *testing.T) {
		if _, err := buf.Read(3, xdf.Byte); err != nil {
			t.Errorf("Read(3) error = %v", err)
		}
	})

	t.Run("UnsupportedWidth", func(t *testing.T) {
		_, err := buf.Read(0, xdf.DataType{Bits: 24})
		var uw *UnsupportedWidthError
		if !errors.As(err, &uw) || uw.Bits != 24 {
			t.Fatalf("error = %v, want *UnsupportedWidthError{24}", err)
		}
	})

	t.Run("FloatWidth", func(t *testing.T) {
		_, err := buf.Read(0, xdf.DataType{Bits: 16, Float: true})
		var uw *UnsupportedWidthError
		if !errors.As(err, &uw) || !uw.Float {
			t.Fatalf("error = %v, want float *UnsupportedWidthError", err)
		}
	})
}

func TestReadBit(t *testing.T) {
	data := make([]byte, 0x21)
	data[0x20] = 0x08
	buf := FromBytes("flags.bin", data)

	set, err := buf.ReadBit(0x20, 3)
	if err != nil {
		t.Fatalf("ReadBit() error = %v", err)
	}
	if !set {
		t.Error("bit 3 of 0x08 should be set")
	}

	for bit := 0; bit < 8; bit++ {
		if bit == 3 {
			continue
		}
		if set, _ := buf.ReadBit(0x20, bit); set {
			t.Errorf("bit %d of 0x08 should be clear", bit)
		}
	}

	if set, _ := buf.ReadBit(0x1F, 3); set {
		t.Error("bit 3 of 0x00 should be clear")
	}

	for _, bit := range []int{-1, 8, 255} {
		_, err := buf.ReadBit(0x20, bit)
		var ib *InvalidBitError
		if !errors.As(err, &ib) || ib.Bit != bit {
			t.Errorf("ReadBit(bit=%d) error = %v, want *InvalidBitError", bit, err)
		}
	}

	_, err = buf.ReadBit(0x21, 0)
	var oob *OutOfBoundsError
	if !errors.As(err, &oob) {
		t.Errorf("ReadBit past end error = %v, want *OutOfBoundsError", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing", func(t *testing.T) {
		path := filepath.Join(dir, "missing.bin")
		_, err := Load(path)
		var fe *Error
		if !errors.As(err, &fe) {
			t.Fatalf("error = %v, want *Error", err)
		}
		if fe.Path != path {
			t.Errorf("Path = %q, want %q", fe.Path, path)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error should wrap os.ErrNotExist: %v", err)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.bin")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if !errors.Is(err, ErrEmpty) {
			t.Fatalf("error = %v, want ErrEmpty", err)
		}
	})

	t.Run("Valid", func(t *testing.T) {
		path := filepath.Join(dir, "ok.bin")
		if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
			t.Fatal(err)
		}
		buf, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if buf.Len() != 3 || buf.Path() != path {
			t.Errorf("Len() = %d, Path() = %q", buf.Len(), buf.Path())
		}
	})
}

func TestFromBytesCopies(t *testing.T) {
	data := []byte{1, 2}
	buf := FromBytes("x.bin", data)
	data[0] = 9

	raw, _ := buf.Read(0, xdf.Byte)
	if raw.Int != 1 {
		t.Errorf("buffer changed with caller slice: got %d", raw.Int)
	}

	out, _ := buf.Bytes(0, 2)
	out[0] = 7
	raw, _ = buf.Read(0, xdf.Byte)
	if raw.Int != 1 {
		t.Errorf("buffer changed through Bytes(): got %d", raw.Int)
	}
}

func TestDigest(t *testing.T) {
	a := FromBytes("a.bin", []byte("image"))
	b := FromBytes("b.bin", []byte("image"))
	c := FromBytes("c.bin", []byte("other"))

	if len(a.Digest()) != 64 {
		t.Errorf("Digest() length = %d, want 64 hex chars", len(a.Digest()))
	}
	if a.Digest() != b.Digest() {
		t.Error("same content should give the same digest")
	}
	if a.Digest() == c.Digest() {
		t.Error("different content should give different digests")
	}

	src := a.Source()
	if src.Path != "a.bin" || src.Size != 5 || src.Digest != a.Digest() {
		t.Errorf("Source() = %+v", src)
	}
}
