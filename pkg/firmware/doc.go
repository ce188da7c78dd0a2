// Package firmware holds a loaded firmware image and decodes typed values from it.
//
// A Buffer is immutable once created. Every read is bounds-checked; nothing in this
// package writes back to the image or the file it came from.
//
//	buf, err := firmware.Load("stock.bin")
//	raw, err := buf.Read(0x10, xdf.DataType{Bits: 16, Signed: true})
//	set, err := buf.ReadBit(0x20, 3)
package firmware
