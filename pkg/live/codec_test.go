package live

import (
	"bytes"
	"io"
	"math"
	"testing"
)

func TestEncoderDecoderRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.WriteByte(0x42)
	e.WriteUvarint(0)
	e.WriteUvarint(127)
	e.WriteUvarint(1_000_000)
	e.WriteString("hello")
	e.WriteString("")
	e.WriteLenBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	e.WriteBool(true)
	e.WriteBool(false)
	e.WriteUint16(0xCAFE)
	e.WriteFloat64(3.14159)

	d := NewDecoder(e.Bytes())

	if b, err := d.ReadByte(); err != nil || b != 0x42 {
		t.Errorf("ReadByte() = %#x, %v, want 0x42", b, err)
	}
	for _, want := range []uint64{0, 127, 1_000_000} {
		got, err := d.ReadUvarint()
		if err != nil {
			t.Fatalf("ReadUvarint() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadUvarint() = %d, want %d", got, want)
		}
	}
	if s, err := d.ReadString(); err != nil || s != "hello" {
		t.Errorf("ReadString() = %q, %v, want %q", s, err, "hello")
	}
	if s, err := d.ReadString(); err != nil || s != "" {
		t.Errorf("ReadString() = %q, %v, want empty", s, err)
	}
	if b, err := d.ReadLenBytes(); err != nil || !bytes.Equal(b, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("ReadLenBytes() = %x, %v", b, err)
	}
	if v, err := d.ReadBool(); err != nil || v != true {
		t.Errorf("ReadBool() = %v, %v, want true", v, err)
	}
	if v, err := d.ReadBool(); err != nil || v != false {
		t.Errorf("ReadBool() = %v, %v, want false", v, err)
	}
	if v, err := d.ReadUint16(); err != nil || v != 0xCAFE {
		t.Errorf("ReadUint16() = %#x, %v, want 0xCAFE", v, err)
	}
	if f, err := d.ReadFloat64(); err != nil || f != 3.14159 {
		t.Errorf("ReadFloat64() = %v, %v, want 3.14159", f, err)
	}
	if !d.EOF() {
		t.Errorf("decoder has %d bytes left, want 0", d.Remaining())
	}
}

func TestEncoderReset(t *testing.T) {
	e := NewEncoder()
	e.WriteString("first")
	if e.Len() == 0 {
		t.Fatal("Len() = 0 after write")
	}

	e.Reset()
	if e.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", e.Len())
	}

	e.WriteByte(0x01)
	if got := e.Bytes(); len(got) != 1 || got[0] != 0x01 {
		t.Errorf("Bytes() = %x, want 01", got)
	}
}

func TestDecoderTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(*Decoder) error
	}{
		{
			name: "byte_from_empty",
			data: nil,
			read: func(d *Decoder) error { _, err := d.ReadByte(); return err },
		},
		{
			name: "uvarint_cut_mid_sequence",
			data: []byte{0x80},
			read: func(d *Decoder) error { _, err := d.ReadUvarint(); return err },
		},
		{
			name: "string_shorter_than_length",
			data: []byte{0x05, 'a', 'b'},
			read: func(d *Decoder) error { _, err := d.ReadString(); return err },
		},
		{
			name: "uint16_one_byte",
			data: []byte{0xCA},
			read: func(d *Decoder) error { _, err := d.ReadUint16(); return err },
		},
		{
			name: "float64_short",
			data: []byte{1, 2, 3, 4},
			read: func(d *Decoder) error { _, err := d.ReadFloat64(); return err },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.read(NewDecoder(tc.data)); err != io.ErrUnexpectedEOF {
				t.Errorf("error = %v, want io.ErrUnexpectedEOF", err)
			}
		})
	}
}

func TestDecoderAllocationCap(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(MaxAllocation + 1)
	e.WriteBytes(make([]byte, MaxAllocation+1))

	d := NewDecoder(e.Bytes())
	if _, err := d.ReadString(); err != ErrAllocationTooLarge {
		t.Errorf("ReadString() error = %v, want ErrAllocationTooLarge", err)
	}
}

func TestDecoderHostileLengthPrefix(t *testing.T) {
	// A length prefix claiming far more than the buffer holds is
	// rejected on the bounds check, before any allocation.
	e := NewEncoder()
	e.WriteUvarint(MaxAllocation + 1)

	d := NewDecoder(e.Bytes())
	if _, err := d.ReadString(); err != io.ErrUnexpectedEOF {
		t.Errorf("ReadString() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestDecoderLenBytesCopies(t *testing.T) {
	e := NewEncoder()
	e.WriteLenBytes([]byte{1, 2, 3})
	data := e.Bytes()

	d := NewDecoder(data)
	got, err := d.ReadLenBytes()
	if err != nil {
		t.Fatalf("ReadLenBytes() error = %v", err)
	}

	data[1] = 0xFF
	if got[0] != 1 {
		t.Error("ReadLenBytes result aliases the input buffer")
	}
}

func TestReadFloat64NaN(t *testing.T) {
	e := NewEncoder()
	e.WriteFloat64(math.NaN())

	d := NewDecoder(e.Bytes())
	f, err := d.ReadFloat64()
	if err != nil {
		t.Fatalf("ReadFloat64() error = %v", err)
	}
	if !math.IsNaN(f) {
		t.Errorf("ReadFloat64() = %v, want NaN", f)
	}
}

func BenchmarkEncodeString(b *testing.B) {
	e := NewEncoder()
	for i := 0; i < b.N; i++ {
		e.Reset()
		e.WriteString("a reasonably sized property value")
	}
}
