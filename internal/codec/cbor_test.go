package codec

import (
	"bytes"
	"testing"
	"time"
)

type sample struct {
	Name    string    `cbor:"name"`
	Created time.Time `cbor:"created"`
	Sizes   []int64   `cbor:"sizes"`
	Skipped string    `cbor:"-"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	v := sample{Name: "a", Created: time.Date(2026, 3, 4, 5, 6, 7, 890, time.UTC), Sizes: []int64{1, 2, 3}}

	first, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	second, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Marshal() produced different bytes for the same value")
	}
}

func TestDecoderStopsAtItemBoundary(t *testing.T) {
	in := sample{Name: "b", Created: time.Date(2026, 1, 1, 0, 0, 0, 123456789, time.UTC), Sizes: []int64{42}, Skipped: "gone"}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	itemLen := len(data)
	buf := bytes.NewBuffer(data)
	buf.WriteString("trailing garbage")

	var out sample
	dec := NewDecoder(buf)
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if dec.NumBytesRead() != itemLen {
		t.Errorf("NumBytesRead() = %d, want %d", dec.NumBytesRead(), itemLen)
	}
	if out.Name != "b" || !out.Created.Equal(in.Created) || len(out.Sizes) != 1 || out.Sizes[0] != 42 {
		t.Errorf("decoded %+v, want %+v", out, in)
	}
	if out.Skipped != "" {
		t.Errorf("field tagged cbor:\"-\" was persisted: %q", out.Skipped)
	}
}

func TestDecoderRejectsGarbage(t *testing.T) {
	var out sample
	if err := NewDecoder(bytes.NewReader([]byte{0xff, 0x00, 0x13})).Decode(&out); err == nil {
		t.Error("Decode() accepted malformed input")
	}
}
