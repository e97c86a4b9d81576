package tagbin

import (
	"bufio"
	"bytes"
	"errors"
	"testing"
)

func TestMarshalVariantsAgree(t *testing.T) {
	v := sample{Foo: -42, Bar: u8p(7)}

	var buf bytes.Buffer
	n, err := MarshalWriter(&buf, v)
	if err != nil || n != len(sampleBytes) || !bytes.Equal(buf.Bytes(), sampleBytes) {
		t.Fatalf("MarshalWriter = %d, %v: % x", n, err, buf.Bytes())
	}

	fixed := make([]byte, 64)
	got, err := MarshalTo(fixed, v)
	if err != nil || !bytes.Equal(got, sampleBytes) {
		t.Fatalf("MarshalTo = % x, %v", got, err)
	}
	if &got[0] != &fixed[0] {
		t.Fatal("MarshalTo did not write into the caller buffer")
	}

	w := NewBufferWriter(0)
	if n, err := Encode(w, v); err != nil || n != w.Len() {
		t.Fatalf("Encode = %d, %v (len %d)", n, err, w.Len())
	}
}

func TestUnmarshalRejectsTrailingBytes(t *testing.T) {
	in := append(append([]byte{}, sampleBytes...), byte(TagUnit))
	var v sample
	err := Unmarshal(in, &v)
	var ce *CustomError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CustomError, got %v", err)
	}
}

func TestUnmarshalReaderLeavesRest(t *testing.T) {
	in := append(append([]byte{}, sampleBytes...), sampleBytes...)
	// a shared bufio.Reader keeps bytes buffered by the first call
	r := bufio.NewReader(bytes.NewReader(in))
	for i := 0; i < 2; i++ {
		var v sample
		if err := UnmarshalReader(r, &v); err != nil {
			t.Fatalf("value %d: %v", i, err)
		}
		if v.Foo != -42 {
			t.Fatalf("value %d: %+v", i, v)
		}
	}
}

func TestUnmarshalEmptyInput(t *testing.T) {
	var v Value
	if err := Unmarshal(nil, &v); !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("expected ErrEndOfInput, got %v", err)
	}
}

func TestDiagnoseMalformed(t *testing.T) {
	_, err := Diagnose([]byte{0xFF})
	if !IsMalformed(err) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}
