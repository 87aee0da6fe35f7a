package codec

import (
	"testing"
)

type noopCtx struct{}

func (noopCtx) EstablishCallback(string, any) (string, error) { return "", nil }
func (noopCtx) Elaborate(string, string) (any, error)         { return nil, nil }

func TestStructRoundTrip(t *testing.T) {
	zero, hundred := int64(0), int64(100)
	point := Struct([]Member{
		{Name: "x", Required: true, Codec: IntRange(&zero, &hundred)},
		{Name: "y", Required: false, Codec: IntRange(&zero, &hundred)},
	}, NewRecordBuilder)

	wire := Object(Field("x", Int(3)))
	decoded, err := point.Decode(noopCtx{}, wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	rec := decoded.(*Record)
	if x, _ := rec.Get("x"); x != int64(3) {
		t.Fatalf("x = %v, want 3", x)
	}
	if _, ok := rec.Get("y"); ok {
		t.Fatalf("y should be unset")
	}

	encoded, err := point.Encode(noopCtx{}, decoded)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := encoded.Get("y"); ok {
		t.Fatalf("y should be omitted from the encoded object")
	}
	gotX, _ := encoded.Get("x")
	if i, _ := gotX.Int64(); i != 3 {
		t.Fatalf("x = %v, want 3", i)
	}

	if _, err := point.Encode(noopCtx{}, mustRecord(t, map[string]int64{"x": 101})); err == nil {
		t.Fatalf("expected CodecEncoding error for out-of-range x")
	}
	if _, err := point.Decode(noopCtx{}, Object()); err == nil {
		t.Fatalf("expected CodecDecoding error for missing required field")
	}
}

func mustRecord(t *testing.T, fields map[string]int64) *Record {
	t.Helper()
	r := NewRecord()
	for k, v := range fields {
		_ = r.CarpSet(k, v)
	}
	return r
}

func TestEnumRoundTrip(t *testing.T) {
	suit := Enum([]string{"clubs", "diamonds", "hearts", "spades"})
	v, err := suit.Encode(noopCtx{}, "hearts")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	s, _ := v.Str()
	if s != "hearts" {
		t.Fatalf("encoded = %q, want hearts", s)
	}
	back, err := suit.Decode(noopCtx{}, v)
	if err != nil || back != "hearts" {
		t.Fatalf("Decode = (%v, %v), want (hearts, nil)", back, err)
	}
	if _, err := suit.Decode(noopCtx{}, String("wands")); err == nil {
		t.Fatalf("expected CodecDecoding error for unknown constant")
	}
}

func TestIntRangeBoundaries(t *testing.T) {
	a, b := int64(0), int64(10)
	c := IntRange(&a, &b)
	for _, ok := range []int64{0, 10} {
		if _, err := c.Encode(noopCtx{}, ok); err != nil {
			t.Fatalf("Encode(%d): %v", ok, err)
		}
	}
	for _, bad := range []int64{-1, 11} {
		if _, err := c.Encode(noopCtx{}, bad); err == nil {
			t.Fatalf("Encode(%d): expected error", bad)
		}
		if _, err := c.Decode(noopCtx{}, Int(bad)); err == nil {
			t.Fatalf("Decode(%d): expected error", bad)
		}
	}
}

func TestBitsetBothForms(t *testing.T) {
	c := BitsetSet(8)
	arr, err := c.Decode(noopCtx{}, Array(Int(0), Int(3), Int(7)))
	if err != nil {
		t.Fatalf("Decode(array): %v", err)
	}
	encoded, err := c.Encode(noopCtx{}, arr)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	fromInt, err := c.Decode(noopCtx{}, encoded)
	if err != nil {
		t.Fatalf("Decode(int): %v", err)
	}
	if got, want := fromInt.([]int), arr.([]int); !intSliceEqual(got, want) {
		t.Fatalf("round trip mismatch: got %v, want %v", got, want)
	}
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestUUIDLenientDecode(t *testing.T) {
	c := UUID()
	messy := "  550E8400-e29b-41d4-a716-446655440000 "
	v, err := c.Decode(noopCtx{}, String(messy))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	encoded, err := c.Encode(noopCtx{}, v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _ := encoded.Str()
	if got != "550e8400-e29b-41d4-a716-446655440000" {
		t.Fatalf("got %q", got)
	}
}
