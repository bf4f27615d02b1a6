package table

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestValueRendering(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"missing", Missing(), ""},
		{"string", String("CR1"), "CR1"},
		{"int", Int(42), "42"},
		{"float", Float(40.15), "40.15"},
		{"float integral", Float(12), "12"},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestValueIntAcceptsFloatShapedIntegers(t *testing.T) {
	i, err := String("172413.0").Int()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if i != 172413 {
		t.Fatalf("got %d want 172413", i)
	}
	if _, err := String("1.5").Int(); err == nil {
		t.Fatal("expected error for non-integral value")
	}
	if _, err := Missing().Int(); err == nil {
		t.Fatal("expected error for missing value")
	}
}

func TestAppendRowFillsAbsentColumnsWithMissing(t *testing.T) {
	tbl := New("cruise", "station", "depth")
	if err := tbl.AppendRow(map[string]Value{"cruise": String("CR1"), "station": String("ST1")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if !tbl.Cell(0, "depth").IsMissing() {
		t.Fatal("absent column should be missing")
	}
	if got := tbl.Cell(0, "cruise").String(); got != "CR1" {
		t.Fatalf("got %q", got)
	}
	if err := tbl.AppendRow(map[string]Value{"bogus": String("x")}); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestWithColumnReturnsNewTable(t *testing.T) {
	tbl := New("a")
	_ = tbl.AppendRow(map[string]Value{"a": String("1")})
	_ = tbl.AppendRow(map[string]Value{"a": String("2")})

	out, err := tbl.WithColumn("b", []Value{String("x"), Missing()})
	if err != nil {
		t.Fatalf("with column: %v", err)
	}
	if tbl.HasColumn("b") {
		t.Fatal("original table mutated")
	}
	if got := out.Cell(0, "b").String(); got != "x" {
		t.Fatalf("got %q", got)
	}
	if !out.Cell(1, "b").IsMissing() {
		t.Fatal("expected missing cell")
	}
	if _, err := tbl.WithColumn("c", []Value{String("only-one")}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestConcatPreservesOrder(t *testing.T) {
	a := New("id")
	_ = a.AppendRow(map[string]Value{"id": String("cruise-1")})
	b := New("id")
	_ = b.AppendRow(map[string]Value{"id": String("tow-1")})
	_ = b.AppendRow(map[string]Value{"id": String("tow-2")})

	out, err := Concat(a, b)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	want := []string{"cruise-1", "tow-1", "tow-2"}
	for i, w := range want {
		if got := out.Cell(i, "id").String(); got != w {
			t.Errorf("row %d: got %q want %q", i, got, w)
		}
	}

	c := New("other")
	if _, err := Concat(a, c); err == nil {
		t.Fatal("expected column mismatch error")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tbl := New("cruise", "total_weight")
	_ = tbl.AppendRow(map[string]Value{"cruise": String("CR1"), "total_weight": Float(12.5)})
	_ = tbl.AppendRow(map[string]Value{"cruise": String("CR2")})

	data, err := json.Marshal(tbl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Table
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	again, err := json.Marshal(&back)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Fatalf("round trip not byte identical:\n%s\n%s", data, again)
	}
	if !back.Cell(1, "total_weight").IsMissing() {
		t.Fatal("missing cell lost in round trip")
	}
}
