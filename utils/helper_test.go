package utils

import (
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{"owner@shop.local", "a.b+tag@example.co.uk", "x_1@y.io"}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Fatalf("expected %q to be valid", email)
		}
	}
	invalid := []string{"", "no-at-sign", "a@b", "a@b.", "@example.com", "a b@example.com"}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Fatalf("expected %q to be invalid", email)
		}
	}
}

func TestNilIfEmpty(t *testing.T) {
	if got := NilIfEmpty(""); got != nil {
		t.Fatalf("expected nil for empty string, got %v", got)
	}
	if got := NilIfEmpty(0); got != nil {
		t.Fatalf("expected nil for zero int, got %v", got)
	}
	if got := NilIfEmpty("x"); got == nil || *got != "x" {
		t.Fatalf("expected pointer to x, got %v", got)
	}
	if got := NilIfEmpty(7); got == nil || *got != 7 {
		t.Fatalf("expected pointer to 7, got %v", got)
	}
}

func TestDereferencePtr(t *testing.T) {
	if got := DereferencePtr[int](nil); got != 0 {
		t.Fatalf("expected zero value, got %d", got)
	}
	if got := DereferencePtr(nil, 5); got != 5 {
		t.Fatalf("expected default 5, got %d", got)
	}
	v := 9
	if got := DereferencePtr(&v, 5); got != 9 {
		t.Fatalf("expected 9, got %d", got)
	}
}

func TestUppercaseFirst(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"toggleActive": "ToggleActive",
		"a":            "A",
		"Already":      "Already",
	}
	for in, expected := range cases {
		if got := UppercaseFirst(in); got != expected {
			t.Fatalf("UppercaseFirst(%q) expected %q, got %q", in, expected, got)
		}
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	expected := []int{3, 1, 2}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
	if got := UniqueSlice[string](nil); got != nil {
		t.Fatalf("expected nil for nil input, got %v", got)
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("  1234.50 ")
	if err != nil {
		t.Fatalf("ParseDecimal: %v", err)
	}
	if d.String() != "1234.5" {
		t.Fatalf("expected 1234.5, got %s", d.String())
	}
	if _, err := ParseDecimal(""); err == nil {
		t.Fatalf("expected error for empty string")
	}
	if _, err := ParseDecimal("abc"); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}
