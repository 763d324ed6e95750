package models

import (
	"testing"
	"time"
)

func TestFormatDocumentNumber(t *testing.T) {
	// 5 Feb 2026 exercises single-digit month and day padding.
	now := time.Date(2026, 2, 5, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		pattern  string
		counter  int64
		expected string
	}{
		{"JOB-{year}-{counter:05d}", 42, "JOB-2026-00042"},
		{"EST-{year}{month:02d}-{counter:04d}", 7, "EST-202602-0007"},
		{"INV/{year}/{month:02d}/{day:02d}/{counter}", 123, "INV/2026/02/05/123"},
		{"{counter:03d}", 999, "999"},
		{"{counter:03d}", 1000, "1000"},
		{"PO-{counter}", 1, "PO-1"},
		{"{month}-{counter}", 15, "2-15"},
	}
	for _, tc := range cases {
		got := FormatDocumentNumber(tc.pattern, tc.counter, now)
		if got != tc.expected {
			t.Fatalf("FormatDocumentNumber(%q, %d) expected %q, got %q", tc.pattern, tc.counter, tc.expected, got)
		}
	}
}

func TestFormatDocumentNumber_FallsBackWithoutCounterPlaceholder(t *testing.T) {
	now := time.Date(2026, 2, 5, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		pattern  string
		counter  int64
		expected string
	}{
		{"", 3, "0003"},
		{"JOB-{year}", 3, "0003"},
		{"plain text", 12345, "12345"},
	}
	for _, tc := range cases {
		got := FormatDocumentNumber(tc.pattern, tc.counter, now)
		if got != tc.expected {
			t.Fatalf("FormatDocumentNumber(%q, %d) expected %q, got %q", tc.pattern, tc.counter, tc.expected, got)
		}
	}
}

func TestFormatDocumentNumber_MalformedPatternFallsBack(t *testing.T) {
	now := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)

	// Unknown placeholders leave braces behind, which disqualifies the
	// whole pattern rather than emitting a half-rendered number.
	cases := []string{
		"JOB-{counter}-{bogus}",
		"JOB-{counter:05d}-{",
	}
	for _, pattern := range cases {
		got := FormatDocumentNumber(pattern, 9, now)
		if got != "0009" {
			t.Fatalf("FormatDocumentNumber(%q) expected fallback %q, got %q", pattern, "0009", got)
		}
	}
}
