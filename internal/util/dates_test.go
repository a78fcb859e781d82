package util

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01T10:20:30Z", time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"2024-03-01T10:20:30", time.Date(2024, 3, 1, 10, 20, 30, 0, time.Local)},
		{"2024-03-01T10:20:30.1234567", time.Date(2024, 3, 1, 10, 20, 30, 123456700, time.Local)},
		{"2024-03-01 10:20:30", time.Date(2024, 3, 1, 10, 20, 30, 0, time.Local)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error for invalid timestamp")
	}
}

func TestTimestamp_JSON(t *testing.T) {
	var v struct {
		A Timestamp `json:"a"`
		B Timestamp `json:"b"`
		C Timestamp `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"2024-05-06T07:08:09","b":null,"c":""}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.Display() != "06/05/2024 07:08:09" {
		t.Fatalf("Display = %q", v.A.Display())
	}
	if !v.B.IsZero() || !v.C.IsZero() {
		t.Fatalf("expected null and empty to be zero")
	}

	out, err := json.Marshal(v.B)
	if err != nil || string(out) != "null" {
		t.Fatalf("marshal zero = %s, %v", out, err)
	}
}

func TestParseDateRange_BlankIsAbsent(t *testing.T) {
	r, err := ParseDateRange("  ", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if r.HasStart || r.HasEnd {
		t.Fatalf("expected no bounds, got %+v", r)
	}
}

func TestParseDateRange_DateOnlyEndIsInclusiveDay(t *testing.T) {
	r, err := ParseDateRange("2026-02-03T10:00:00Z", "2026-02-05")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	wantEnd := time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)
	if !r.HasEnd || !r.End.Equal(wantEnd) {
		t.Fatalf("End = %v, want %v", r.End, wantEnd)
	}
	if !r.HasStart || !r.Start.Equal(time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("Start = %v", r.Start)
	}
}

func TestParseDateRange_SwapsReversedBounds(t *testing.T) {
	r, err := ParseDateRange("2026-02-10T00:00:00Z", "2026-02-01T00:00:00Z")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !r.Start.Before(r.End) {
		t.Fatalf("expected start before end, got %v / %v", r.Start, r.End)
	}
}

func TestParseDateRange_Invalid(t *testing.T) {
	if _, err := ParseDateRange("03/02/2026", ""); err == nil {
		t.Fatalf("expected error")
	}
}
