package cuid2

import (
	"regexp"
	"sort"
	"testing"
)

func TestEncodeTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int64
		expected string
	}{
		{"zero", 0, "000000"},
		{"one second", 1, "000001"},
		{"62 seconds", 62, "000010"},
		{"one day", 86400, "000MTY"},
		{"2024 epoch", 1704067200, "1rK5iq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeTimestamp(tt.seconds); got != tt.expected {
				t.Errorf("encodeTimestamp(%d) = %s, want %s", tt.seconds, got, tt.expected)
			}
		})
	}
}

func TestEncodeTimestampSortable(t *testing.T) {
	instants := []int64{0, 1, 61, 62, 3600, 86400, 1704067200, 1704067201}

	encoded := make([]string, len(instants))
	for i, s := range instants {
		encoded[i] = encodeTimestamp(s)
	}

	if !sort.StringsAreSorted(encoded) {
		t.Errorf("encoded timestamps are not lexicographically sorted: %v", encoded)
	}
}

func TestGenerateShape(t *testing.T) {
	pattern := regexp.MustCompile(`^req_[0-9A-Za-z]{24}$`)

	for i := 0; i < 100; i++ {
		id := Generate("req")
		if !pattern.MatchString(id) {
			t.Fatalf("Generate(\"req\") = %q, want match for %s", id, pattern)
		}
	}
}

func TestGenerateUnique(t *testing.T) {
	const n = 10000

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := Generate("req")
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestRandomBase62Alphabet(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-Za-z]+$`)

	for _, length := range []int{1, 18, 64} {
		s := randomBase62(length)
		if len(s) != length {
			t.Errorf("randomBase62(%d) returned %d characters", length, len(s))
		}
		if !pattern.MatchString(s) {
			t.Errorf("randomBase62(%d) = %q contains characters outside base62", length, s)
		}
	}
}
