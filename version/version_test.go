package version

import (
	"errors"
	"slices"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"1.0.0", false},
		{"1", false},
		{"0.0.1", false},
		{"1.0.a", false},
		{"1.2.3.rc1", false},
		{"10.20.30", false},
		{"", true},
		{"1..0", true},
		{".1", true},
		{"1.", true},
		{"1.0-beta", true},
		{"1.0 ", true},
		{"1.0.0+build", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				var malformed *MalformedVersionError
				if !errors.As(err, &malformed) {
					t.Errorf("Parse(%q) error type = %T, want *MalformedVersionError", tt.input, err)
				}
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0", "1.0.0", 0},
		{"1", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.0.1", "1.0.0", 1},
		{"2.2.6", "3.0.8", -1},
		{"1.9", "1.10", -1},
		{"10.0", "9.0", 1},
		{"1.0.a", "1.0.0", -1},
		{"1.0.a", "1.0.b", -1},
		{"1.0.0.rc1", "1.0.0", -1},
		{"1.0.0", "1.0.0.1", -1},
		{"0.9", "1.0.a", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// Compare must be a total order: antisymmetric and transitive over any set
// of parseable versions.
func TestCompareTotalOrder(t *testing.T) {
	versions := []string{
		"0.1", "1.0.a", "1.0", "1.0.0.1", "1.0.1", "1.9", "1.10",
		"2.0.rc1", "2.0", "2.1.3", "3.0.8", "10.0",
	}

	for _, a := range versions {
		if Compare(a, a) != 0 {
			t.Errorf("Compare(%q, %q) != 0", a, a)
		}
		for _, b := range versions {
			if Compare(a, b) != -Compare(b, a) {
				t.Errorf("Compare(%q, %q) not antisymmetric", a, b)
			}
			for _, c := range versions {
				if Compare(a, b) <= 0 && Compare(b, c) <= 0 && Compare(a, c) > 0 {
					t.Errorf("Compare not transitive over %q, %q, %q", a, b, c)
				}
			}
		}
	}

	sorted := slices.Clone(versions)
	slices.SortFunc(sorted, Compare)
	if !slices.Equal(sorted, versions) {
		t.Errorf("sort order = %v, want %v", sorted, versions)
	}
}

func TestPrerelease(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1.0.0", false},
		{"1.0.a", true},
		{"2.0.rc1", true},
		{"10.20.30", false},
	}

	for _, tt := range tests {
		if got := MustParse(tt.input).Prerelease(); got != tt.want {
			t.Errorf("Prerelease(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
