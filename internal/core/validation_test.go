package core

import "testing"

func TestValidateHeader(t *testing.T) {
	expected := []string{"one", "two", "three"}

	tests := []struct {
		name     string
		observed []string
		want     bool
	}{
		{name: "exact match", observed: []string{"one", "two", "three"}, want: true},
		{name: "reordered", observed: []string{"two", "one", "three"}, want: false},
		{name: "missing field", observed: []string{"one", "two"}, want: false},
		{name: "extra field", observed: []string{"one", "two", "three", "four"}, want: false},
		{name: "different case", observed: []string{"One", "two", "three"}, want: false},
		{name: "empty", observed: []string{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateHeader(tt.observed, expected); got != tt.want {
				t.Errorf("ValidateHeader(%q) = %v, want %v", tt.observed, got, tt.want)
			}
		})
	}
}

func TestValidateRowWidth(t *testing.T) {
	expected := []string{"one", "two", "three"}

	if !ValidateRowWidth([]string{"a", "b", "c"}, expected) {
		t.Error("ValidateRowWidth() = false for matching width")
	}
	if ValidateRowWidth([]string{"a", "b"}, expected) {
		t.Error("ValidateRowWidth() = true for short row")
	}
	if ValidateRowWidth([]string{"a", "b", "c", "d"}, expected) {
		t.Error("ValidateRowWidth() = true for long row")
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{"one", "two", "one"})

	if len(idx) != 2 {
		t.Errorf("len(idx) = %d, want 2", len(idx))
	}
	if idx["one"] != 2 {
		t.Errorf("idx[one] = %d, want 2 (last occurrence)", idx["one"])
	}
	if idx["two"] != 1 {
		t.Errorf("idx[two] = %d, want 1", idx["two"])
	}
}
