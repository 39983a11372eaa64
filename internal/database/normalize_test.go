package database

import "testing"

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jiří", "Jiri"},
		{"Novák", "Novak"},
		{"Lakshmi", "Lakshmi"},
		{"Çağla", "Cagla"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := RemoveDiacritics(tc.input); got != tc.expected {
				t.Errorf("RemoveDiacritics(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeEmployeeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"display name", "Jan Novák", "jan novak"},
		{"slug", "jan-novak", "jan novak"},
		{"mixed case", "PRIYA Raman", "priya raman"},
		{"extra whitespace", "  Priya   Raman ", "priya raman"},
		{"already normalized", "priya raman", "priya raman"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeEmployeeName(tc.input); got != tc.expected {
				t.Errorf("NormalizeEmployeeName(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeEmployeeName_SlugMatchesDisplay(t *testing.T) {
	if NormalizeEmployeeName("jiri-novak") != NormalizeEmployeeName("Jiří Novák") {
		t.Error("slug and display forms must normalize identically")
	}
}
