package numfmt

import "testing"

func TestFormatterInt(t *testing.T) {
	cases := []struct {
		name     string
		grouping bool
		locale   string
		n        int
		want     string
	}{
		{"plain", false, "", 1234567, "1234567"},
		{"plain ignores locale", false, "de", 1234567, "1234567"},
		{"english grouping", true, "en", 1234567, "1,234,567"},
		{"german grouping", true, "de", 1234567, "1.234.567"},
		{"negative", true, "en", -9876, "-9,876"},
		{"small", true, "en", 42, "42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := New(tc.grouping, tc.locale)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := f.Int(tc.n); got != tc.want {
				t.Errorf("Int(%d) = %q, want %q", tc.n, got, tc.want)
			}
		})
	}
}

func TestFormatterBadLocale(t *testing.T) {
	if _, err := New(true, "not a locale!"); err == nil {
		t.Fatalf("expected error for malformed locale")
	}
}

func TestZeroFormatter(t *testing.T) {
	var f Formatter
	if got := f.Int(-5); got != "-5" {
		t.Errorf("Int(-5) = %q, want %q", got, "-5")
	}
}
