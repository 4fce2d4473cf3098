package encoding

import "testing"

func TestFixedStringRoundTrip(t *testing.T) {
	tests := []string{"", "texture.bmp", "유저인터페이스\\검.bmp"}

	for _, s := range tests {
		field := UTF8ToFixedString(s, 40)
		if len(field) != 40 {
			t.Fatalf("field length = %d, want 40", len(field))
		}
		if got := FixedStringToUTF8(field); got != s {
			t.Errorf("round trip of %q = %q", s, got)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"data\\texture\\wall.bmp", "data/texture/wall.bmp"},
		{"./wall.bmp", "wall.bmp"},
		{"Wall.BMP", "Wall.BMP"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
