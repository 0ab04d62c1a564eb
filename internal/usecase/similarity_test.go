package usecase

import (
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "RTX 4070", "RTX 4070", 1.0},
		{"same canonical form", "rtx  4070 (oem)", "RTX-4070", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "RTX 4070", "", 0.0},
		{"one substitution", "RTX 4070", "RTX 4080", 1 - 1.0/8},
		{"completely different", "ABC", "XYZ", 0.0},
		{"qualifier appended", "RTX 4070", "RTX 4070 TI", 1 - 3.0/11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Properties(t *testing.T) {
	faker := gofakeit.New(7)
	for i := 0; i < 300; i++ {
		a := faker.Company() + " " + faker.Numerify("RTX ####")
		b := faker.Company() + " " + faker.Numerify("RX #### XT")

		ab := Similarity(a, b)
		ba := Similarity(b, a)
		if ab != ba {
			t.Fatalf("Similarity not symmetric for %q, %q: %v vs %v", a, b, ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Fatalf("Similarity(%q, %q) = %v, out of range", a, b, ab)
		}
		if self := Similarity(a, a); self != 1.0 {
			t.Fatalf("Similarity(%q, itself) = %v, want 1", a, self)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"라이젠", "", 3},
		{"kitten", "sitting", 3},
		{"코어", "코아", 1},
	}
	for _, tt := range tests {
		if got := levenshteinDistance([]rune(tt.s1), []rune(tt.s2)); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.want)
		}
	}
}
