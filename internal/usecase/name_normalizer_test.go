package usecase

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/pcsite/backend/internal/domain"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "upper-cases and collapses whitespace",
			raw:  "  asus   rtx 4070   dual ",
			want: "ASUS RTX 4070 DUAL",
		},
		{
			name: "strips parentheticals",
			raw:  "MSI GeForce RTX 4060 Ventus 2X (Black) [OC]",
			want: "MSI GEFORCE RTX 4060 VENTUS 2X",
		},
		{
			name: "strips nested parentheticals",
			raw:  "RTX 4070 ((limited))",
			want: "RTX 4070",
		},
		{
			name: "hyphens and underscores become spaces",
			raw:  "Intel Core i7-13700K_box",
			want: "CORE I7 13700K",
		},
		{
			name: "removes memory sizes",
			raw:  "GIGABYTE RTX 4060 Ti EAGLE 8GB",
			want: "GIGABYTE RTX 4060 TI EAGLE",
		},
		{
			name: "removes memory sizes with a space",
			raw:  "ZOTAC RTX 3060 12 GB",
			want: "ZOTAC RTX 3060",
		},
		{
			name: "removes boilerplate tokens",
			raw:  "AMD Ryzen 5 7600 OEM tray",
			want: "RYZEN 5 7600",
		},
		{
			name: "strips leading vendor words",
			raw:  "NVIDIA GeForce RTX 4070",
			want: "RTX 4070",
		},
		{
			name: "keeps vendor words after a board partner",
			raw:  "ZOTAC GeForce GT 1030",
			want: "ZOTAC GEFORCE GT 1030",
		},
		{
			name: "drops trademark glyphs before folding",
			raw:  "Intel® Core™ i5-14400F",
			want: "CORE I5 14400F",
		},
		{
			name: "folds full-width characters",
			raw:  "ＲＴＸ　４０７０",
			want: "RTX 4070",
		},
		{
			name: "transliterates local series names",
			raw:  "AMD 라이젠7-5세대 7800X3D (라파엘) (정품)",
			want: "RYZEN 7 7800X3D",
		},
		{
			name: "separates transliterated core prefix",
			raw:  "인텔 코어i5-14세대 14400F (랩터레이크 리프레시) (정품)",
			want: "CORE I5 14400F",
		},
		{
			name: "removes local boilerplate",
			raw:  "이엠텍 지포스 RTX 4070 MIRACLE 벌크",
			want: "이엠텍 GEFORCE RTX 4070 MIRACLE",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
		{
			name: "only noise",
			raw:  "(OEM) - _ /",
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.raw)
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	fixed := []string{
		"16 (X) GB",
		"16 OEM GB",
		"NVIDIA (AMD) INTEL RTX",
		"((a)b)",
		"RTX™ 4070 Super",
		"삼성전자 DDR5-5600 (16GB)",
		"Ｒｙｚｅｎ ５ ７６００Ｘ",
	}
	for _, s := range fixed {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", s, once, twice)
		}
	}

	faker := gofakeit.New(42)
	for i := 0; i < 500; i++ {
		s := faker.Sentence(6) + " " + faker.Numerify("(###) ##GB") + " " + faker.LetterN(4)
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q -> %q", s, once, twice)
		}
	}
}

func TestNormalizeFor(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		category domain.Category
		want     string
	}{
		{name: "storage keeps capacity", raw: "Samsung 990 PRO 2TB", category: domain.CategoryStorage, want: "SAMSUNG 990 PRO 2TB"},
		{name: "storage glues spaced capacity", raw: "Samsung 990 PRO 2 TB (정품)", category: domain.CategoryStorage, want: "SAMSUNG 990 PRO 2TB"},
		{name: "memory lifts capacity out of parentheses", raw: "삼성전자 DDR5-5600 (16GB)", category: domain.CategoryMemory, want: "삼성전자 DDR5 5600 16GB"},
		{name: "memory keeps bare capacity", raw: "삼성전자 DDR5-5600 16 GB", category: domain.CategoryMemory, want: "삼성전자 DDR5 5600 16GB"},
		{name: "graphics strips capacity", raw: "ZOTAC RTX 3060 12 GB", category: domain.CategoryGraphics, want: "ZOTAC RTX 3060"},
		{name: "processor matches Normalize", raw: "AMD Ryzen 5 7600X (정품)", category: domain.CategoryProcessor, want: Normalize("AMD Ryzen 5 7600X (정품)")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFor(tt.raw, tt.category)
			if got != tt.want {
				t.Errorf("NormalizeFor(%q, %s) = %q, want %q", tt.raw, tt.category, got, tt.want)
			}
			if twice := NormalizeFor(got, tt.category); twice != got {
				t.Errorf("NormalizeFor not idempotent: %q -> %q", got, twice)
			}
		})
	}

	if NormalizeFor("Samsung 990 PRO 1TB", domain.CategoryStorage) == NormalizeFor("Samsung 990 PRO 2TB", domain.CategoryStorage) {
		t.Error("1TB and 2TB storage names should stay distinct")
	}
	if NormalizeFor("DDR5-5600 (16GB)", domain.CategoryMemory) == NormalizeFor("DDR5-5600 (32GB)", domain.CategoryMemory) {
		t.Error("16GB and 32GB memory names should stay distinct")
	}
}

func TestNormalize_InvalidUTF8(t *testing.T) {
	got := Normalize("RTX \xff 4070")
	if got != "RTX 4070" {
		t.Errorf("Normalize(invalid) = %q, want %q", got, "RTX 4070")
	}
}

func TestKeywordTokens(t *testing.T) {
	tokens := keywordTokens("Corsair RM850x 850W Gold", 3)
	want := []string{"CORSAIR", "RM850X", "850W", "GOLD"}
	if strings.Join(tokens, ",") != strings.Join(want, ",") {
		t.Errorf("keywordTokens = %v, want %v", tokens, want)
	}

	if got := keywordTokens("be quiet", 3); len(got) != 1 || got[0] != "QUIET" {
		t.Errorf("keywordTokens = %v, want [QUIET]", got)
	}
}

func TestContainsPhrase(t *testing.T) {
	tests := []struct {
		haystack string
		needle   string
		want     bool
	}{
		{"ASUS RTX 4070 DUAL", "RTX 4070", true},
		{"ASUS RTX 40700", "RTX 4070", false},
		{"RTX 4070", "RTX 4070", true},
		{"RTX 4070", "", false},
	}
	for _, tt := range tests {
		if got := containsPhrase(tt.haystack, tt.needle); got != tt.want {
			t.Errorf("containsPhrase(%q, %q) = %v, want %v", tt.haystack, tt.needle, got, tt.want)
		}
	}
}
