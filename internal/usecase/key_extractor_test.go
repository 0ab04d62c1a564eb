package usecase

import (
	"strings"
	"testing"

	"github.com/pcsite/backend/internal/domain"
)

func TestExtractKey_Graphics(t *testing.T) {
	testCases := []struct {
		name   string
		raw    string
		want   string
		series string
	}{
		{name: "GTX before GT", raw: "GTX 1650", want: "GTX 1650", series: "GTX"},
		{name: "bare GT", raw: "GT 1030", want: "GT 1030", series: "GT"},
		{name: "GT after board partner", raw: "ZOTAC GeForce GT 1030 2GB", want: "GT 1030", series: "GT"},
		{name: "vendor prefix stripped", raw: "NVIDIA GeForce RTX 4070", want: "RTX 4070", series: "RTX"},
		{name: "board partner listing", raw: "ASUS RTX 4070 DUAL", want: "RTX 4070", series: "RTX"},
		{name: "glued model number", raw: "MSI RTX4060 VENTUS", want: "RTX 4060", series: "RTX"},
		{name: "Ti qualifier", raw: "MSI GeForce RTX 4060 Ti Gaming X 8GB", want: "RTX 4060 TI", series: "RTX"},
		{name: "qualifier order is fixed", raw: "RTX 4070 Super Ti", want: "RTX 4070 TI SUPER", series: "RTX"},
		{name: "glued qualifier", raw: "GALAX RTX 4070TI", want: "RTX 4070 TI", series: "RTX"},
		{name: "qualifier must be a whole token", raw: "RTX 4070 TIGER", want: "RTX 4070", series: "RTX"},
		{name: "XTX before XT", raw: "SAPPHIRE Radeon RX 7900 XTX NITRO+", want: "RX 7900 XTX", series: "RX"},
		{name: "XT", raw: "PowerColor RX 7800 XT Hellhound", want: "RX 7800 XT", series: "RX"},
		{name: "GRE", raw: "RX 7900 GRE", want: "RX 7900 GRE", series: "RX"},
		{name: "arc", raw: "Intel Arc A770 16GB", want: "ARC A770", series: "ARC"},
		{name: "legacy R series", raw: "AMD Radeon R7 250X", want: "R7 250X", series: "R7"},
		{name: "legacy HD series", raw: "Radeon HD 7850", want: "HD 7850", series: "HD"},
		{name: "legacy bare GeForce", raw: "ZOTAC GeForce 210", want: "GEFORCE 210", series: "GEFORCE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractKey(tc.raw, domain.CategoryGraphics)
			if got != tc.want {
				t.Errorf("ExtractKey(%q) = %q, want %q", tc.raw, got, tc.want)
			}

			key, ok := ParseKey(tc.raw, domain.CategoryGraphics)
			if !ok {
				t.Fatalf("ParseKey(%q) failed", tc.raw)
			}
			if key.Series != tc.series {
				t.Errorf("Series = %q, want %q", key.Series, tc.series)
			}
		})
	}
}

func TestExtractKey_Processor(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "core i with K", raw: "Intel Core i7-13700K", want: "I7 13700K"},
		{name: "core i with KF", raw: "인텔 코어i7-13세대 13700KF (랩터레이크) (정품)", want: "I7 13700KF"},
		{name: "core i with F", raw: "Intel® Core™ i5-14400F", want: "I5 14400F"},
		{name: "core ultra", raw: "인텔 코어 울트라7 265K (애로우레이크)", want: "ULTRA 7 265K"},
		{name: "ryzen X3D", raw: "AMD 라이젠7-5세대 7800X3D (라파엘) (정품)", want: "RYZEN 7 7800X3D"},
		{name: "ryzen without qualifier", raw: "AMD Ryzen 5 7600 멀티팩", want: "RYZEN 5 7600"},
		{name: "ryzen pro", raw: "AMD Ryzen 7 PRO 8700G", want: "RYZEN 7 8700G"},
		{name: "threadripper", raw: "AMD Ryzen Threadripper 7980X", want: "THREADRIPPER 7980X"},
		{name: "legacy pentium", raw: "Intel Pentium Gold G7400", want: "PENTIUM G7400"},
		{name: "legacy celeron", raw: "인텔 셀러론 G6900 (정품)", want: "CELERON G6900"},
		{name: "legacy athlon", raw: "AMD Athlon 3000G", want: "ATHLON 3000G"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractKey(tc.raw, domain.CategoryProcessor)
			if got != tc.want {
				t.Errorf("ExtractKey(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestExtractKey_Failure(t *testing.T) {
	t.Run("no series token", func(t *testing.T) {
		if got := ExtractKey("ASUS PRIME B760M-A", domain.CategoryProcessor); got != "" {
			t.Errorf("ExtractKey = %q, want empty", got)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		if got := ExtractKey("", domain.CategoryGraphics); got != "" {
			t.Errorf("ExtractKey = %q, want empty", got)
		}
	})

	t.Run("ParseKey rejects categories without rules", func(t *testing.T) {
		if _, ok := ParseKey("Corsair RM850x", domain.CategoryPowerSupply); ok {
			t.Error("ParseKey should fail for power-supply")
		}
	})
}

func TestExtractKey_FallsBackToNormalizedName(t *testing.T) {
	got := ExtractKey("Corsair RM850x (OEM)", domain.CategoryPowerSupply)
	if got != "CORSAIR RM850X" {
		t.Errorf("ExtractKey = %q, want %q", got, "CORSAIR RM850X")
	}
}

func TestIdentityKey_Variants(t *testing.T) {
	t.Run("intel keys toggle the F marker", func(t *testing.T) {
		key, ok := ParseKey("Intel Core i7-13700K", domain.CategoryProcessor)
		if !ok {
			t.Fatal("ParseKey failed")
		}
		want := []string{"I7 13700K", "I713700K", "I7 13700KF", "I713700KF"}
		if got := key.Variants(); strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("Variants = %v, want %v", got, want)
		}
	})

	t.Run("F marker removed", func(t *testing.T) {
		key, _ := ParseKey("Core i5-14400F", domain.CategoryProcessor)
		got := key.Variants()
		if len(got) != 4 || got[2] != "I5 14400" {
			t.Errorf("Variants = %v, want suffix-stripped third variant", got)
		}
	})

	t.Run("graphics keys only add the space-free form", func(t *testing.T) {
		key, _ := ParseKey("RTX 4060 Ti", domain.CategoryGraphics)
		want := []string{"RTX 4060 TI", "RTX4060TI"}
		if got := key.Variants(); strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("Variants = %v, want %v", got, want)
		}
	})

	t.Run("empty key has no variants", func(t *testing.T) {
		if got := (IdentityKey{}).Variants(); got != nil {
			t.Errorf("Variants = %v, want nil", got)
		}
	})
}

func TestExtractKey_Deterministic(t *testing.T) {
	names := []string{"RTX 4070 Ti Super", "RX 7900 XTX", "Core i9-14900KS", "Ryzen 9 7950X3D"}
	for _, name := range names {
		category := domain.CategoryGraphics
		if strings.Contains(name, "Core") || strings.Contains(name, "Ryzen") {
			category = domain.CategoryProcessor
		}
		first := ExtractKey(name, category)
		for i := 0; i < 10; i++ {
			if got := ExtractKey(name, category); got != first {
				t.Fatalf("ExtractKey(%q) not deterministic: %q vs %q", name, got, first)
			}
		}
	}
}
