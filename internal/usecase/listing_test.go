package usecase

import (
	"testing"

	"github.com/pcsite/backend/internal/domain"
)

func TestDedupeListings(t *testing.T) {
	t.Run("keeps the lowest known price per canonical name", func(t *testing.T) {
		listings := []domain.ScrapedListing{
			{Name: "ASUS RTX 4070 DUAL", Price: 780000},
			{Name: "MSI RTX 4060 VENTUS", Price: 420000},
			{Name: "asus rtx 4070 dual (OEM)", Price: 750000},
			{Name: "ASUS RTX-4070 DUAL", Price: 760000},
		}

		got := DedupeListings(domain.CategoryGraphics, listings)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2: %+v", len(got), got)
		}
		if got[0].Price != 750000 || got[0].Name != "asus rtx 4070 dual (OEM)" {
			t.Errorf("got[0] = %+v, want the 750000 listing", got[0])
		}
		if got[1].Name != "MSI RTX 4060 VENTUS" {
			t.Errorf("got[1] = %+v, order not preserved", got[1])
		}
		for _, l := range got {
			if l.Category != domain.CategoryGraphics {
				t.Errorf("Category = %q, want graphics-card", l.Category)
			}
		}
	})

	t.Run("known price beats unknown and ties keep the first", func(t *testing.T) {
		listings := []domain.ScrapedListing{
			{Name: "Noctua NH-D15", Price: 0},
			{Name: "NOCTUA NH D15", Price: 150000, Image: "first"},
			{Name: "noctua nh-d15", Price: 150000, Image: "second"},
		}
		got := DedupeListings(domain.CategoryCooler, listings)
		if len(got) != 1 || got[0].Image != "first" {
			t.Errorf("got = %+v, want the first 150000 listing", got)
		}
	})

	t.Run("capacity separates memory and storage listings", func(t *testing.T) {
		tests := []struct {
			name     string
			category domain.Category
			listings []domain.ScrapedListing
			want     int
		}{
			{
				name:     "storage",
				category: domain.CategoryStorage,
				listings: []domain.ScrapedListing{
					{Name: "Samsung 990 PRO 1TB", Price: 180000},
					{Name: "Samsung 990 PRO 2TB", Price: 290000},
					{Name: "SAMSUNG 990 PRO 2 TB", Price: 295000},
				},
				want: 2,
			},
			{
				name:     "memory",
				category: domain.CategoryMemory,
				listings: []domain.ScrapedListing{
					{Name: "삼성전자 DDR5-5600 (16GB)", Price: 60000},
					{Name: "삼성전자 DDR5-5600 (32GB)", Price: 115000},
					{Name: "삼성전자 DDR5-5600 16GB", Price: 61000},
				},
				want: 2,
			},
			{
				name:     "graphics cards ignore memory size",
				category: domain.CategoryGraphics,
				listings: []domain.ScrapedListing{
					{Name: "MSI RTX 4060 Ti VENTUS 8GB", Price: 520000},
					{Name: "MSI RTX 4060 Ti VENTUS 16GB", Price: 610000},
				},
				want: 1,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := DedupeListings(tt.category, tt.listings)
				if len(got) != tt.want {
					t.Errorf("len = %d, want %d: %+v", len(got), tt.want, got)
				}
			})
		}
	})

	t.Run("drops empty names and negative prices", func(t *testing.T) {
		listings := []domain.ScrapedListing{
			{Name: "  ", Price: 1000},
			{Name: "(OEM)", Price: 1000},
			{Name: "Samsung 990 PRO", Price: -1},
			{Name: " Samsung 870 EVO ", Price: 150000},
		}
		got := DedupeListings(domain.CategoryStorage, listings)
		if len(got) != 1 || got[0].Name != "Samsung 870 EVO" {
			t.Errorf("got = %+v, want only the trimmed 870 EVO", got)
		}
	})
}

func TestParseSpecText(t *testing.T) {
	t.Run("positional and keyed parts", func(t *testing.T) {
		specs := ParseSpecText("AMD(소켓AM5) / 8코어 / 16스레드 / 기본 클럭: 4.2GHz / ")
		want := map[string]string{
			"spec1":  "AMD(소켓AM5)",
			"spec2":  "8코어",
			"spec3":  "16스레드",
			"기본 클럭": "4.2GHz",
		}
		if len(specs) != len(want) {
			t.Fatalf("specs = %v, want %v", specs, want)
		}
		for k, v := range want {
			if specs[k] != v {
				t.Errorf("specs[%q] = %q, want %q", k, specs[k], v)
			}
		}
	})

	t.Run("empty text", func(t *testing.T) {
		if specs := ParseSpecText("  /  "); specs != nil {
			t.Errorf("specs = %v, want nil", specs)
		}
	})
}

func TestManufacturerOf(t *testing.T) {
	if got := ManufacturerOf("  ASUS RTX 4070 DUAL"); got != "ASUS" {
		t.Errorf("ManufacturerOf = %q, want ASUS", got)
	}
	if got := ManufacturerOf(""); got != "" {
		t.Errorf("ManufacturerOf(empty) = %q", got)
	}
}
