package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcsite/backend/config"
	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/usecase"
)

func TestListingSources(t *testing.T) {
	got, err := listingSources(map[string]config.SourceConfig{
		"Graphics-Card": {
			URL:       "https://shop.example.com/vga?page={page}",
			Selectors: config.SelectorConfig{Item: "li", Name: "a", Price: "strong", ImageAttr: "data-src"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, got, domain.CategoryGraphics)
	assert.Equal(t, "li", got[domain.CategoryGraphics].Selectors.Item)
	assert.Equal(t, "data-src", got[domain.CategoryGraphics].Selectors.ImageAttr)

	_, err = listingSources(map[string]config.SourceConfig{"toaster": {URL: "x"}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCategory)
}

func TestBenchmarkSources(t *testing.T) {
	got, err := benchmarkSources(map[string]config.SourceConfig{
		"processor": {URL: "https://bench.example.com/cpu", Selectors: config.SelectorConfig{Row: "tr", Name: "a", Score: "td"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "tr", got[domain.CategoryProcessor].Selectors.Row)
}

func TestScoreFloorRules(t *testing.T) {
	assert.Equal(t, usecase.DefaultScoreFloorRules(), scoreFloorRules(nil))

	got := scoreFloorRules([]config.ScoreFloorConfig{{Category: "processor", Pattern: "^X", MinScore: 10}})
	assert.Equal(t, []usecase.ScoreFloorRule{{Category: domain.CategoryProcessor, Pattern: "^X", MinScore: 10}}, got)
}
