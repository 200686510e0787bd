package demo

import (
	"math/rand"
	"testing"
	"time"

	"github.com/airadar/citation-bot/internal/matcher"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	brands := Lookup("  Project Management Tools ")
	require.Len(t, brands, 10)
	assert.Equal(t, "Asana", brands[0])

	assert.Contains(t, Lookup("crm software"), "HubSpot")
	assert.Nil(t, Lookup("note taking apps"))

	// callers get their own copy
	brands[0] = "Changed"
	assert.Equal(t, "Asana", Lookup("project management tools")[0])
}

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte("categories:\n  - keyword: vpn\n    brands: [NordVPN, Mullvad]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"NordVPN", "Mullvad"}, c.Lookup("VPN"))

	_, err = ParseCatalog([]byte("categories:\n  - brands: [NordVPN]\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("categories: ["))
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(42)))

	bundle, err := g.Generate("Notion", []string{"Asana", "ClickUp"}, "project management tools")
	require.NoError(t, err)

	assert.Equal(t, "project management tools", bundle.Keyword)
	require.Len(t, bundle.Scans, 15)

	allowed := append([]string{"Notion", "Asana", "ClickUp"}, Lookup("project management tools")...)
	for _, s := range bundle.Scores {
		assert.True(t, matcher.Contains(allowed, s.Brand), s.Brand)
		assert.Equal(t, 15, s.Total)
		assert.LessOrEqual(t, s.Mentions, s.Total)
	}
	for _, scan := range bundle.Scans {
		assert.True(t, scan.OK())
		assert.GreaterOrEqual(t, len(scan.BrandsFound), 3)
		assert.LessOrEqual(t, len(scan.BrandsFound), 6)
		assert.Equal(t, scan.BrandsFound, matcher.FindBrands(scan.Response, scan.BrandsFound))
	}

	// requested brands come first, all of them
	tracked := []string{bundle.Scores[0].Brand, bundle.Scores[1].Brand, bundle.Scores[2].Brand}
	assert.ElementsMatch(t, []string{"Notion", "Asana", "ClickUp"}, tracked)

	require.Len(t, bundle.Trends, TrendPeriods)
	for _, s := range bundle.Scores {
		last := bundle.Trends[len(bundle.Trends)-1]
		assert.Equal(t, s.Score, last.Scores[s.Brand])
		assert.Equal(t, s.Score-bundle.Trends[len(bundle.Trends)-2].Scores[s.Brand], s.Trend)
	}

	require.Len(t, bundle.LLMBreakdown, 3)
	for i, b := range bundle.LLMBreakdown {
		assert.Equal(t, models.Providers()[i], b.Provider)
		assert.Equal(t, 5, b.Total)
		assert.Equal(t, models.StatusOK, b.Status)
	}
}

func TestGenerate_SmallPool(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))

	bundle, err := g.Generate("Acme", []string{"Globex"}, "widgets")
	require.NoError(t, err)

	require.Len(t, bundle.Scores, 2)
	for _, scan := range bundle.Scans {
		assert.ElementsMatch(t, []string{"Acme", "Globex"}, scan.BrandsFound)
	}
	assert.Equal(t, 100, bundle.Scores[0].Score)
}

func TestGenerate_Deterministic(t *testing.T) {
	fixed := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	run := func() models.Bundle {
		g := NewGenerator(rand.New(rand.NewSource(7)))
		g.now = func() time.Time { return fixed }
		bundle, err := g.Generate("HubSpot", nil, "crm software")
		require.NoError(t, err)
		return bundle
	}

	assert.Equal(t, run(), run())
}

func TestGenerate_MissingInput(t *testing.T) {
	g := NewGenerator(nil)

	_, err := g.Generate(" ", []string{"Asana"}, "project management tools")
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = g.Generate("Notion", nil, "")
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestSyntheticTrends(t *testing.T) {
	now := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	scores := []models.BrandScore{
		{Brand: "Notion", Score: 95},
		{Brand: "Asana", Score: 3},
	}

	trends := SyntheticTrends(scores, 8, now, rand.New(rand.NewSource(3)))

	require.Len(t, trends, 8)
	assert.Equal(t, "2024-04-24", trends[0].Date)
	assert.Equal(t, "2024-06-12", trends[7].Date)
	assert.Equal(t, map[string]int{"Notion": 95, "Asana": 3}, trends[7].Scores)

	for _, point := range trends[:7] {
		for _, s := range scores {
			v := point.Scores[s.Brand]
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, 100)
			assert.InDelta(t, s.Score, v, 10)
		}
	}

	assert.Empty(t, SyntheticTrends(scores, 0, now, rand.New(rand.NewSource(3))))
}
