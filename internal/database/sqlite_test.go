package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/airadar/citation-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "airadar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	earlier := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	later := earlier.Add(48 * time.Hour)

	_, err := store.SaveScans(ctx, "crm software", []models.ScanResult{
		models.Succeeded(models.ProviderChatGPT, "What are the best crm software?", "HubSpot and Pipedrive", []string{"HubSpot", "Pipedrive"}),
	}, earlier)
	require.NoError(t, err)

	records, err := store.SaveScans(ctx, " crm software ", []models.ScanResult{
		models.Succeeded(models.ProviderGemini, "What are the best crm software?", "Salesforce", nil),
		models.Failed(models.ProviderPerplexity, "What are the best crm software?", models.FailureNoKey, "perplexity API key not configured"),
	}, later)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEmpty(t, records[0].ID)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Equal(t, "crm software", records[0].Keyword)

	listed, err := store.ListScans(ctx, ScanFilter{Keyword: "crm software"})
	require.NoError(t, err)
	require.Len(t, listed, 3)

	// newest first
	assert.True(t, listed[0].CreatedAt.Equal(later))
	assert.True(t, listed[2].CreatedAt.Equal(earlier))
	assert.Equal(t, []string{"HubSpot", "Pipedrive"}, listed[2].BrandsFound)
	assert.Equal(t, models.ProviderChatGPT, listed[2].Provider)
	assert.True(t, listed[2].OK())

	var failed *models.ScanRecord
	for i := range listed {
		if !listed[i].OK() {
			failed = &listed[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, models.FailureNoKey, failed.Failure.Kind)
	assert.Equal(t, []string{}, failed.BrandsFound)

	count, err := store.CountScans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSQLiteStore_ListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

	for i, keyword := range []string{"crm software", "crm software", "email marketing platforms"} {
		_, err := store.SaveScans(ctx, keyword, []models.ScanResult{
			models.Succeeded(models.ProviderChatGPT, "prompt", "Mailchimp", []string{"Mailchimp"}),
		}, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		filter   ScanFilter
		expected int
	}{
		{name: "All", filter: ScanFilter{}, expected: 3},
		{name: "Keyword", filter: ScanFilter{Keyword: "crm software"}, expected: 2},
		{name: "Since", filter: ScanFilter{Since: base.Add(30 * time.Minute)}, expected: 2},
		{name: "Limit", filter: ScanFilter{Limit: 1}, expected: 1},
		{name: "Unknown keyword", filter: ScanFilter{Keyword: "vpn"}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.ListScans(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, records, tt.expected)
		})
	}
}

func TestSQLiteStore_MigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Migrate())
	require.NoError(t, store.Migrate())
}
