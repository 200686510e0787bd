package storage

import (
	"context"
	"testing"
	"time"

	"github.com/airadar/citation-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "scans/2024/06/03/a.json", []byte(`{"a":1}`)))
	require.NoError(t, store.Put(ctx, "scans/2024/06/04/b.json", []byte(`{"b":2}`)))
	require.NoError(t, store.Put(ctx, "reports/weekly/c.json", []byte(`{}`)))

	data, err := store.Get(ctx, "scans/2024/06/03/a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	names, err := store.List(ctx, "scans/")
	require.NoError(t, err)
	assert.Equal(t, []string{"scans/2024/06/03/a.json", "scans/2024/06/04/b.json"}, names)

	_, err = store.Get(ctx, "scans/2024/06/05/missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_RejectsEscapes(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../outside.json", "/etc/passwd", "a/../../b"} {
		assert.Error(t, store.Put(ctx, name, []byte("x")), name)
	}
}

func TestArchiver(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	archiver := NewArchiver(store)

	at := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	batch := ScanBatch{
		Keyword:   "Project Management Tools",
		Cadence:   models.CadenceLite,
		CreatedAt: at,
		Results: []models.ScanResult{
			models.Succeeded(models.ProviderChatGPT, "What are the best project management tools?", "Notion", []string{"Notion"}),
			models.Failed(models.ProviderGemini, "What are the best project management tools?", models.FailureError, "gemini API returned status 500"),
		},
	}

	name, err := archiver.ArchiveScan(ctx, batch)
	require.NoError(t, err)
	assert.Contains(t, name, "scans/2024/06/03/project-management-tools-")

	batches, err := archiver.LoadScans(ctx, "2024/06")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, batch.Results, batches[0].Results)
	assert.True(t, batches[0].CreatedAt.Equal(at))

	reportName, err := archiver.ArchiveReport(ctx, &models.Report{Period: "weekly", Keyword: "crm software", GeneratedAt: at})
	require.NoError(t, err)
	assert.Equal(t, "reports/weekly/crm-software-2024-06-03T100000.json", reportName)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "crm-software", Slug("  CRM software "))
	assert.Equal(t, "monday-com", Slug("Monday.com"))
	assert.Equal(t, "untitled", Slug("!!!"))
}
