package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/airadar/citation-bot/internal/models"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// ScanBatch is the archived form of one scan invocation
type ScanBatch struct {
	Keyword   string              `json:"keyword"`
	Cadence   models.Cadence      `json:"cadence"`
	CreatedAt time.Time           `json:"created_at"`
	Results   []models.ScanResult `json:"results"`
}

// Archiver writes scan batches and reports into a Store
type Archiver struct {
	store Store
}

// NewArchiver wraps store
func NewArchiver(store Store) *Archiver {
	return &Archiver{store: store}
}

// ArchiveScan stores batch as scans/YYYY/MM/DD/<keyword>-<unix>.json
func (a *Archiver) ArchiveScan(ctx context.Context, batch ScanBatch) (string, error) {
	name := fmt.Sprintf("scans/%s/%s-%d.json", batch.CreatedAt.UTC().Format("2006/01/02"), Slug(batch.Keyword), batch.CreatedAt.UnixNano())
	return name, a.put(ctx, name, batch)
}

// ArchiveReport stores report as reports/<period>/<keyword>-<date>.json
func (a *Archiver) ArchiveReport(ctx context.Context, report *models.Report) (string, error) {
	name := fmt.Sprintf("reports/%s/%s-%s.json", report.Period, Slug(report.Keyword), report.GeneratedAt.UTC().Format("2006-01-02T150405"))
	return name, a.put(ctx, name, report)
}

// LoadScans reads every archived batch under prefix
func (a *Archiver) LoadScans(ctx context.Context, prefix string) ([]ScanBatch, error) {
	names, err := a.store.List(ctx, "scans/"+prefix)
	if err != nil {
		return nil, err
	}

	batches := make([]ScanBatch, 0, len(names))
	for _, name := range names {
		data, err := a.store.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		var batch ScanBatch
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func (a *Archiver) put(ctx context.Context, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return a.store.Put(ctx, name, data)
}

// Slug lowercases s and joins its alphanumeric runs with "-"
func Slug(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}
