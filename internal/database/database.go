// Package database persists scan records for trend and dashboard views.
package database

import (
	"context"
	"time"

	"github.com/airadar/citation-bot/internal/models"
)

// ScanFilter narrows ListScans. Zero values mean no restriction.
type ScanFilter struct {
	Keyword string
	Since   time.Time
	Limit   int
}

// Store defines the interface for scan persistence.
type Store interface {
	// SaveScans stores one batch of results for keyword and returns the records
	SaveScans(ctx context.Context, keyword string, results []models.ScanResult, at time.Time) ([]models.ScanRecord, error)
	// ListScans returns records newest first
	ListScans(ctx context.Context, filter ScanFilter) ([]models.ScanRecord, error)
	// CountScans returns the number of stored records
	CountScans(ctx context.Context) (int, error)

	// Lifecycle
	Close() error
	Migrate() error
}
