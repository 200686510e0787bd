package notifications

import (
	"context"

	"github.com/airadar/citation-bot/internal/models"
)

// Notifier delivers citation reports and alerts
type Notifier interface {
	SendReport(ctx context.Context, report *models.Report) error
	SendAlert(ctx context.Context, alert *models.Alert) error
}
