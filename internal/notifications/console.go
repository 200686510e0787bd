package notifications

import (
	"context"
	"fmt"
	"io"

	"github.com/airadar/citation-bot/internal/models"
)

// Console writes reports as plain text, for local runs
type Console struct {
	out io.Writer
}

var _ Notifier = (*Console)(nil)

// NewConsole writes to out
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) SendReport(ctx context.Context, report *models.Report) error {
	_, err := io.WriteString(c.out, buildEmailText(report))
	return err
}

func (c *Console) SendAlert(ctx context.Context, alert *models.Alert) error {
	_, err := fmt.Fprintf(c.out, "[%s] %s: %s\n", alert.Type, alert.Title, alert.Message)
	return err
}
