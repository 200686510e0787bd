package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/airadar/citation-bot/internal/config"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service sends reports to a Teams webhook and by email
type Service struct {
	config *config.Config
	client *resty.Client
}

var _ Notifier = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends a report via every configured channel
func (s *Service) SendReport(ctx context.Context, report *models.Report) error {
	var errs []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postTeams(ctx, buildTeamsReport(report)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errs = append(errs, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendReportEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errs = append(errs, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SendAlert pushes an alert to Teams and email
func (s *Service) SendAlert(ctx context.Context, alert *models.Alert) error {
	logrus.WithFields(logrus.Fields{
		"type":  alert.Type,
		"brand": alert.Brand,
	}).Warnf("Alert: %s", alert.Title)

	var errs []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postTeams(ctx, buildTeamsAlert(alert)); err != nil {
			errs = append(errs, fmt.Sprintf("Teams: %v", err))
		}
	}

	if s.config.NotificationEmail != "" {
		body := fmt.Sprintf("%s\n\n%s\n\nKeyword: %s\nBrand: %s\nRaised: %s\n",
			alert.Title, alert.Message, alert.Keyword, alert.Brand, alert.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
		if err := s.sendEmail("[AI Radar] "+alert.Title, body, ""); err != nil {
			errs = append(errs, fmt.Sprintf("Email: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("alert errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s *Service) postTeams(ctx context.Context, message *TeamsMessage) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)
	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

func buildTeamsReport(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("AI Citation Report - %s", report.Keyword),
		Text:    summaryLine(report),
	}

	facts := []TeamsFact{
		{Name: "Period", Value: report.Period},
		{Name: "Mode", Value: report.Mode},
		{Name: "Scans", Value: fmt.Sprintf("%d", len(report.Bundle.Scans))},
		{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	if report.Reason != "" {
		facts = append(facts, TeamsFact{Name: "Reason", Value: report.Reason})
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.Bundle.Scores) > 0 {
		var lines []string
		for _, score := range report.Bundle.Scores {
			lines = append(lines, fmt.Sprintf("**%s** %d%% (%d/%d) %s", score.Brand, score.Score, score.Mentions, score.Total, formatTrend(score.Trend)))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Citation Scores",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	if len(report.Bundle.LLMBreakdown) > 0 {
		var facts []TeamsFact
		for _, b := range report.Bundle.LLMBreakdown {
			facts = append(facts, TeamsFact{Name: string(b.Provider), Value: breakdownValue(b)})
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: fmt.Sprintf("%s by provider", report.FocalBrand),
			Facts:         facts,
		})
	}

	return message
}

func buildTeamsAlert(alert *models.Alert) *TeamsMessage {
	color := "FFA500"
	if alert.Type == "critical" {
		color = "D13438"
	}
	return &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: color,
		Title:      alert.Title,
		Text:       alert.Message,
	}
}

func (s *Service) sendReportEmail(report *models.Report) error {
	subject := fmt.Sprintf("AI Citation Report - %s (%s)", report.Keyword, report.Period)

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}
	return s.sendEmail(subject, buildEmailText(report), htmlBody)
}

func (s *Service) sendEmail(subject, text, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	if html != "" {
		m.AddAlternative("text/html", html)
	}

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"trend":     formatTrend,
	"breakdown": breakdownValue,
}).Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>AI Citation Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #4f46e5; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .demo { color: #b45309; }
        table { border-collapse: collapse; }
        td, th { padding: 6px 12px; border-bottom: 1px solid #ddd; text-align: left; }
    </style>
</head>
<body>
    <div class="header">
        <h1>AI Citation Report: {{.Keyword}}</h1>
        <p>{{.Period}} report generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <p><strong>Focal brand:</strong> {{.FocalBrand}}</p>
        <p><strong>Scans:</strong> {{len .Bundle.Scans}}</p>
        {{if eq .Mode "demo"}}<p class="demo">Sample data shown ({{.Reason}})</p>{{end}}
    </div>

    <h2>Citation Scores</h2>
    <table>
        <tr><th>Brand</th><th>Score</th><th>Mentions</th><th>Trend</th></tr>
        {{range .Bundle.Scores}}
        <tr><td>{{.Brand}}{{if .Discovered}} *{{end}}</td><td>{{.Score}}%</td><td>{{.Mentions}}/{{.Total}}</td><td>{{trend .Trend}}</td></tr>
        {{end}}
    </table>

    {{if .Bundle.LLMBreakdown}}
    <h2>{{.FocalBrand}} by provider</h2>
    <table>
        {{range .Bundle.LLMBreakdown}}
        <tr><td>{{.Provider}}</td><td>{{breakdown .}}</td></tr>
        {{end}}
    </table>
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the AI Radar citation bot.</small></p>
</body>
</html>
`))

func buildEmailHTML(report *models.Report) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("AI Citation Report - %s (%s)\n", report.Keyword, report.Period))
	text.WriteString(fmt.Sprintf("Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))
	text.WriteString(summaryLine(report) + "\n\n")

	text.WriteString("CITATION SCORES\n")
	text.WriteString("===============\n")
	for _, score := range report.Bundle.Scores {
		marker := ""
		if score.Discovered {
			marker = " (discovered)"
		}
		text.WriteString(fmt.Sprintf("%-20s %3d%%  %d/%d  %s%s\n", score.Brand, score.Score, score.Mentions, score.Total, formatTrend(score.Trend), marker))
	}

	if len(report.Bundle.LLMBreakdown) > 0 {
		text.WriteString(fmt.Sprintf("\n%s BY PROVIDER\n", strings.ToUpper(report.FocalBrand)))
		text.WriteString("===============\n")
		for _, b := range report.Bundle.LLMBreakdown {
			text.WriteString(fmt.Sprintf("%-12s %s\n", b.Provider, breakdownValue(b)))
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by the AI Radar citation bot.\n")
	return text.String()
}

func summaryLine(report *models.Report) string {
	if report.Mode == "demo" {
		return fmt.Sprintf("Sample data for %q: live scan unavailable (%s)", report.Keyword, report.Reason)
	}
	for _, score := range report.Bundle.Scores {
		if strings.EqualFold(score.Brand, report.FocalBrand) {
			return fmt.Sprintf("%s was cited in %d%% of AI answers for %q", score.Brand, score.Score, report.Keyword)
		}
	}
	return fmt.Sprintf("%d AI answers scanned for %q", len(report.Bundle.Scans), report.Keyword)
}

func formatTrend(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d", delta)
	case delta < 0:
		return fmt.Sprintf("%d", delta)
	default:
		return "="
	}
}

func breakdownValue(b models.ProviderBreakdown) string {
	if b.Status != models.StatusOK {
		return fmt.Sprintf("n/a (%s)", b.Status)
	}
	return fmt.Sprintf("%d%% (%d/%d)", b.Score, b.Mentions, b.Total)
}
