package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/config"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/report"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

const topRowLimit = 10

// Sender delivers a composed email
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Service handles sending notifications via Teams and email
type Service struct {
	config *config.NotificationsConfig
	client *resty.Client
	mailer Sender
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.NotificationsConfig) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
		mailer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// SetMailer replaces the SMTP dialer
func (s *Service) SetMailer(m Sender) {
	s.mailer = m
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(ctx context.Context, rep *models.Report) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postToTeams(ctx, s.buildTeamsMessage(rep)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(rep); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

// SendAlert posts a short card for out-of-band events such as a failed channel.
// Alerts go to Teams only.
func (s *Service) SendAlert(ctx context.Context, alert *models.Alert) error {
	if s.config.TeamsWebhookURL == "" {
		logrus.WithFields(logrus.Fields{"type": alert.Type, "channel": alert.Channel}).Info(alert.Title)
		return nil
	}

	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   alert.Title,
		Text:    alert.Message,
		Sections: []TeamsSection{{
			Facts: []TeamsFact{
				{Name: "Severity", Value: alert.Type},
				{Name: "Subreddit", Value: alert.Channel},
				{Name: "Time", Value: alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
			},
		}},
	}
	return s.postToTeams(ctx, message)
}

func (s *Service) postToTeams(ctx context.Context, message *TeamsMessage) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)
	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

func (s *Service) buildTeamsMessage(rep *models.Report) *TeamsMessage {
	text := fmt.Sprintf("%d discussions compared against %d reported layoff events", rep.TotalDiscussions, rep.TotalEvents)
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Layoffs vs Reddit Report - %s", rep.Period),
		Text:    text,
	}

	facts := []TeamsFact{
		{Name: "Discussions", Value: fmt.Sprintf("%d", rep.TotalDiscussions)},
		{Name: "Layoff Events", Value: fmt.Sprintf("%d", rep.TotalEvents)},
		{Name: "Generated", Value: rep.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	if summary, ok := rep.Summary["sentiment"].(map[string]int); ok {
		for _, label := range []models.SentimentLabel{models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative} {
			facts = append(facts, TeamsFact{
				Name:  fmt.Sprintf("%s Posts", capitalize(string(label))),
				Value: fmt.Sprintf("%d", summary[string(label)]),
			})
		}
	}
	for _, c := range rep.Correlations {
		facts = append(facts, TeamsFact{Name: fmt.Sprintf("r(%s, %s)", c.X, c.Y), Value: report.Correlation(c)})
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(rep.Rows) > 0 {
		var lines []string
		for i, row := range rep.Rows {
			if i >= topRowLimit {
				break
			}
			lines = append(lines, fmt.Sprintf("**%s** - %s laid off, %d mentions, %s",
				row.Organization, formatThousands(row.TotalMagnitude), row.MentionCount, report.Leaning(row)))
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Top Companies",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(rep *models.Report) error {
	subject := fmt.Sprintf("Layoffs vs Reddit Report - %s (%d companies)", rep.Period, len(rep.Rows))

	htmlBody, err := buildEmailHTML(rep)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(rep))
	m.AddAlternative("text/html", htmlBody)

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Layoffs vs Reddit Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #ff4500; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        table { border-collapse: collapse; }
        th, td { padding: 4px 10px; border-bottom: 1px solid #ddd; text-align: right; }
        th:first-child, td:first-child { text-align: left; }
        .positive { color: #107c10; }
        .negative { color: #d13438; }
        .neutral { color: #605e5c; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Layoffs vs Reddit Report</h1>
        <p>{{.Period}} report generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Discussions:</strong> {{.TotalDiscussions}}</p>
        <p><strong>Layoff Events:</strong> {{.TotalEvents}}</p>
        {{range .Correlations}}
            <p><strong>r({{.X}}, {{.Y}}):</strong> {{correlation .}}</p>
        {{end}}
    </div>

    {{if .Rows}}
    <h2>Companies</h2>
    <table>
        <tr><th>Company</th><th>Laid Off</th><th>Mentions</th><th>Sentiment</th><th>Avg Polarity</th></tr>
        {{range $index, $row := .Rows}}
        {{if lt $index 15}}
        <tr>
            <td>{{$row.Organization}}</td>
            <td>{{thousands $row.TotalMagnitude}}</td>
            <td>{{$row.MentionCount}}</td>
            <td class="{{leaning $row}}">{{leaning $row}}</td>
            <td>{{printf "%+.3f" $row.AvgPolarity}}</td>
        </tr>
        {{end}}
        {{end}}
    </table>
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the layoffs tracker.</small></p>
</body>
</html>
`

func buildEmailHTML(rep *models.Report) (string, error) {
	t, err := template.New("email").Funcs(template.FuncMap{
		"thousands":   formatThousands,
		"leaning":     report.Leaning,
		"correlation": report.Correlation,
	}).Parse(emailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, rep); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(rep *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Layoffs vs Reddit Report - %s\n", rep.Period))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", rep.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Discussions: %d\n", rep.TotalDiscussions))
	text.WriteString(fmt.Sprintf("Layoff Events: %d\n", rep.TotalEvents))
	for _, c := range rep.Correlations {
		text.WriteString(fmt.Sprintf("r(%s, %s): %s\n", c.X, c.Y, report.Correlation(c)))
	}

	if len(rep.Rows) > 0 {
		text.WriteString("\nTOP COMPANIES\n")
		text.WriteString("=============\n")
		for i, row := range rep.Rows {
			if i >= topRowLimit {
				break
			}
			text.WriteString(fmt.Sprintf("%2d. %-15s %10s laid off %5d mentions  %s\n",
				i+1, row.Organization, formatThousands(row.TotalMagnitude), row.MentionCount, report.Leaning(row)))
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by the layoffs tracker.\n")
	return text.String()
}

func formatThousands(n int) string {
	return humanize.Comma(int64(n))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
