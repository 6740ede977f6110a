package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
)

// Channel identifies one delivery target for alerts.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSlack Channel = "slack"
)

// Notifier delivers alerts to the configured channels. Each channel is
// attempted independently; one failing never blocks another. The returned
// map holds per-channel success and is empty when nothing is configured.
type Notifier interface {
	SendComplianceAlert(ctx context.Context, payload model.NotificationPayload) map[Channel]bool
	SendSweepSummary(ctx context.Context, changes, errors []string) map[Channel]bool
}

// RiskLevel maps a risk score to the human-readable label used in subject
// lines: LOW <= 25 < MEDIUM <= 50 < HIGH <= 75 < CRITICAL.
func RiskLevel(score int) string {
	switch {
	case score <= 25:
		return "LOW"
	case score <= 50:
		return "MEDIUM"
	case score <= 75:
		return "HIGH"
	default:
		return "CRITICAL"
	}
}

// NotifyService implements Notifier over SMTP email and a Slack webhook.
type NotifyService struct {
	smtpCfg    *config.SMTPConfig
	slackCfg   *config.SlackConfig
	httpClient *http.Client

	// sendMail is swapped out in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewNotifyService(smtpCfg *config.SMTPConfig, slackCfg *config.SlackConfig) *NotifyService {
	return &NotifyService{
		smtpCfg:  smtpCfg,
		slackCfg: slackCfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		sendMail: smtp.SendMail,
	}
}

func (s *NotifyService) SendComplianceAlert(ctx context.Context, payload model.NotificationPayload) map[Channel]bool {
	subject := fmt.Sprintf("GDPR Compliance Alert: %s - Risk Score %d/100", payload.DocumentType, payload.RiskScore)
	body := buildComplianceBody(payload)
	return s.deliver(ctx, subject, body)
}

func (s *NotifyService) SendSweepSummary(ctx context.Context, changes, errors []string) map[Channel]bool {
	subject := "GDPR Template Update Notification"
	body := buildSweepBody(changes, errors, time.Now())
	return s.deliver(ctx, subject, body)
}

func (s *NotifyService) deliver(ctx context.Context, subject, body string) map[Channel]bool {
	results := make(map[Channel]bool)

	if s.smtpCfg.Configured() {
		if err := s.sendEmail(subject, body); err != nil {
			logger.Error(ctx, "failed to send email notification", "error", err)
			results[ChannelEmail] = false
		} else {
			results[ChannelEmail] = true
		}
	}

	if s.slackCfg.Configured() {
		if err := s.sendSlack(ctx, subject, body); err != nil {
			logger.Error(ctx, "failed to send slack notification", "error", err)
			results[ChannelSlack] = false
		} else {
			results[ChannelSlack] = true
		}
	}

	return results
}

func (s *NotifyService) sendEmail(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.smtpCfg.Host, s.smtpCfg.Port)
	auth := smtp.PlainAuth("", s.smtpCfg.Sender, s.smtpCfg.Password, s.smtpCfg.Host)

	var msg strings.Builder
	msg.WriteString("From: " + s.smtpCfg.Sender + "\r\n")
	msg.WriteString("To: " + s.smtpCfg.Receiver + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := s.sendMail(addr, auth, s.smtpCfg.Sender, []string{s.smtpCfg.Receiver}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *NotifyService) sendSlack(ctx context.Context, subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"text": subject + "\n" + body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.slackCfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildComplianceBody(payload model.NotificationPayload) string {
	var b strings.Builder
	b.WriteString("GDPR COMPLIANCE FAILURE NOTIFICATION\n\n")
	b.WriteString("Document Type: " + payload.DocumentType + "\n")
	b.WriteString("Analysis Date: " + payload.Timestamp + "\n\n")
	fmt.Fprintf(&b, "Risk Score: %d/100\n", payload.RiskScore)
	b.WriteString("Risk Level: " + RiskLevel(payload.RiskScore) + "\n")

	b.WriteString("\nMISSING CLAUSES\n")
	writeBullets(&b, payload.MissingClauses, "None detected")

	b.WriteString("\nCOMPLIANCE RISKS IDENTIFIED\n")
	writeBullets(&b, payload.ComplianceRisks, "None detected")

	b.WriteString("\nRECOMMENDATIONS\n")
	writeBullets(&b, payload.Recommendations, "No recommendations available")

	b.WriteString("\nThis alert was automatically generated by the GDPR Compliance Checker.\n")
	b.WriteString("Please review and take appropriate action to ensure compliance.\n")
	return b.String()
}

func buildSweepBody(changes, errors []string, now time.Time) string {
	var b strings.Builder
	b.WriteString("GDPR Compliance Checker - Template Update Report\n")
	b.WriteString("Update Time: " + now.Format("2006-01-02 15:04:05") + "\n")

	if len(changes) > 0 {
		b.WriteString("\nCHANGES DETECTED\n")
		writeBullets(&b, changes, "")
	}
	if len(errors) > 0 {
		b.WriteString("\nERRORS ENCOUNTERED\n")
		writeBullets(&b, errors, "")
	}

	b.WriteString("\nThis is an automated notification from the GDPR Compliance Checker.\n")
	b.WriteString("The template standards have been updated to ensure accurate compliance checking.\n")
	return b.String()
}

func writeBullets(b *strings.Builder, items []string, empty string) {
	if len(items) == 0 {
		if empty != "" {
			b.WriteString("  " + empty + "\n")
		}
		return
	}
	for _, item := range items {
		b.WriteString("  - " + item + "\n")
	}
}
