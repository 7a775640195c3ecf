// Package notify delivers critical-risk alerts over email (SES) and
// SMS (SNS) when a sealed verdict crosses the configured threshold.
package notify

import (
	"context"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"supplyguard/internal/common/config"
	"supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/common/metrics"
	"supplyguard/internal/models"
)

// EmailClient matches the SES wrapper in internal/common/aws.
type EmailClient interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSClient matches the SNS wrapper in internal/common/aws.
type SMSClient interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Notifier struct {
	config config.AlertConfig
	email  EmailClient
	sms    SMSClient
	logger logger.Logger
}

func NewNotifier(cfg config.AlertConfig, email EmailClient, sms SMSClient, log logger.Logger) *Notifier {
	return &Notifier{
		config: cfg,
		email:  email,
		sms:    sms,
		logger: log.With(map[string]interface{}{
			"component": "notify",
		}),
	}
}

// CriticalRisk sends alerts for a verdict at or above the score
// threshold. Channels fail independently; the first failure is
// returned after all channels have been tried.
func (n *Notifier) CriticalRisk(ctx context.Context, threadID string, verdict models.RiskScore) error {
	if !n.config.Enabled || verdict.Score < n.config.ScoreThreshold {
		return nil
	}

	n.logger.Info("Dispatching critical risk alert", map[string]interface{}{
		"threadId":  threadID,
		"riskScore": verdict.Score,
		"riskLevel": string(verdict.Level),
	})

	var firstErr error
	if n.config.Email.Enabled && n.email != nil {
		if err := n.sendEmail(ctx, threadID, verdict); err != nil {
			metrics.AlertsSent.WithLabelValues("email", "error").Inc()
			n.logger.Error("Email alert failed", map[string]interface{}{
				"threadId": threadID,
				"error":    err.Error(),
			})
			firstErr = err
		} else {
			metrics.AlertsSent.WithLabelValues("email", "ok").Inc()
		}
	}

	if n.config.SMS.Enabled && n.sms != nil {
		if err := n.sendSMS(ctx, threadID, verdict); err != nil {
			metrics.AlertsSent.WithLabelValues("sms", "error").Inc()
			n.logger.Error("SMS alert failed", map[string]interface{}{
				"threadId": threadID,
				"error":    err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		} else {
			metrics.AlertsSent.WithLabelValues("sms", "ok").Inc()
		}
	}

	return firstErr
}

func (n *Notifier) sendEmail(ctx context.Context, threadID string, verdict models.RiskScore) error {
	if len(n.config.Email.To) == 0 {
		return errors.NewNotificationFailedError("email", fmt.Errorf("no recipients configured"))
	}

	subject := fmt.Sprintf("[%s] Supply chain risk alert (%.1f)", strings.ToUpper(string(verdict.Level)), verdict.Score)
	body := n.renderBody(threadID, verdict)

	input := &ses.SendEmailInput{
		Source: awssdk.String(n.config.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: n.config.Email.To,
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body)},
			},
		},
	}

	if _, err := n.email.SendEmail(ctx, input); err != nil {
		return errors.NewNotificationFailedError("email", err)
	}
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, threadID string, verdict models.RiskScore) error {
	if n.config.SMS.TopicArn == "" {
		return errors.NewNotificationFailedError("sms", fmt.Errorf("no topic configured"))
	}

	message := fmt.Sprintf("Risk alert %s (%.1f) on thread %s: %s",
		strings.ToUpper(string(verdict.Level)), verdict.Score, threadID, verdict.Summary)

	input := &sns.PublishInput{
		TopicArn: awssdk.String(n.config.SMS.TopicArn),
		Message:  awssdk.String(message),
	}
	if n.config.SMS.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(n.config.SMS.SenderID),
			},
		}
	}

	if _, err := n.sms.Publish(ctx, input); err != nil {
		return errors.NewNotificationFailedError("sms", err)
	}
	return nil
}

func (n *Notifier) renderBody(threadID string, verdict models.RiskScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thread:    %s\n", threadID)
	fmt.Fprintf(&b, "Dimension: %s\n", verdict.Dimension)
	fmt.Fprintf(&b, "Score:     %.1f (%s)\n", verdict.Score, verdict.Level)
	fmt.Fprintf(&b, "Summary:   %s\n", verdict.Summary)
	if len(verdict.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, rec := range verdict.Recommendations {
			fmt.Fprintf(&b, "  - %s\n", rec)
		}
	}
	return b.String()
}
