// internal/ownership/notifier.go
package ownership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"talent-crm/internal/common/logger"
	"talent-crm/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

// OwnerChange describes a committed ownership transfer.
type OwnerChange struct {
	CandidateID       string
	JobEngagementID   int64
	PreviousOwnerCode string
	NewOwnerCode      string
	AssignedByCode    string
	Reason            models.TransitionReason
}

// Notifier delivers owner-change notices to the executives involved.
type Notifier interface {
	OwnerChanged(ctx context.Context, change OwnerChange) error
}

// NoopNotifier is used when notifications are disabled.
type NoopNotifier struct{}

func (NoopNotifier) OwnerChanged(context.Context, OwnerChange) error { return nil }

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type NotifierConfig struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
}

// AWSNotifier emails the incoming owner over SES and, for manager
// overrides, also texts them over SNS.
type AWSNotifier struct {
	config    NotifierConfig
	db        *sql.DB
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewAWSNotifier(config NotifierConfig, db *sql.DB, sesClient SESService, snsClient SNSService, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{
		config:    config,
		db:        db,
		logger:    log.WithFields(map[string]interface{}{"component": "owner-notifier"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

func (n *AWSNotifier) OwnerChanged(ctx context.Context, change OwnerChange) error {
	email, phone, err := n.getExecutiveContact(ctx, change.NewOwnerCode)
	if err != nil {
		n.logger.Warn("executive contact not found, skipping notice", map[string]interface{}{
			"ownerCode": change.NewOwnerCode,
		})
		return nil
	}

	subject := fmt.Sprintf("Candidate %s assigned to you", change.CandidateID)
	body := fmt.Sprintf(
		"Candidate %s (engagement %d) was assigned to you by %s. Previous owner: %s.",
		change.CandidateID, change.JobEngagementID,
		displayOwner(change.AssignedByCode), displayOwner(change.PreviousOwnerCode),
	)

	if n.config.EmailEnabled && email != "" {
		if err := n.sendEmail(ctx, email, subject, body); err != nil {
			return fmt.Errorf("%w: email: %v", ErrNotificationSendFailed, err)
		}
	}

	if n.config.SMSEnabled && phone != "" && change.Reason == models.ReasonManagerOverride {
		if err := n.sendSMS(ctx, phone, body); err != nil {
			return fmt.Errorf("%w: sms: %v", ErrNotificationSendFailed, err)
		}
	}

	return nil
}

func (n *AWSNotifier) getExecutiveContact(ctx context.Context, ownerCode string) (string, string, error) {
	var email, phone sql.NullString
	err := n.db.QueryRowContext(ctx,
		`SELECT email, phone FROM executives WHERE code = $1`, ownerCode,
	).Scan(&email, &phone)
	return email.String, phone.String, err
}

func (n *AWSNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *AWSNotifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func displayOwner(code string) string {
	if code == "" {
		return "(open profile)"
	}
	return code
}
