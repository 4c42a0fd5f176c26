// internal/notify/sms.go
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"service-directory/internal/common/logger"
	"service-directory/internal/common/metrics"
)

// SNSPublisher is the slice of the SNS API the sender needs.
type SNSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// SMSSender delivers organisation links to phones via SNS. Delivery is best
// effort: the caller gets a boolean outcome, never an error that would fail
// the surrounding request.
type SMSSender struct {
	publisher SNSPublisher
	senderID  string
	enabled   bool
	log       logger.Logger
}

func NewSMSSender(publisher SNSPublisher, senderID string, enabled bool, log logger.Logger) *SMSSender {
	return &SMSSender{publisher: publisher, senderID: senderID, enabled: enabled, log: log}
}

// OrganisationLinkMessage renders the SMS body. yourName is empty when the
// sender is sharing with themselves.
func OrganisationLinkMessage(yourName, link string) string {
	if yourName == "" {
		return fmt.Sprintf("You have sent yourself a link: %s", link)
	}
	return fmt.Sprintf("%s has sent you a link: %s", yourName, link)
}

// Send publishes one SMS and reports whether it was accepted.
func (s *SMSSender) Send(ctx context.Context, cellNumber, message string) bool {
	if !s.enabled {
		s.log.Debug("sms sending disabled, dropping message", nil)
		return false
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(cellNumber),
		Message:     aws.String(message),
	}
	if s.senderID != "" {
		input.MessageAttributes = senderIDAttribute(s.senderID)
	}

	if _, err := s.publisher.Publish(ctx, input); err != nil {
		s.log.Warn("sms delivery failed", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.NotificationFailuresTotal.WithLabelValues("sms").Inc()
		return false
	}
	return true
}

func senderIDAttribute(id string) map[string]snstypes.MessageAttributeValue {
	return map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SenderID": {
			DataType:    aws.String("String"),
			StringValue: aws.String(id),
		},
	}
}
