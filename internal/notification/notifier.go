package notification

import (
	"context"
	"log"

	"cleanbook/internal/domain"
)

// Message is a notification addressed to a single user.
type Message struct {
	Recipient    int64                   `json:"recipient"`
	Subject      string                  `json:"subject"`
	Type         domain.NotificationType `json:"type"`
	TemplateData map[string]any          `json:"template_data,omitempty"`
}

// LogNotifier writes messages to the process log. It is used when no broker
// is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	log.Printf("notification type=%s recipient=%d subject=%q data=%v", msg.Type, msg.Recipient, msg.Subject, msg.TemplateData)
	return nil
}
