package notification

import (
	"context"
	"fmt"
)

// JSONPublisher is satisfied by *mq.Publisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// AMQPNotifier hands messages to the delivery service over a topic exchange.
// Routing keys are "notification.<type>".
type AMQPNotifier struct {
	pub JSONPublisher
}

func NewAMQPNotifier(pub JSONPublisher) *AMQPNotifier {
	return &AMQPNotifier{pub: pub}
}

func (n *AMQPNotifier) Notify(ctx context.Context, msg Message) error {
	if err := n.pub.PublishJSON(ctx, "notification."+string(msg.Type), msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
