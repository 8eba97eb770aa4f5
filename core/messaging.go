package core

import "context"

type (
	// TextMessage is a single outbound WhatsApp message.
	// To holds digits only, country code included (see NormalizePhone).
	TextMessage struct {
		To   string
		Body string
	}

	// MessagingService is any service that can deliver text messages.
	MessagingService interface {
		// Send delivers msg and returns the provider's message ID.
		// A non-nil error means the message was not accepted by the channel.
		Send(ctx context.Context, msg TextMessage) (string, error)
	}
)
