// Package notify provides outbound message delivery channels for
// emergency escalation.
package notify

import (
	"context"
	"errors"
)

// ErrDeliveryFailed indicates the channel could not deliver the message.
var ErrDeliveryFailed = errors.New("message delivery failed")

// Recipient identifies one delivery target.
type Recipient struct {
	ContactID string
	Name      string
	Phone     string
}

// Channel delivers one message to one recipient. Delivery is
// fire-and-forget from the caller's perspective: there is no confirmed
// delivery contract beyond the gateway accepting the message.
type Channel interface {
	Send(ctx context.Context, recipient Recipient, message string) error
	Name() string
}
