package queue

import (
	"context"
)

// Publisher publishes certificate messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg CertificateMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg CertificateMessage) error

// Consumer consumes certificate messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

const (
	// CertificatesQueue carries finalization events for certificate assembly.
	CertificatesQueue = "certificates"

	// CertificatesDLQ collects messages rejected by the worker.
	CertificatesDLQ = "dlq.certificates"

	certificatesRoutingKey = "certificates"
)
