// Package ingest consumes course-progress events from JetStream and turns
// completions into certificates.
package ingest

import (
	"context"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"learnhub-backend/internal/models"
	"learnhub-backend/internal/notify"
	"learnhub-backend/internal/storage"
)

type ProgressConsumer struct {
	js       nats.JetStreamContext
	storage  *storage.Storage
	notifier *notify.Notifier
	sub      *nats.Subscription
}

func NewProgressConsumer(js nats.JetStreamContext, storage *storage.Storage, notifier *notify.Notifier) *ProgressConsumer {
	return &ProgressConsumer{js: js, storage: storage, notifier: notifier}
}

// Start begins pulling progress events from JetStream.
func (c *ProgressConsumer) Start(ctx context.Context) error {
	sub, err := c.js.PullSubscribe(
		"lms.progress.>",
		"certificate-issuer",
		nats.ManualAck(),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(3),
		nats.MaxAckPending(500),
	)
	if err != nil {
		return err
	}
	c.sub = sub

	go c.consumeLoop(ctx)
	log.Println("INFO Progress consumer started")
	return nil
}

func (c *ProgressConsumer) consumeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := c.sub.Fetch(64, nats.MaxWait(5*time.Second))
		if err != nil {
			if err != nats.ErrTimeout {
				log.Printf("WARN Fetch error: %v", err)
			}
			continue
		}

		for _, msg := range msgs {
			if err := c.processMessage(ctx, msg); err != nil {
				log.Printf("WARN Process error: %v", err)
				msg.NakWithDelay(5 * time.Second)
				continue
			}
			msg.Ack()
		}
	}
}

func (c *ProgressConsumer) processMessage(ctx context.Context, msg *nats.Msg) error {
	var event models.CourseProgressEvent
	if err := msgpack.Unmarshal(msg.Data, &event); err != nil {
		log.Printf("ERROR Unmarshal error (terminating): %v", err)
		msg.Term()
		return nil
	}

	if !event.Completed {
		return nil
	}

	user, err := c.storage.GetUser(ctx, event.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		// The user may have been deleted upstream; nothing to issue.
		log.Printf("WARN Progress event for unknown user %s (terminating)", event.UserID)
		msg.Term()
		return nil
	}

	cert := &models.Certificate{
		UserID:      user.ID,
		CourseID:    event.CourseID,
		CourseTitle: event.CourseTitle,
		Score:       event.Score,
	}
	created, err := c.storage.InsertCertificate(ctx, cert)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	log.Printf("INFO Certificate issued: user=%s course=%s", user.ID, event.CourseID)

	_, _ = c.notifier.Fanout(ctx, "", []string{user.ID},
		"certificate.issued", "Certificate earned", "You completed "+event.CourseTitle+".")

	return nil
}

// Stop gracefully stops the consumer.
func (c *ProgressConsumer) Stop() error {
	if c.sub != nil {
		return c.sub.Drain()
	}
	return nil
}
