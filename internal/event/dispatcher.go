package event

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/nikhilm/hourglass-goal-service/internal/repository"
)

// Dispatcher sweeps the outbox and delivers pending events to the
// configured consumer endpoint as signed webhooks. Delivery is
// at-least-once: a row is only marked after a 2xx response, and rows that
// exhaust their retries stay pending for the next sweep.
type Dispatcher struct {
	outbox   repository.OutboxRepository
	url      string
	wh       *standardwebhooks.Webhook
	client   *http.Client
	interval time.Duration
	batch    int
}

func NewDispatcher(outbox repository.OutboxRepository, url, secret string, interval time.Duration, batch int) (*Dispatcher, error) {
	wh, err := standardwebhooks.NewWebhookRaw([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook signer: %w", err)
	}

	return &Dispatcher{
		outbox:   outbox,
		url:      url,
		wh:       wh,
		client:   &http.Client{Timeout: 10 * time.Second},
		interval: interval,
		batch:    batch,
	}, nil
}

// Run sweeps until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := d.Sweep(ctx)
			if err != nil {
				slog.Error("outbox sweep failed", "error", err)
			}
		}
	}
}

// Sweep delivers one batch of pending events.
func (d *Dispatcher) Sweep(ctx context.Context) error {
	entries, err := d.outbox.Pending(d.batch)
	if err != nil {
		return fmt.Errorf("failed to load pending events: %w", err)
	}

	for _, entry := range entries {
		err = d.deliver(ctx, entry)
		if err != nil {
			slog.Warn("event delivery failed, leaving pending",
				"event_id", entry.ID,
				"event_type", entry.EventType,
				"attempts", entry.Attempts+1,
				"error", err,
			)
			recErr := d.outbox.RecordAttempt(entry.ID)
			if recErr != nil {
				return recErr
			}
			continue
		}

		err = d.outbox.MarkDelivered(entry.ID)
		if err != nil {
			return err
		}

		slog.Info("event delivered", "event_id", entry.ID, "event_type", entry.EventType, "key", entry.EventKey)
	}

	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, entry repository.OutboxEntry) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(250*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := d.post(ctx, entry)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (d *Dispatcher) post(ctx context.Context, entry repository.OutboxEntry) error {
	msgID := "goal-event-" + strconv.FormatInt(entry.ID, 10)
	now := time.Now()

	signature, err := d.wh.Sign(msgID, now, entry.Payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(entry.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("webhook-id", msgID)
	req.Header.Set("webhook-timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("webhook-signature", signature)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("consumer returned status %d", resp.StatusCode)
	}

	return nil
}
