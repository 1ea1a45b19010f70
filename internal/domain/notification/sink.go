package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Sink delivers a notification to a device. Delivery failures are the sink's
// problem; the persisted row already exists when a sink runs.
type Sink interface {
	Send(ctx context.Context, deviceToken, title, body string) error
}

// LogSink writes deliveries to the log. It is the default sink when no push
// gateway is configured.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Send(_ context.Context, deviceToken, title, body string) error {
	s.log.Info().
		Str("device_token", deviceToken).
		Str("title", title).
		Str("body", body).
		Msg("push notification dispatched")
	return nil
}

// PushSink posts deliveries to an external push gateway.
type PushSink struct {
	url    string
	client *http.Client
}

func NewPushSink(url string) *PushSink {
	return &PushSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type pushPayload struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *PushSink) Send(ctx context.Context, deviceToken, title, body string) error {
	payload, err := json.Marshal(pushPayload{To: deviceToken, Title: title, Body: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned %d", resp.StatusCode)
	}
	return nil
}
