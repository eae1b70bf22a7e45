package trigger

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/mentorconnect/mentorconnect-api/pkg/httpclient"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"go.uber.org/zap"
)

// Event is the JSON body posted to a webhook
type Event struct {
	Type       string    `json:"type"`
	RecordID   string    `json:"record_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CallAsync posts event to webhookURL in the background.
// Failures are logged and never reach the caller.
func CallAsync(webhookURL string, event Event, httpClient httpclient.Client) {
	if webhookURL == "" {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	go func() {
		body, err := json.Marshal(event)
		if err != nil {
			logger.Error("Failed to encode webhook event", zap.Error(err), zap.String("type", event.Type))
			return
		}

		resp, err := httpClient.Post(webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			logger.Error("Failed to call webhook",
				zap.Error(err),
				zap.String("type", event.Type),
				zap.String("record_id", event.RecordID))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			logger.Debug("Webhook delivered",
				zap.String("type", event.Type),
				zap.String("record_id", event.RecordID),
				zap.Int("status_code", resp.StatusCode))
		} else {
			logger.Warn("Webhook returned non-success status",
				zap.String("type", event.Type),
				zap.String("record_id", event.RecordID),
				zap.Int("status_code", resp.StatusCode))
		}
	}()
}
