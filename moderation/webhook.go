// Package moderation implements the two external-facing surfaces described
// in spec.md §6: the outbound player-list webhook, and the HTTP moderation
// endpoints (GetPlayers/KickByAccountId/KickByIp/SendPlayerList) a separate
// operator tool calls into.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sm64js/realtime-server/gameserver"
)

// Webhook posts the player-list embed described in spec.md §6 to a Discord-
// compatible incoming webhook URL. It implements gameserver.WebhookSink.
type Webhook struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

var _ gameserver.WebhookSink = (*Webhook)(nil)

// NewWebhook returns a Webhook posting to url. timeout bounds each delivery
// attempt; main.go passes config.ModerationConfig.RequestTimeout, whose
// default is 15s. Account links are already
// rendered into each field's Value by gameserver.Server.SendPlayerList, so
// Webhook itself never needs a base URL.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		URL:     url,
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

type embed struct {
	Title  string       `json:"title"`
	Fields []embedField `json:"fields"`
}

type embedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Send delivers fields as a single rich embed. Per spec.md §7 ("External
// backend error: log, continue; the realtime loop never blocks on
// moderation side effects"), delivery failures are logged and dropped
// rather than propagated to the game loop's caller as a hard error; the
// returned error exists only so SendPlayerList's own log line has context.
func (w *Webhook) Send(ctx context.Context, fields []gameserver.PlayerListField) error {
	if w.URL == "" {
		return nil
	}

	deliveryID := uuid.New()

	payload := webhookPayload{Embeds: []embed{{
		Title:  "Player List",
		Fields: make([]embedField, 0, len(fields)),
	}}}
	for _, f := range fields {
		payload.Embeds[0].Fields = append(payload.Embeds[0].Fields, embedField{
			Name:  fmt.Sprintf("%s (%d)", f.RoomName, f.Count),
			Value: f.Value,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("moderation: marshal webhook payload %s: %w", deliveryID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("moderation: build webhook request %s: %w", deliveryID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		log.Printf("moderation: webhook delivery %s failed: %v", deliveryID, err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("moderation: webhook delivery %s rejected with status %d", deliveryID, resp.StatusCode)
	}
	return nil
}
