package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"twitch-giveaway-backend/internal/common/logger"
	giveawaymodels "twitch-giveaway-backend/internal/features/giveaway/models"
	usermodels "twitch-giveaway-backend/internal/features/user/models"
	"twitch-giveaway-backend/internal/platform/twitch"
)

// Event describes a draw outcome for delivery to external sinks.
type Event struct {
	Type              string    `json:"type"` // giveaway.draw | giveaway.reroll
	GiveawayID        int64     `json:"giveaway_id"`
	Title             string    `json:"title"`
	Prize             string    `json:"prize,omitempty"`
	Image             string    `json:"image,omitempty"`
	ParticipantsCount int64     `json:"participants_count"`
	WinnerID          string    `json:"winner_id"`
	WinnerName        string    `json:"winner_name"`
	Reroll            bool      `json:"reroll"`
	DrawnAt           time.Time `json:"drawn_at"`
}

// Sink delivers one event to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event *Event) error
}

// Service fans a draw outcome out to all configured sinks. Delivery is
// fire-and-forget relative to the state transition: a failed or slow sink
// is logged and dropped, never surfaced to the mutation path.
type Service struct {
	sinks   []Sink
	timeout time.Duration
}

func NewService(timeout time.Duration, sinks ...Sink) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{sinks: sinks, timeout: timeout}
}

// NotifyWinner dispatches the outcome asynchronously and returns immediately.
func (s *Service) NotifyWinner(giveaway *giveawaymodels.Giveaway, winner *usermodels.User, participants int64, reroll bool) {
	if s == nil || giveaway == nil || winner == nil {
		return
	}

	event := &Event{
		Type:              "giveaway.draw",
		GiveawayID:        giveaway.ID,
		Title:             giveaway.Title,
		Prize:             giveaway.Prize,
		Image:             giveaway.Image,
		ParticipantsCount: participants,
		WinnerID:          winner.ID,
		WinnerName:        winner.DisplayName,
		Reroll:            reroll,
		DrawnAt:           time.Now().UTC(),
	}
	if reroll {
		event.Type = "giveaway.reroll"
	}

	for _, sink := range s.sinks {
		go s.deliver(sink, event)
	}
}

func (s *Service) deliver(sink Sink, event *Event) {
	// Detached from the request context on purpose: the mutation is already
	// committed, only the delivery deadline applies.
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := sink.Deliver(ctx, event); err != nil {
		logger.Warn().
			Err(err).
			Str("sink", sink.Name()).
			Int64("giveaway_id", event.GiveawayID).
			Bool("reroll", event.Reroll).
			Msg("notification delivery failed")
		return
	}
	logger.Debug().
		Str("sink", sink.Name()).
		Int64("giveaway_id", event.GiveawayID).
		Msg("notification delivered")
}

// WebhookSink POSTs the event as JSON to a configured endpoint.
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{},
	}
}

func (w *WebhookSink) Name() string { return "webhook" }

func (w *WebhookSink) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

// ChatSink announces the outcome in the channel's Twitch chat.
type ChatSink struct {
	chat *twitch.ChatClient
}

func NewChatSink(chat *twitch.ChatClient) *ChatSink {
	return &ChatSink{chat: chat}
}

func (c *ChatSink) Name() string { return "twitch-chat" }

func (c *ChatSink) Deliver(ctx context.Context, event *Event) error {
	if !c.chat.Enabled() {
		return nil
	}
	c.chat.Announce(buildChatMessage(event))
	return nil
}

func buildChatMessage(event *Event) string {
	verb := "wins"
	if event.Reroll {
		verb = "wins the reroll of"
	}
	msg := fmt.Sprintf("🎉 @%s %s \"%s\"", event.WinnerName, verb, event.Title)
	if event.Prize != "" {
		msg += fmt.Sprintf(" and takes home %s", event.Prize)
	}
	msg += fmt.Sprintf("! (%d participants)", event.ParticipantsCount)
	return msg
}
