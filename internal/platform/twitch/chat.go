package twitch

import (
	"context"
	"strings"
	"sync"

	irc "github.com/gempir/go-twitch-irc/v4"

	"twitch-giveaway-backend/internal/common/logger"
)

// ChatClient posts announcements to a single Twitch channel. Without chat
// credentials the client stays disabled and Announce becomes a no-op, the
// same read-only mode the bot falls back to.
type ChatClient struct {
	client  *irc.Client
	channel string
	enabled bool

	mu        sync.Mutex
	connected bool
}

// NewChatClient builds a client for the given channel. oauth is the bot
// account's chat token ("oauth:..." prefix optional).
func NewChatClient(username, oauth, channel string) *ChatClient {
	channel = strings.TrimPrefix(channel, "#")
	if username == "" || oauth == "" || channel == "" {
		return &ChatClient{channel: channel}
	}
	if !strings.HasPrefix(oauth, "oauth:") {
		oauth = "oauth:" + oauth
	}

	client := irc.NewClient(username, oauth)
	client.Join(channel)
	return &ChatClient{client: client, channel: channel, enabled: true}
}

func (c *ChatClient) Enabled() bool {
	return c.enabled
}

// Start connects in the background and keeps the library's built-in
// reconnect loop running until ctx is cancelled.
func (c *ChatClient) Start(ctx context.Context) {
	if !c.enabled {
		logger.Info().Msg("Twitch chat sink disabled (no credentials)")
		return
	}

	c.client.OnConnect(func() {
		c.mu.Lock()
		c.connected = true
		c.mu.Unlock()
		logger.Info().Str("channel", c.channel).Msg("Twitch chat connected")
	})

	go func() {
		<-ctx.Done()
		_ = c.client.Disconnect()
	}()

	go func() {
		if err := c.client.Connect(); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("Twitch chat connection ended")
		}
	}()
}

// Announce posts a single chat line. Failures are the caller's concern only
// as diagnostics; the client never blocks beyond the write itself.
func (c *ChatClient) Announce(message string) {
	if !c.enabled {
		return
	}
	c.client.Say(c.channel, message)
}
