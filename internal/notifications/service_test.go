package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	giveawaymodels "twitch-giveaway-backend/internal/features/giveaway/models"
	usermodels "twitch-giveaway-backend/internal/features/user/models"
)

type recordingSink struct {
	mu     sync.Mutex
	events []*Event
	done   chan struct{}
	fail   bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{done: make(chan struct{}, 10)}
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Deliver(_ context.Context, event *Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.done <- struct{}{}
	if r.fail {
		return assert.AnError
	}
	return nil
}

func (r *recordingSink) wait(t *testing.T) *Event {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("sink was never called")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func testGiveaway() *giveawaymodels.Giveaway {
	return &giveawaymodels.Giveaway{
		ID:    1,
		Title: "mech keyboard",
		Prize: "Keychron K2",
		State: giveawaymodels.GiveawayStateClosed,
	}
}

func TestNotifyWinner(t *testing.T) {
	t.Run("delivers event to all sinks", func(t *testing.T) {
		first := newRecordingSink()
		second := newRecordingSink()
		svc := NewService(time.Second, first, second)

		svc.NotifyWinner(testGiveaway(), &usermodels.User{ID: "u1", DisplayName: "Viewer One"}, 5, false)

		for _, sink := range []*recordingSink{first, second} {
			event := sink.wait(t)
			assert.Equal(t, "giveaway.draw", event.Type)
			assert.Equal(t, int64(1), event.GiveawayID)
			assert.Equal(t, "u1", event.WinnerID)
			assert.Equal(t, "Viewer One", event.WinnerName)
			assert.Equal(t, int64(5), event.ParticipantsCount)
			assert.False(t, event.Reroll)
		}
	})

	t.Run("reroll sets the event type", func(t *testing.T) {
		sink := newRecordingSink()
		svc := NewService(time.Second, sink)

		svc.NotifyWinner(testGiveaway(), &usermodels.User{ID: "u2", DisplayName: "Viewer Two"}, 5, true)

		event := sink.wait(t)
		assert.Equal(t, "giveaway.reroll", event.Type)
		assert.True(t, event.Reroll)
	})

	t.Run("sink failure does not reach the caller", func(t *testing.T) {
		sink := newRecordingSink()
		sink.fail = true
		svc := NewService(time.Second, sink)

		svc.NotifyWinner(testGiveaway(), &usermodels.User{ID: "u1", DisplayName: "Viewer"}, 1, false)
		sink.wait(t)
	})
}

func TestWebhookSink(t *testing.T) {
	t.Run("posts event json", func(t *testing.T) {
		received := make(chan *Event, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var event Event
			require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
			received <- &event
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		sink := NewWebhookSink(server.URL)
		err := sink.Deliver(context.Background(), &Event{
			Type:       "giveaway.draw",
			GiveawayID: 9,
			WinnerID:   "u1",
		})
		require.NoError(t, err)

		event := <-received
		assert.Equal(t, int64(9), event.GiveawayID)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		sink := NewWebhookSink(server.URL)
		err := sink.Deliver(context.Background(), &Event{})
		assert.Error(t, err)
	})
}

func TestBuildChatMessage(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name: "draw with prize",
			event: Event{
				Title:             "mech keyboard",
				Prize:             "Keychron K2",
				WinnerName:        "Viewer One",
				ParticipantsCount: 12,
			},
			want: "🎉 @Viewer One wins \"mech keyboard\" and takes home Keychron K2! (12 participants)",
		},
		{
			name: "draw without prize",
			event: Event{
				Title:             "sub giveaway",
				WinnerName:        "Viewer Two",
				ParticipantsCount: 3,
			},
			want: "🎉 @Viewer Two wins \"sub giveaway\"! (3 participants)",
		},
		{
			name: "reroll",
			event: Event{
				Title:             "sub giveaway",
				WinnerName:        "Viewer Three",
				ParticipantsCount: 3,
				Reroll:            true,
			},
			want: "🎉 @Viewer Three wins the reroll of \"sub giveaway\"! (3 participants)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildChatMessage(&tt.event))
		})
	}
}
