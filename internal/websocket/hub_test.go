package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/murder-mystery/internal/domain"
)

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	hub := NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, logger, w, r)
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decoding %s: %v", data, err)
	}
	return msg
}

func TestRoundReachesEveryClientByDefault(t *testing.T) {
	t.Parallel()
	hub, url := newTestHub(t)

	a := dial(t, url)
	b := dial(t, url)
	waitFor(t, func() bool { return hub.GetTotalConnections() == 2 })

	hub.BroadcastRound(domain.RoundState{Round: 2, Version: 7})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.Type != MessageTypeRoundChanged {
			t.Errorf("expected %s got %s", MessageTypeRoundChanged, msg.Type)
		}
		data, _ := msg.Data.(map[string]interface{})
		if data["round"] != float64(2) {
			t.Errorf("expected round 2 got %v", data["round"])
		}
	}
}

func TestStandingsRequireSubscription(t *testing.T) {
	t.Parallel()
	hub, url := newTestHub(t)

	subscriber := dial(t, url)
	waitFor(t, func() bool { return hub.GetTotalConnections() == 1 })

	if err := subscriber.WriteJSON(ClientMessage{Type: MessageTypeSubscribe, Topic: TopicScoreboard}); err != nil {
		t.Fatal(err)
	}
	if ack := readMessage(t, subscriber); ack.Type != MessageTypeSubscribedAck {
		t.Fatalf("expected ack got %s", ack.Type)
	}
	waitFor(t, func() bool { return hub.GetSubscriberCount(TopicScoreboard) == 1 })

	other := dial(t, url)
	waitFor(t, func() bool { return hub.GetTotalConnections() == 2 })

	hub.BroadcastStandings("3", []domain.StandingEntry{{Rank: 1, CharacterID: "c1", Score: 5}})
	hub.BroadcastRound(domain.RoundState{Round: 1})

	first := readMessage(t, subscriber)
	if first.Type != MessageTypeStandingsUpdate || first.Topic != TopicScoreboard {
		t.Errorf("expected standings update got %+v", first)
	}

	// The client without a scoreboard subscription only sees the round change
	if msg := readMessage(t, other); msg.Type != MessageTypeRoundChanged {
		t.Errorf("expected round change got %s", msg.Type)
	}
}

func TestUnknownTopicIsRejected(t *testing.T) {
	t.Parallel()
	hub, url := newTestHub(t)

	conn := dial(t, url)
	waitFor(t, func() bool { return hub.GetTotalConnections() == 1 })

	if err := conn.WriteJSON(ClientMessage{Type: MessageTypeSubscribe, Topic: "votes"}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypeError {
		t.Errorf("expected error got %s", msg.Type)
	}
	if hub.GetSubscriberCount("votes") != 0 {
		t.Error("unexpected subscription to unknown topic")
	}
}

func TestUnsubscribeFromRound(t *testing.T) {
	t.Parallel()
	hub, url := newTestHub(t)

	conn := dial(t, url)
	waitFor(t, func() bool { return hub.GetSubscriberCount(TopicRound) == 1 })

	if err := conn.WriteJSON(ClientMessage{Type: MessageTypeUnsubscribe, Topic: TopicRound}); err != nil {
		t.Fatal(err)
	}
	if ack := readMessage(t, conn); ack.Type != MessageTypeUnsubscribedAck {
		t.Fatalf("expected ack got %s", ack.Type)
	}
	waitFor(t, func() bool { return hub.GetSubscriberCount(TopicRound) == 0 })
	if hub.GetTotalConnections() != 1 {
		t.Errorf("expected connection to stay open")
	}
}
