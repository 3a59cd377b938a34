package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r)
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dialWs(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func subscribeTopic(t *testing.T, conn *websocket.Conn, topic string) {
	t.Helper()
	payload, _ := json.Marshal(topicRequest{Topic: topic})
	sendEnvelope(t, conn, WSMessage{Type: WSTypeSubscribe, Data: payload, ID: "sub-1"})

	ack := readEnvelope(t, conn)
	require.Equal(t, WSTypeSubscribed, ack.Type)
	require.Equal(t, "sub-1", ack.ID)
}

func waitOnline(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for hub.OnlineCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d clients", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func sampleEvent(facultyID string) *entity.StatusEvent {
	return entity.NewStatusEvent(&entity.StatusRecord{
		FacultyID: facultyID,
		Code:      entity.StatusBusy,
		Note:      "Teaching lab session",
		UpdatedAt: time.Now().UTC(),
	})
}

func TestHub_SubscribeThenReceive(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dialWs(t, srv, "")
	waitOnline(t, hub, 1)

	subscribeTopic(t, conn, "FAC005")

	hub.Broadcast(context.Background(), sampleEvent("FAC005"))

	msg := readEnvelope(t, conn)
	assert.Equal(t, WSTypeStatusUpdate, msg.Type)

	var event entity.StatusEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, "FAC005", event.FacultyID)
	assert.Equal(t, "01", event.Binary)
	assert.Equal(t, "Busy", event.Name)
	assert.Equal(t, "#F44336", event.Color)
}

func TestHub_UnsubscribedReceivesNothing(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dialWs(t, srv, "")
	waitOnline(t, hub, 1)

	subscribeTopic(t, conn, "FAC001")

	// 推别的教师的事件，这条连接不该收到
	hub.Broadcast(context.Background(), sampleEvent("FAC002"))
	// 再推订阅的，收到的第一条必须就是它
	hub.Broadcast(context.Background(), sampleEvent("FAC001"))

	msg := readEnvelope(t, conn)
	require.Equal(t, WSTypeStatusUpdate, msg.Type)
	var event entity.StatusEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, "FAC001", event.FacultyID)
}

func TestHub_AllTopicReceivesEverything(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dialWs(t, srv, "")
	waitOnline(t, hub, 1)

	subscribeTopic(t, conn, TopicAll)

	for _, id := range []string{"FAC001", "FAC002", "FAC003"} {
		hub.Broadcast(context.Background(), sampleEvent(id))
	}

	got := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		msg := readEnvelope(t, conn)
		require.Equal(t, WSTypeStatusUpdate, msg.Type)
		var event entity.StatusEvent
		require.NoError(t, json.Unmarshal(msg.Data, &event))
		got = append(got, event.FacultyID)
	}
	assert.Equal(t, []string{"FAC001", "FAC002", "FAC003"}, got)
}

func TestHub_QueryParamInitialSubscriptions(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dialWs(t, srv, "?topics=FAC001,FAC002")
	waitOnline(t, hub, 1)

	// 初始订阅在握手协程里登记，等它生效
	deadline := time.Now().Add(3 * time.Second)
	for len(hub.Registry().SubscribersOf("FAC002")) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("initial subscriptions never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast(context.Background(), sampleEvent("FAC002"))

	msg := readEnvelope(t, conn)
	assert.Equal(t, WSTypeStatusUpdate, msg.Type)
	var event entity.StatusEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, "FAC002", event.FacultyID)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dialWs(t, srv, "")
	waitOnline(t, hub, 1)

	subscribeTopic(t, conn, "FAC001")
	subscribeTopic(t, conn, "FAC002")

	payload, _ := json.Marshal(topicRequest{Topic: "FAC001"})
	sendEnvelope(t, conn, WSMessage{Type: WSTypeUnsubscribe, Data: payload, ID: "unsub-1"})
	ack := readEnvelope(t, conn)
	require.Equal(t, WSTypeUnsubscribed, ack.Type)

	hub.Broadcast(context.Background(), sampleEvent("FAC001"))
	hub.Broadcast(context.Background(), sampleEvent("FAC002"))

	msg := readEnvelope(t, conn)
	require.Equal(t, WSTypeStatusUpdate, msg.Type)
	var event entity.StatusEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, "FAC002", event.FacultyID)
}

func TestHub_PingPong(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dialWs(t, srv, "")
	waitOnline(t, hub, 1)

	sendEnvelope(t, conn, WSMessage{Type: WSTypePing, ID: "ping-1"})

	msg := readEnvelope(t, conn)
	assert.Equal(t, WSTypePong, msg.Type)
	assert.Equal(t, "ping-1", msg.ID)
}

func TestHub_UnknownTypeGetsError(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dialWs(t, srv, "")
	waitOnline(t, hub, 1)

	sendEnvelope(t, conn, WSMessage{Type: "bogus", ID: "x"})

	msg := readEnvelope(t, conn)
	assert.Equal(t, WSTypeError, msg.Type)
}

func TestHub_DisconnectCleansSubscriptions(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dialWs(t, srv, "?topics=FAC001")
	waitOnline(t, hub, 1)

	deadline := time.Now().Add(3 * time.Second)
	for len(hub.Registry().SubscribersOf("FAC001")) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("initial subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(3 * time.Second)
	for len(hub.Registry().SubscribersOf("FAC001")) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriptions were not cleaned up after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 0, hub.OnlineCount())
}
