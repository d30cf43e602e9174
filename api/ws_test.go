package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, ts *testServer, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/api/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// readUntil drains frames until one matches the wanted event.
func readUntil(t *testing.T, conn *websocket.Conn, event string) wsFrame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s frame", event)
		var frame wsFrame
		require.NoError(t, json.Unmarshal(payload, &frame))
		if frame.Event == event {
			return frame
		}
	}
}

func TestWS_MessageFanoutToBothParticipantsAndAllDevices(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	aliceToken, aliceID := registerUser(t, ts, "Alice", "alice@example.com")
	bobToken, bobID := registerUser(t, ts, "Bob", "bob@example.com")

	aliceConn := dialWS(t, ts, aliceToken)
	bobDevice1 := dialWS(t, ts, bobToken)
	bobDevice2 := dialWS(t, ts, bobToken)

	// Alice sees one presence broadcast per bob attach, which proves both
	// devices are registered before the send fires.
	readUntil(t, aliceConn, "presence:update")
	readUntil(t, aliceConn, "presence:update")

	resp := ts.do(t, http.MethodPost, "/api/messages", aliceToken, map[string]string{
		"to": bobID, "content": "realtime hello",
	})
	req.Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	for _, conn := range []*websocket.Conn{aliceConn, bobDevice1, bobDevice2} {
		frame := readUntil(t, conn, "message:new")
		var data struct {
			Message struct {
				SenderID   string `json:"senderId"`
				ReceiverID string `json:"receiverId"`
				Content    string `json:"content"`
			} `json:"message"`
		}
		req.NoError(json.Unmarshal(frame.Data, &data))
		req.Equal(aliceID, data.Message.SenderID)
		req.Equal(bobID, data.Message.ReceiverID)
		req.Equal("realtime hello", data.Message.Content)
	}
}

func TestWS_PresenceBroadcastReachesAnonymous(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	bobToken, bobID := registerUser(t, ts, "Bob", "bob@example.com")

	anonymous := dialWS(t, ts, "")
	// Give the anonymous attach a moment to land before bob connects.
	time.Sleep(100 * time.Millisecond)
	_ = dialWS(t, ts, bobToken)

	frame := readUntil(t, anonymous, "presence:update")
	var data struct {
		UserID string `json:"userId"`
		Online bool   `json:"online"`
	}
	req.NoError(json.Unmarshal(frame.Data, &data))
	req.Equal(bobID, data.UserID)
	req.True(data.Online)
}

func TestWS_AnonymousNeverReceivesMessages(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	aliceToken, _ := registerUser(t, ts, "Alice", "alice@example.com")
	_, bobID := registerUser(t, ts, "Bob", "bob@example.com")

	anonymous := dialWS(t, ts, "")

	resp := ts.do(t, http.MethodPost, "/api/messages", aliceToken, map[string]string{
		"to": bobID, "content": "private",
	})
	req.Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// The anonymous session holds no address; nothing but presence traffic
	// may reach it. A short read window keeps the test fast.
	req.NoError(anonymous.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	for {
		_, payload, err := anonymous.ReadMessage()
		if err != nil {
			break // timeout: no message frame arrived
		}
		var frame wsFrame
		req.NoError(json.Unmarshal(payload, &frame))
		req.NotEqual("message:new", frame.Event)
	}
}

func TestWS_BadTokenDegradesToAnonymous(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	aliceToken, _ := registerUser(t, ts, "Alice", "alice@example.com")
	_, bobID := registerUser(t, ts, "Bob", "bob@example.com")

	// The connection is accepted, it just never joins an address.
	conn := dialWS(t, ts, "not-a-valid-token")

	resp := ts.do(t, http.MethodPost, "/api/messages", aliceToken, map[string]string{
		"to": bobID, "content": "secret",
	})
	req.Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	req.NoError(conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var frame wsFrame
		req.NoError(json.Unmarshal(payload, &frame))
		req.NotEqual("message:new", frame.Event)
	}
}
