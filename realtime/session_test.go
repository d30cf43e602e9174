package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"course-chat/domain/event"
)

func TestMarshalEvent_MessageFrame(t *testing.T) {
	req := require.New(t)

	m := testMessage(alice, bob)
	frame, err := marshalEvent(event.MessageCreated{Message: m})
	req.NoError(err)

	var decoded struct {
		Event string `json:"event"`
		Data  struct {
			Message map[string]any `json:"message"`
		} `json:"data"`
	}
	req.NoError(json.Unmarshal(frame, &decoded))
	req.Equal("message:new", decoded.Event)
	req.Equal(string(m.ID), decoded.Data.Message["id"])
	req.Equal(string(alice), decoded.Data.Message["senderId"])
	req.Equal(string(bob), decoded.Data.Message["receiverId"])
	// No viewer context on the live channel.
	_, present := decoded.Data.Message["isMine"]
	req.False(present)
}

func TestMarshalEvent_PresenceFrame(t *testing.T) {
	req := require.New(t)

	frame, err := marshalEvent(event.PresenceChanged{UserID: bob, Online: false})
	req.NoError(err)

	var decoded struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	req.NoError(json.Unmarshal(frame, &decoded))
	req.Equal("presence:update", decoded.Event)
	req.Equal(string(bob), decoded.Data["userId"])
	req.Equal(false, decoded.Data["online"])
}

func TestSession_ConsumeDropsWhenBufferFull(t *testing.T) {
	req := require.New(t)

	// No pumps running: the buffer fills and further events are dropped
	// rather than blocking the fanout.
	session := NewSession(nil, bob, 1)
	evt := event.PresenceChanged{UserID: alice, Online: true}

	req.NoError(session.Consume(context.Background(), evt))
	req.Error(session.Consume(context.Background(), evt))
}
