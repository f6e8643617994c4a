package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-kasir-ws/internal/model"
)

// ReadConn is a Conn that can also receive frames.
type ReadConn interface {
	Conn
	ReadMessage() (messageType int, p []byte, err error)
}

// Frame is what observers send: {"action":"join","topic":"admin"}.
type Frame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

const actorCheckTimeout = 5 * time.Second

type reply struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
	Error string `json:"error,omitempty"`
}

// Serve registers conn, pumps writes and handles join/leave frames until the
// connection fails or the hub stops.
func (h *Hub) Serve(conn ReadConn, role model.Role, actorID string) {
	c := NewClient(conn, role, actorID, 32)
	if !h.Register(c) {
		conn.Close()
		return
	}
	go c.WritePump()
	defer h.Unregister(c)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleFrame(c, data)
	}
}

func (h *Hub) handleFrame(c *Client, data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		h.reply(c, reply{Type: "error", Error: "invalid frame"})
		return
	}

	switch f.Action {
	case "join":
		role, err := h.currentRole(c)
		if err != nil {
			h.log.Info().Str("actor_id", c.ActorID).Str("topic", f.Topic).Err(err).Msg("ws actor no longer authorized")
			h.reply(c, reply{Type: "error", Topic: f.Topic, Error: "unauthorized"})
			return
		}
		if err := h.join(c, f.Topic, role); err != nil {
			msg := err.Error()
			if errors.Is(err, model.ErrForbidden) {
				msg = "forbidden"
			}
			h.log.Info().Str("actor_id", c.ActorID).Str("topic", f.Topic).Err(err).Msg("ws join rejected")
			h.reply(c, reply{Type: "error", Topic: f.Topic, Error: msg})
			return
		}
		h.reply(c, reply{Type: "joined", Topic: f.Topic})
	case "leave":
		h.Leave(c, f.Topic)
		h.reply(c, reply{Type: "left", Topic: f.Topic})
	default:
		h.reply(c, reply{Type: "error", Error: "unknown action"})
	}
}

// currentRole looks the actor up again so a deactivated or demoted actor cannot join
// with the role it had at connect time.
func (h *Hub) currentRole(c *Client) (model.Role, error) {
	if h.check == nil {
		return c.Role, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), actorCheckTimeout)
	defer cancel()
	return h.check(ctx, c.ActorID)
}

func (h *Hub) reply(c *Client, r reply) {
	b, _ := json.Marshal(r)
	h.Send(c, b)
}
