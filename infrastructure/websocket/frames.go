package websocket

import (
	"collab-chat/domain"
	"encoding/json"
	"fmt"
	"time"
)

// EventProjectMessage is the only event exchanged on the channel, in both directions.
const EventProjectMessage = "project-message"

// Frame is the JSON unit sent on the socket: {"event": ..., "data": {...}}.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// InboundMessage is the client payload. The sender comes from the handshake, never from here.
type InboundMessage struct {
	Message string `json:"message"`
}

// OutboundMessage carries the sender tag: the peer email, "AI" or "system".
type OutboundMessage struct {
	Message   string    `json:"message"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// HandshakeError is the body answered when a connection attempt is rejected.
type HandshakeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func EncodeEnvelope(env domain.Envelope) (Frame, error) {
	data, err := json.Marshal(OutboundMessage{
		Message:   env.Body,
		Sender:    env.Sender.Tag(),
		Timestamp: env.At,
	})
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: EventProjectMessage, Data: data}, nil
}

func NewMessageFrame(message string) (Frame, error) {
	data, err := json.Marshal(InboundMessage{Message: message})
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: EventProjectMessage, Data: data}, nil
}

// DecodeInbound extracts the message of a client frame.
// Unknown events, missing data and non text messages are rejected.
func DecodeInbound(raw []byte) (string, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return "", fmt.Errorf("decode frame: %w", err)
	}
	if frame.Event != EventProjectMessage {
		return "", fmt.Errorf("unsupported event %q", frame.Event)
	}
	if len(frame.Data) == 0 {
		return "", fmt.Errorf("missing data")
	}
	var msg InboundMessage
	if err := json.Unmarshal(frame.Data, &msg); err != nil {
		return "", fmt.Errorf("decode message: %w", err)
	}
	return msg.Message, nil
}

func DecodeOutbound(frame Frame) (OutboundMessage, error) {
	var msg OutboundMessage
	if frame.Event != EventProjectMessage {
		return msg, fmt.Errorf("unsupported event %q", frame.Event)
	}
	err := json.Unmarshal(frame.Data, &msg)
	return msg, err
}
