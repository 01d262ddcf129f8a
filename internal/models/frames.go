package models

import "encoding/json"

// PlatformName identifies this bridge on the control connection.
const PlatformName = "whatsapp"

// FrameType tags frames exchanged over the control connection.
type FrameType string

const (
	FrameTypeInit    FrameType = "init"
	FrameTypePing    FrameType = "ping"
	FrameTypePong    FrameType = "pong"
	FrameTypeMessage FrameType = "message"
)

// InitFrame is the handshake, sent exactly once per connection immediately
// after identity resolution. Config is the opaque bot behavior blob from
// startup configuration, passed through unmodified.
type InitFrame struct {
	Bot      string          `json:"bot"`
	Platform string          `json:"platform"`
	Type     FrameType       `json:"type"`
	User     User            `json:"user"`
	Config   json.RawMessage `json:"config"`
}

// PingFrame is the periodic keepalive, valid only after the handshake.
type PingFrame struct {
	Bot      string    `json:"bot"`
	Platform string    `json:"platform"`
	Type     FrameType `json:"type"`
}

// MessageFrame carries one canonical message toward the bot platform.
type MessageFrame struct {
	Bot      string    `json:"bot"`
	Platform string    `json:"platform"`
	Type     FrameType `json:"type"`
	Message  *Message  `json:"message"`
}

// ControlFrame is the inbound decode shape: only the fields the bridge
// acts on. Unknown frame types decode cleanly and are ignored downstream.
type ControlFrame struct {
	Type    FrameType `json:"type"`
	Message *Message  `json:"message,omitempty"`
}

func NewInitFrame(user User, config json.RawMessage) InitFrame {
	return InitFrame{
		Bot:      user.Username,
		Platform: PlatformName,
		Type:     FrameTypeInit,
		User:     user,
		Config:   config,
	}
}

func NewPingFrame(bot string) PingFrame {
	return PingFrame{
		Bot:      bot,
		Platform: PlatformName,
		Type:     FrameTypePing,
	}
}

func NewMessageFrame(bot string, msg *Message) MessageFrame {
	return MessageFrame{
		Bot:      bot,
		Platform: PlatformName,
		Type:     FrameTypeMessage,
		Message:  msg,
	}
}
