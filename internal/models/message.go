package models

// MessageType is the closed set of canonical content types. Platform
// content types that have no mapping normalize to MessageTypeUnsupported.
type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypePhoto       MessageType = "photo"
	MessageTypeVideo       MessageType = "video"
	MessageTypeAudio       MessageType = "audio"
	MessageTypeVoice       MessageType = "voice"
	MessageTypeDocument    MessageType = "document"
	MessageTypeLocation    MessageType = "location"
	MessageTypeSticker     MessageType = "sticker"
	MessageTypeUnsupported MessageType = "unsupported"
)

// User is either a remote contact or the bridge's own identity (IsBot true).
type User struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  *string `json:"lastName"`
	Username  string  `json:"username"`
	IsBot     bool    `json:"isBot"`
}

// Conversation identifies one chat. There is one conversation per remote
// contact, so its ID doubles as the destination for outbound sends.
type Conversation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Extra is the side-channel bag attached to a message. OriginalMessage
// carries the untouched platform payload for diagnostics; the remaining
// fields are advisory rendering hints consumed only on the outbound path.
type Extra struct {
	OriginalMessage any    `json:"originalMessage,omitempty"`
	Format          string `json:"format,omitempty"`
	Caption         string `json:"caption,omitempty"`
	Preview         bool   `json:"preview,omitempty"`
}

// Message is the canonical envelope for one chat event. Content depends on
// Type: the text body, a media identifier, or a *LocationContent. It is
// left nil for unsupported types. ReplyTo is carried for protocol
// compatibility and is always nil on the inbound path.
type Message struct {
	ID           string       `json:"id"`
	Conversation Conversation `json:"conversation"`
	Sender       User         `json:"sender"`
	Content      any          `json:"content,omitempty"`
	Type         MessageType  `json:"type"`
	Date         int64        `json:"date"`
	ReplyTo      *Message     `json:"replyTo"`
	Extra        *Extra       `json:"extra,omitempty"`
}
